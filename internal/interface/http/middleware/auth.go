package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/session"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
	"github.com/xiebiao/usedbooks/pkg/jwt"
	"github.com/xiebiao/usedbooks/pkg/response"
)

// Context中的键
const (
	ContextKeySession = "session"
	ContextKeyToken   = "access_token"
)

// TokenBlacklist 已登出Token的黑名单，由 redis.SessionStore 实现
type TokenBlacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware 认证中间件
// 每个请求根据Authorization头计算会话：有合法Token即为已登录，否则为匿名
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  TokenBlacklist
	logger     *zap.Logger
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist TokenBlacklist, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// RequireAuth 必须登录
//
//	orders.Use(authMiddleware.RequireAuth())
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		sess, err := m.authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextKeySession, sess)
		c.Set(ContextKeyToken, token)
		c.Next()
	}
}

// OptionalAuth 可选登录
// Token缺失或无效时按匿名处理，不中断请求
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		sess, err := m.authenticate(c.Request.Context(), token)
		if err != nil {
			m.logger.Debug("optional auth ignored invalid token", zap.Error(err))
			c.Next()
			return
		}

		c.Set(ContextKeySession, sess)
		c.Set(ContextKeyToken, token)
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(ctx context.Context, token string) (session.Session, error) {
	// 黑名单查询失败时拒绝请求，不能让已登出的Token继续可用
	if m.blacklist != nil {
		blocked, err := m.blacklist.IsInBlacklist(ctx, token)
		if err != nil {
			return session.Anonymous, err
		}
		if blocked {
			return session.Anonymous, apperrors.ErrInvalidToken
		}
	}

	claims, err := m.jwtManager.ParseToken(token)
	if err != nil {
		return session.Anonymous, err
	}
	return session.New(claims.UserID, claims.Email, claims.DisplayName), nil
}

// extractToken 从 "Authorization: Bearer <token>" 中取出Token
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// SessionFrom 当前请求的会话，未登录时返回匿名会话
func SessionFrom(c *gin.Context) session.Session {
	if v, ok := c.Get(ContextKeySession); ok {
		if sess, ok := v.(session.Session); ok {
			return sess
		}
	}
	return session.Anonymous
}

// TokenFrom 当前请求的Access Token（登出时加入黑名单）
func TokenFrom(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}
