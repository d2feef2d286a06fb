package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/session"
	"github.com/xiebiao/usedbooks/internal/domain/user"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
	"github.com/xiebiao/usedbooks/pkg/jwt"
)

// SessionStore 会话存储，由 redis.SessionStore 实现
type SessionStore interface {
	Save(ctx context.Context, sess session.Session, ttl time.Duration) error
	Delete(ctx context.Context, userID uint) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// ErrFederatedDisabled 未配置第三方登录
var ErrFederatedDisabled = apperrors.New(apperrors.ErrCodeForbidden, "未启用第三方登录")

// LoginResponse 登录响应
type LoginResponse struct {
	User         *UserInfo `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"` // Access Token过期时间（秒）
}

// LoginUseCase 邮箱密码登录和第三方登录
// 两种方式验证通过后走同一套流程：签发Token对、保存会话
type LoginUseCase struct {
	userService  user.Service
	verifier     user.IdentityVerifier
	jwtManager   *jwt.Manager
	sessionStore SessionStore
	sessionTTL   time.Duration
	logger       *zap.Logger
}

// NewLoginUseCase 创建登录用例
// verifier为nil表示未启用第三方登录；sessionTTL与Refresh Token有效期一致
func NewLoginUseCase(
	userService user.Service,
	verifier user.IdentityVerifier,
	jwtManager *jwt.Manager,
	sessionStore SessionStore,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *LoginUseCase {
	return &LoginUseCase{
		userService:  userService,
		verifier:     verifier,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		sessionTTL:   sessionTTL,
		logger:       logger,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
}

// Execute 邮箱密码登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := uc.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return uc.issue(ctx, u)
}

// ExecuteFederated 第三方ID Token登录，首次登录自动创建用户
func (uc *LoginUseCase) ExecuteFederated(ctx context.Context, idToken string) (*LoginResponse, error) {
	if uc.verifier == nil {
		return nil, ErrFederatedDisabled
	}
	identity, err := uc.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	u, err := uc.userService.SignInFederated(ctx, identity)
	if err != nil {
		return nil, err
	}
	return uc.issue(ctx, u)
}

func (uc *LoginUseCase) issue(ctx context.Context, u *user.User) (*LoginResponse, error) {
	pair, err := uc.jwtManager.GenerateToken(u.ID, u.Email, u.DisplayName)
	if err != nil {
		return nil, err
	}

	// 会话只用于统计和强制下线，保存失败不影响登录
	if err := uc.sessionStore.Save(ctx, session.New(u.ID, u.Email, u.DisplayName), uc.sessionTTL); err != nil {
		uc.logger.Warn("save session failed", zap.Uint("user_id", u.ID), zap.Error(err))
	}

	uc.logger.Info("user signed in", zap.Uint("user_id", u.ID), zap.String("provider", u.Provider))
	return &LoginResponse{
		User:         toUserInfo(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// LogoutUseCase 登出：删除会话，Access Token加入黑名单
type LogoutUseCase struct {
	sessionStore SessionStore
	jwtManager   *jwt.Manager
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(sessionStore SessionStore, jwtManager *jwt.Manager) *LogoutUseCase {
	return &LogoutUseCase{sessionStore: sessionStore, jwtManager: jwtManager}
}

// Execute 执行登出
func (uc *LogoutUseCase) Execute(ctx context.Context, sess session.Session, accessToken string) error {
	if err := sess.Require(); err != nil {
		return err
	}
	if err := uc.sessionStore.Delete(ctx, sess.UserID); err != nil {
		return err
	}
	// 黑名单只需保留到Token自然过期
	return uc.sessionStore.AddToBlacklist(ctx, accessToken, uc.jwtManager.AccessTokenTTL())
}

// RefreshUseCase 用Refresh Token换发Access Token
type RefreshUseCase struct {
	jwtManager *jwt.Manager
}

// NewRefreshUseCase 创建刷新用例
func NewRefreshUseCase(jwtManager *jwt.Manager) *RefreshUseCase {
	return &RefreshUseCase{jwtManager: jwtManager}
}

// RefreshResponse 刷新响应
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Execute 执行刷新
func (uc *RefreshUseCase) Execute(refreshToken string) (*RefreshResponse, error) {
	token, err := uc.jwtManager.RefreshAccessToken(refreshToken)
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{
		AccessToken: token,
		ExpiresIn:   int64(uc.jwtManager.AccessTokenTTL().Seconds()),
	}, nil
}

// ProfileUseCase 当前登录用户
type ProfileUseCase struct {
	userService user.Service
}

// NewProfileUseCase 创建用例
func NewProfileUseCase(userService user.Service) *ProfileUseCase {
	return &ProfileUseCase{userService: userService}
}

// Execute 查询当前用户
func (uc *ProfileUseCase) Execute(ctx context.Context, sess session.Session) (*UserInfo, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	u, err := uc.userService.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}
