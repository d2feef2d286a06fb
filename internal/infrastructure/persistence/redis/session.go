package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/usedbooks/internal/domain/session"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

// SessionStore 会话存储
// Key设计：session:{user_id}（Hash）、blacklist:{token}（String）
type SessionStore struct {
	client redis.UniversalClient
	call   remote.Caller
}

// NewSessionStore 创建会话存储
func NewSessionStore(client redis.UniversalClient, call remote.Caller) *SessionStore {
	return &SessionStore{client: client, call: call}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("session:%d", userID)
}

func blacklistKey(token string) string {
	return "blacklist:" + token
}

// Save 保存用户会话，过期时间与Refresh Token一致
func (s *SessionStore) Save(ctx context.Context, sess session.Session, ttl time.Duration) error {
	key := sessionKey(sess.UserID)
	return s.call.Do(ctx, "redis.session.save", func(ctx context.Context) error {
		pipe := s.client.TxPipeline()
		pipe.HSet(ctx, key, map[string]interface{}{
			"user_id":      sess.UserID,
			"email":        sess.Email,
			"display_name": sess.DisplayName,
			"login_at":     time.Now().Unix(),
		})
		pipe.Expire(ctx, key, ttl)
		_, err := pipe.Exec(ctx)
		return err
	})
}

// Get 读取用户会话，不存在返回ErrUnauthorized
func (s *SessionStore) Get(ctx context.Context, userID uint) (session.Session, error) {
	var fields map[string]string
	err := s.call.Do(ctx, "redis.session.get", func(ctx context.Context) error {
		var err error
		fields, err = s.client.HGetAll(ctx, sessionKey(userID)).Result()
		return err
	})
	if err != nil {
		return session.Anonymous, err
	}
	if len(fields) == 0 {
		return session.Anonymous, apperrors.ErrUnauthorized
	}

	id, err := strconv.ParseUint(fields["user_id"], 10, 64)
	if err != nil {
		return session.Anonymous, apperrors.ErrUnauthorized
	}
	return session.New(uint(id), fields["email"], fields["display_name"]), nil
}

// Delete 删除用户会话（登出）
func (s *SessionStore) Delete(ctx context.Context, userID uint) error {
	return s.call.Do(ctx, "redis.session.delete", func(ctx context.Context) error {
		return s.client.Del(ctx, sessionKey(userID)).Err()
	})
}

// AddToBlacklist 将Token加入黑名单，ttl取Access Token有效期，过期自动清理
func (s *SessionStore) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	return s.call.Do(ctx, "redis.blacklist.add", func(ctx context.Context) error {
		return s.client.Set(ctx, blacklistKey(token), "revoked", ttl).Err()
	})
}

// IsInBlacklist 检查Token是否在黑名单中
func (s *SessionStore) IsInBlacklist(ctx context.Context, token string) (bool, error) {
	var exists int64
	err := s.call.Do(ctx, "redis.blacklist.check", func(ctx context.Context) error {
		var err error
		exists, err = s.client.Exists(ctx, blacklistKey(token)).Result()
		return err
	})
	return exists > 0, err
}
