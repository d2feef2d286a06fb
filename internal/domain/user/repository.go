package user

import (
	"context"
)

// Repository 用户仓储接口
type Repository interface {
	// Create 创建用户,邮箱已存在返回ErrEmailDuplicate
	Create(ctx context.Context, user *User) error

	// FindByID 不存在返回ErrUserNotFound
	FindByID(ctx context.Context, id uint) (*User, error)

	// FindByEmail 不存在返回ErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// FederatedIdentity 第三方身份(已验证的ID Token中的信息)
type FederatedIdentity struct {
	Provider    string
	Subject     string
	Email       string
	DisplayName string
}

// IdentityVerifier 校验第三方ID Token
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*FederatedIdentity, error)
}
