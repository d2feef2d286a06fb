package user

import (
	"strings"
	"time"
)

// Provider 账号来源
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User 用户实体(聚合根)
// Password为bcrypt哈希;联合登录用户没有密码
type User struct {
	ID          uint
	Email       string
	Password    string
	DisplayName string
	Provider    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewUser 创建新用户(工厂方法)
func NewUser(email, hashedPassword, displayName, provider string, now time.Time) *User {
	return &User{
		Email:       NormalizeEmail(email),
		Password:    hashedPassword,
		DisplayName: displayName,
		Provider:    provider,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasPassword 是否可以用密码登录
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// NormalizeEmail 邮箱统一小写、去空格
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
