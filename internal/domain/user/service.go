package user

import (
	"context"
	"errors"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

// Service 用户领域服务
type Service interface {
	// Register 邮箱密码注册
	Register(ctx context.Context, email, password, displayName string) (*User, error)

	// Login 邮箱密码登录
	Login(ctx context.Context, email, password string) (*User, error)

	// SignInFederated 第三方登录:按邮箱查找,不存在则创建
	SignInFederated(ctx context.Context, identity *FederatedIdentity) (*User, error)

	// GetByID 查询用户
	GetByID(ctx context.Context, id uint) (*User, error)
}

type service struct {
	repo       Repository
	bcryptCost int
	now        func() time.Time
}

// NewService 创建用户服务
// bcryptCost<=0时使用bcrypt.DefaultCost
func NewService(repo Repository, bcryptCost int) Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &service{repo: repo, bcryptCost: bcryptCost, now: time.Now}
}

// Register 用户注册
// 业务规则:
// 1. 邮箱和密码都必须填写,邮箱格式合法
// 2. 密码至少6位
// 3. 邮箱唯一性由数据库UNIQUE索引保证
func (s *service) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < 6 || len(password) > 72 {
		return nil, apperrors.ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Wrap(err, "密码加密失败")
	}

	u := NewUser(email, string(hashed), displayName, ProviderPassword, s.now())
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login 用户登录
// 用户不存在和密码错误返回同一个错误,避免枚举邮箱
func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, err
	}
	if !u.HasPassword() {
		return nil, apperrors.ErrInvalidPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, apperrors.Wrap(err, "密码验证失败")
	}
	return u, nil
}

// SignInFederated 第三方登录
func (s *service) SignInFederated(ctx context.Context, identity *FederatedIdentity) (*User, error) {
	if identity == nil || NormalizeEmail(identity.Email) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	u, err := s.repo.FindByEmail(ctx, identity.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	u = NewUser(identity.Email, "", identity.DisplayName, identity.Provider, s.now())
	if err := s.repo.Create(ctx, u); err != nil {
		// 并发首次登录:另一个请求已经创建
		if errors.Is(err, apperrors.ErrEmailDuplicate) {
			return s.repo.FindByEmail(ctx, identity.Email)
		}
		return nil, err
	}
	return u, nil
}

// GetByID 查询用户
func (s *service) GetByID(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
