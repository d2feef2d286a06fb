package user

import (
	"context"

	"github.com/xiebiao/usedbooks/internal/domain/user"
)

// RegisterUseCase 邮箱密码注册
type RegisterUseCase struct {
	userService user.Service
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(userService user.Service) *RegisterUseCase {
	return &RegisterUseCase{userService: userService}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
}

// Execute 执行注册，返回的UserInfo不含密码
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*UserInfo, error) {
	u, err := uc.userService.Register(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

// UserInfo 用户信息
type UserInfo struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Provider    string `json:"provider"`
}

func toUserInfo(u *user.User) *UserInfo {
	return &UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Provider:    u.Provider,
	}
}
