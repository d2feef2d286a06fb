package user

import (
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

var (
	// ErrCredentialsRequired 邮箱或密码为空
	ErrCredentialsRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "邮箱和密码不能为空")

	// ErrInvalidEmail 邮箱格式不正确
	ErrInvalidEmail = apperrors.New(apperrors.ErrCodeInvalidParams, "邮箱格式不正确")
)
