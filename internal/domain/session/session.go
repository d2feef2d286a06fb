// Package session 当前登录用户的显式会话
//
// 会话由HTTP中间件根据JWT构造,作为值参数传入每个用例,
// 测试可以直接构造一个假会话。
package session

import (
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

// Session 当前用户身份
// 零值表示未登录
type Session struct {
	UserID      uint
	Email       string
	DisplayName string
}

// Anonymous 未登录会话
var Anonymous = Session{}

// New 创建会话
func New(userID uint, email, displayName string) Session {
	return Session{UserID: userID, Email: email, DisplayName: displayName}
}

// Authenticated 是否已登录
func (s Session) Authenticated() bool {
	return s.UserID != 0
}

// Require 未登录时返回ErrUnauthorized
func (s Session) Require() error {
	if !s.Authenticated() {
		return apperrors.ErrUnauthorized
	}
	return nil
}
