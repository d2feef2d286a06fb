// Package cart 购物车(集合语义)
//
// 规范路径:users/{userId}/cart/{bookId}。同一本书最多一条记录,没有数量字段。
package cart

import (
	"context"
	"time"

	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

// Entry 购物车条目
type Entry struct {
	UserID  uint      `json:"user_id"`
	BookID  string    `json:"book_id"`
	AddedAt time.Time `json:"added_at"`
}

// AddOutcome 加入购物车的结果
type AddOutcome string

const (
	Added         AddOutcome = "added"
	AlreadyInCart AddOutcome = "already_in_cart"
)

// RemoveOutcome 移出购物车的结果
type RemoveOutcome string

const (
	Removed   RemoveOutcome = "removed"
	NotInCart RemoveOutcome = "not_in_cart"
)

// Message 面向用户的提示
func (o AddOutcome) Message() string {
	if o == AlreadyInCart {
		return apperrors.ErrAlreadyInCart.Message
	}
	return "已加入购物车"
}

// Message 面向用户的提示
func (o RemoveOutcome) Message() string {
	if o == NotInCart {
		return apperrors.ErrNotInCart.Message
	}
	return "已移出购物车"
}

// ErrInvalidBookID 图书ID为空
var ErrInvalidBookID = apperrors.New(apperrors.ErrCodeInvalidParams, "图书ID不能为空")

// Repository 购物车仓储
// (user_id, book_id) 为主键
type Repository interface {
	// Insert 插入条目;已存在时返回 apperrors.ErrAlreadyInCart
	Insert(ctx context.Context, e *Entry) error

	// Delete 删除条目;不存在时返回 apperrors.ErrNotInCart
	Delete(ctx context.Context, userID uint, bookID string) error

	// List 按加入时间倒序
	List(ctx context.Context, userID uint) ([]Entry, error)
}
