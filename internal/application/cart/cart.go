// Package cart 购物车用例
//
// 购物车是集合：同一本书只有一条记录。重复加入、移除不存在的书都是正常结果，
// 以Outcome返回而不是错误。
package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xiebiao/usedbooks/internal/domain/cart"
	"github.com/xiebiao/usedbooks/internal/domain/session"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

// UseCase 购物车用例
type UseCase struct {
	repo cart.Repository
	now  func() time.Time
}

// NewUseCase 创建购物车用例
func NewUseCase(repo cart.Repository) *UseCase {
	return &UseCase{repo: repo, now: time.Now}
}

// AddToCart 加入购物车
func (uc *UseCase) AddToCart(ctx context.Context, sess session.Session, bookID string) (cart.AddOutcome, error) {
	if err := sess.Require(); err != nil {
		return "", err
	}
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return "", cart.ErrInvalidBookID
	}

	err := uc.repo.Insert(ctx, &cart.Entry{UserID: sess.UserID, BookID: bookID, AddedAt: uc.now()})
	switch {
	case err == nil:
		return cart.Added, nil
	case errors.Is(err, apperrors.ErrAlreadyInCart):
		return cart.AlreadyInCart, nil
	}
	return "", err
}

// RemoveFromCart 移出购物车
func (uc *UseCase) RemoveFromCart(ctx context.Context, sess session.Session, bookID string) (cart.RemoveOutcome, error) {
	if err := sess.Require(); err != nil {
		return "", err
	}
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return "", cart.ErrInvalidBookID
	}

	err := uc.repo.Delete(ctx, sess.UserID, bookID)
	switch {
	case err == nil:
		return cart.Removed, nil
	case errors.Is(err, apperrors.ErrNotInCart):
		return cart.NotInCart, nil
	}
	return "", err
}

// GetCart 购物车内容，空购物车返回空切片
func (uc *UseCase) GetCart(ctx context.Context, sess session.Session) ([]cart.Entry, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	entries, err := uc.repo.List(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []cart.Entry{}
	}
	return entries, nil
}
