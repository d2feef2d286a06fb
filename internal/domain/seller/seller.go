// Package seller 卖家目录
//
// 卖家ID由用户ID确定性生成,创建是按主键的upsert,
// 同一用户并发首次上架不会产生重复卖家。
package seller

import (
	"context"
	"fmt"
	"time"

	"github.com/xiebiao/usedbooks/internal/domain/session"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

// Seller 卖家
type Seller struct {
	ID        string
	UserID    uint
	Email     string
	Name      string
	CreatedAt time.Time
}

// ErrSellerNotFound 卖家不存在
var ErrSellerNotFound = apperrors.ErrSellerNotFound

// IDForUser 由用户ID得到卖家ID
func IDForUser(userID uint) string {
	return fmt.Sprintf("seller-%d", userID)
}

// Repository 卖家仓储
type Repository interface {
	// Upsert 按ID插入,已存在时只更新邮箱和名称
	Upsert(ctx context.Context, s *Seller) error

	// FindByEmail 不存在返回ErrSellerNotFound
	FindByEmail(ctx context.Context, email string) (*Seller, error)

	// AttachBook 记录卖家拥有某本书(重复调用无副作用)
	AttachBook(ctx context.Context, sellerID, bookID string) error

	// DetachBook 取消关联(只用于上架失败的补偿)
	DetachBook(ctx context.Context, sellerID, bookID string) error

	// FindOwner 查询图书的卖家,没有时found=false
	FindOwner(ctx context.Context, bookID string) (sellerID string, found bool, err error)
}

// Directory 卖家目录
type Directory struct {
	repo Repository
	now  func() time.Time
}

// NewDirectory 创建卖家目录
func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo, now: time.Now}
}

// ResolveOrCreateSeller 返回当前用户的卖家ID,不存在则创建
func (d *Directory) ResolveOrCreateSeller(ctx context.Context, sess session.Session) (string, error) {
	if err := sess.Require(); err != nil {
		return "", err
	}
	s := &Seller{
		ID:        IDForUser(sess.UserID),
		UserID:    sess.UserID,
		Email:     sess.Email,
		Name:      sess.DisplayName,
		CreatedAt: d.now(),
	}
	if err := d.repo.Upsert(ctx, s); err != nil {
		return "", err
	}
	return s.ID, nil
}

// FindSellerForBook 查询图书的卖家
// 找不到是正常结果(found=false, err=nil)
func (d *Directory) FindSellerForBook(ctx context.Context, bookID string) (string, bool, error) {
	return d.repo.FindOwner(ctx, bookID)
}

// AttachBook 关联卖家与图书
func (d *Directory) AttachBook(ctx context.Context, sellerID, bookID string) error {
	return d.repo.AttachBook(ctx, sellerID, bookID)
}

// DetachBook 取消关联
func (d *Directory) DetachBook(ctx context.Context, sellerID, bookID string) error {
	return d.repo.DetachBook(ctx, sellerID, bookID)
}

// FindByEmail 按邮箱查找卖家
func (d *Directory) FindByEmail(ctx context.Context, email string) (*Seller, error) {
	if email == "" {
		return nil, ErrSellerNotFound
	}
	return d.repo.FindByEmail(ctx, email)
}
