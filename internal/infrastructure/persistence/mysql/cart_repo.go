package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/usedbooks/internal/domain/cart"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

// cartRepository 购物车仓储实现(MySQL)
type cartRepository struct {
	db   *gorm.DB
	call remote.Caller
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB, call remote.Caller) cart.Repository {
	return &cartRepository{db: db, call: call}
}

// Insert 依赖联合主键保证集合语义,主键冲突即"已在购物车"
func (r *cartRepository) Insert(ctx context.Context, e *cart.Entry) error {
	model := &CartEntryModel{UserID: e.UserID, BookID: e.BookID, AddedAt: e.AddedAt}
	return r.call.Do(ctx, "mysql.cart.insert", func(ctx context.Context) error {
		if err := getDB(ctx, r.db).Create(model).Error; err != nil {
			if isDuplicateError(err) {
				return apperrors.ErrAlreadyInCart
			}
			return dbError(ctx, "加入购物车", err)
		}
		return nil
	})
}

// Delete 删除条目,影响行数为0即"不在购物车"
func (r *cartRepository) Delete(ctx context.Context, userID uint, bookID string) error {
	return r.call.Do(ctx, "mysql.cart.delete", func(ctx context.Context) error {
		result := getDB(ctx, r.db).Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&CartEntryModel{})
		if result.Error != nil {
			return dbError(ctx, "移出购物车", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotInCart
		}
		return nil
	})
}

// List 查询用户购物车,没有条目时返回空切片
func (r *cartRepository) List(ctx context.Context, userID uint) ([]cart.Entry, error) {
	var models []CartEntryModel
	err := r.call.Do(ctx, "mysql.cart.list", func(ctx context.Context) error {
		if err := getDB(ctx, r.db).Where("user_id = ?", userID).Order("added_at DESC").Find(&models).Error; err != nil {
			return dbError(ctx, "查询购物车", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := make([]cart.Entry, 0, len(models))
	for _, m := range models {
		entries = append(entries, cart.Entry{UserID: m.UserID, BookID: m.BookID, AddedAt: m.AddedAt})
	}
	return entries, nil
}
