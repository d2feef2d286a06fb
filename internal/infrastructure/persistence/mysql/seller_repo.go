package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/usedbooks/internal/domain/seller"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

// sellerRepository 卖家仓储实现(MySQL)
type sellerRepository struct {
	db   *gorm.DB
	call remote.Caller
}

// NewSellerRepository 创建卖家仓储
func NewSellerRepository(db *gorm.DB, call remote.Caller) seller.Repository {
	return &sellerRepository{db: db, call: call}
}

// Upsert INSERT ... ON DUPLICATE KEY UPDATE email, name
// 主键是确定性的seller-{userID},并发调用只会产生一行
func (r *sellerRepository) Upsert(ctx context.Context, s *seller.Seller) error {
	model := &SellerModel{
		ID:        s.ID,
		UserID:    s.UserID,
		Email:     s.Email,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.CreatedAt,
	}
	return r.call.Do(ctx, "mysql.seller.upsert", func(ctx context.Context) error {
		err := getDB(ctx, r.db).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "updated_at"}),
		}).Create(model).Error
		if err != nil {
			return dbError(ctx, "写入卖家", err)
		}
		return nil
	})
}

// FindByEmail 按邮箱查找卖家
func (r *sellerRepository) FindByEmail(ctx context.Context, email string) (*seller.Seller, error) {
	var model SellerModel
	err := r.call.Do(ctx, "mysql.seller.find_by_email", func(ctx context.Context) error {
		err := getDB(ctx, r.db).Where("email = ?", email).Order("created_at").First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return seller.ErrSellerNotFound
			}
			return dbError(ctx, "查询卖家", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &seller.Seller{
		ID:        model.ID,
		UserID:    model.UserID,
		Email:     model.Email,
		Name:      model.Name,
		CreatedAt: model.CreatedAt,
	}, nil
}

// AttachBook 关联图书,重复关联同一卖家不报错
func (r *sellerRepository) AttachBook(ctx context.Context, sellerID, bookID string) error {
	return r.call.Do(ctx, "mysql.seller.attach_book", func(ctx context.Context) error {
		err := getDB(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).
			Create(&SellerBookModel{BookID: bookID, SellerID: sellerID}).Error
		if err != nil {
			return dbError(ctx, "关联卖家图书", err)
		}
		return nil
	})
}

// DetachBook 取消关联
func (r *sellerRepository) DetachBook(ctx context.Context, sellerID, bookID string) error {
	return r.call.Do(ctx, "mysql.seller.detach_book", func(ctx context.Context) error {
		err := getDB(ctx, r.db).Where("book_id = ? AND seller_id = ?", bookID, sellerID).
			Delete(&SellerBookModel{}).Error
		if err != nil {
			return dbError(ctx, "取消关联卖家图书", err)
		}
		return nil
	})
}

// FindOwner 查询图书的卖家
func (r *sellerRepository) FindOwner(ctx context.Context, bookID string) (string, bool, error) {
	var (
		model SellerBookModel
		found bool
	)
	err := r.call.Do(ctx, "mysql.seller.find_owner", func(ctx context.Context) error {
		err := getDB(ctx, r.db).Where("book_id = ?", bookID).First(&model).Error
		switch {
		case err == nil:
			found = true
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil
		}
		return dbError(ctx, "查询图书卖家", err)
	})
	if err != nil || !found {
		return "", false, err
	}
	return model.SellerID, true, nil
}
