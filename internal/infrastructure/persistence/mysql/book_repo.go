package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/usedbooks/internal/domain/book"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

// bookRepository 图书仓储实现(MySQL)
type bookRepository struct {
	db   *gorm.DB
	call remote.Caller
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB, call remote.Caller) book.Repository {
	return &bookRepository{db: db, call: call}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)
	err := r.call.Do(ctx, "mysql.book.create", func(ctx context.Context) error {
		if err := getDB(ctx, r.db).Create(model).Error; err != nil {
			if isDuplicateError(err) {
				return book.ErrISBNDuplicate
			}
			return dbError(ctx, "创建图书", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.CreatedAt = model.CreatedAt
	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id string) (*book.Book, error) {
	var model BookModel
	err := r.call.Do(ctx, "mysql.book.find", func(ctx context.Context) error {
		err := getDB(ctx, r.db).Where("id = ?", id).First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return book.ErrBookNotFound
			}
			return dbError(ctx, "查询图书", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toBookEntity(&model), nil
}

// SetSeller 回填卖家ID
func (r *bookRepository) SetSeller(ctx context.Context, id, sellerID string) error {
	return r.call.Do(ctx, "mysql.book.set_seller", func(ctx context.Context) error {
		result := getDB(ctx, r.db).Model(&BookModel{}).Where("id = ?", id).Update("seller_id", sellerID)
		if result.Error != nil {
			return dbError(ctx, "更新图书卖家", result.Error)
		}
		if result.RowsAffected == 0 {
			return book.ErrBookNotFound
		}
		return nil
	})
}

// Delete 删除图书(硬删除,只用于补偿)
func (r *bookRepository) Delete(ctx context.Context, id string) error {
	return r.call.Do(ctx, "mysql.book.delete", func(ctx context.Context) error {
		if err := getDB(ctx, r.db).Where("id = ?", id).Delete(&BookModel{}).Error; err != nil {
			return dbError(ctx, "删除图书", err)
		}
		return nil
	})
}

// List 分页查询图书列表,按上架时间倒序
// 统计和分页查询共用一次调用的超时
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	params.Normalize()

	var (
		total  int64
		models []BookModel
	)
	err := r.call.Do(ctx, "mysql.book.list", func(ctx context.Context) error {
		query := getDB(ctx, r.db).Model(&BookModel{})
		if params.Keyword != "" {
			like := "%" + params.Keyword + "%"
			query = query.Where("name LIKE ? OR author LIKE ?", like, like)
		}
		if params.Category != "" {
			query = query.Where("category = ?", params.Category)
		}

		if err := query.Count(&total).Error; err != nil {
			return dbError(ctx, "统计图书数量", err)
		}
		if total == 0 {
			return nil
		}

		err := query.Order("created_at DESC").
			Offset(params.Offset()).
			Limit(params.PageSize).
			Find(&models).Error
		if err != nil {
			return dbError(ctx, "查询图书列表", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	books := make([]*book.Book, 0, len(models))
	for i := range models {
		books = append(books, toBookEntity(&models[i]))
	}
	return books, total, nil
}

func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:              b.ID,
		Name:            b.Name,
		ISBN:            b.ISBN,
		Author:          b.Author,
		Description:     b.Description,
		Category:        b.Category,
		Language:        b.Language,
		PublicationYear: b.PublicationYear,
		Price:           b.Price,
		CoverPics:       StringList(b.CoverPics),
		SellerID:        b.SellerID,
		CreatedAt:       b.CreatedAt,
	}
}

func toBookEntity(m *BookModel) *book.Book {
	pics := []string(m.CoverPics)
	if pics == nil {
		pics = []string{}
	}
	return &book.Book{
		ID:              m.ID,
		Name:            m.Name,
		ISBN:            m.ISBN,
		Author:          m.Author,
		Description:     m.Description,
		Category:        m.Category,
		Language:        m.Language,
		PublicationYear: m.PublicationYear,
		Price:           m.Price,
		CoverPics:       pics,
		SellerID:        m.SellerID,
		CreatedAt:       m.CreatedAt,
	}
}
