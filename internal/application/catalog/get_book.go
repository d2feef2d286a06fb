package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/book"
	"github.com/xiebiao/usedbooks/internal/domain/stock"
)

// GetBookUseCase 图书详情（读穿透缓存）
type GetBookUseCase struct {
	books  book.Service
	cache  book.Cache
	ledger stock.Ledger
	ttl    time.Duration
	logger *zap.Logger
}

// NewGetBookUseCase 创建详情用例，cache可以为nil
func NewGetBookUseCase(books book.Service, cache book.Cache, ledger stock.Ledger, ttl time.Duration, logger *zap.Logger) *GetBookUseCase {
	return &GetBookUseCase{books: books, cache: cache, ledger: ledger, ttl: ttl, logger: logger}
}

// Execute 查询图书详情和当前库存
func (uc *GetBookUseCase) Execute(ctx context.Context, id string) (*BookDTO, error) {
	b, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toBookDTO(b, lookupStock(ctx, uc.ledger, uc.logger, b.ID)), nil
}

func (uc *GetBookUseCase) load(ctx context.Context, id string) (*book.Book, error) {
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, id)
		if err != nil {
			uc.logger.Warn("book cache read failed", zap.String("book_id", id), zap.Error(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	b, err := uc.books.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, b, uc.ttl); err != nil {
			uc.logger.Warn("book cache write failed", zap.String("book_id", id), zap.Error(err))
		}
	}
	return b, nil
}
