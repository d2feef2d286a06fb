// Package catalog 图书目录用例：列表、详情、上架、库存实时推送
package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiebiao/usedbooks/internal/domain/book"
	"github.com/xiebiao/usedbooks/internal/domain/stock"
)

// 列表页并发读取库存的上限
const stockLookupConcurrency = 8

// ListBooksUseCase 图书列表
type ListBooksUseCase struct {
	books  book.Service
	ledger stock.Ledger
	logger *zap.Logger
}

// NewListBooksUseCase 创建列表用例
func NewListBooksUseCase(books book.Service, ledger stock.Ledger, logger *zap.Logger) *ListBooksUseCase {
	return &ListBooksUseCase{books: books, ledger: ledger, logger: logger}
}

// ListBooksRequest 列表查询请求
type ListBooksRequest struct {
	Page     int
	PageSize int
	Keyword  string // 匹配书名、作者
	Category string
}

// ListBooksResponse 列表查询响应
type ListBooksResponse struct {
	List     []*BookDTO
	Total    int64
	Page     int
	PageSize int
}

// Execute 执行列表查询
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	params := book.ListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
		Category: req.Category,
	}
	params.Normalize()

	books, total, err := uc.books.ListBooks(ctx, params)
	if err != nil {
		return nil, err
	}

	list := make([]*BookDTO, len(books))
	// 单本库存查询失败只影响该本的库存字段
	var g errgroup.Group
	g.SetLimit(stockLookupConcurrency)
	for i, b := range books {
		g.Go(func() error {
			list[i] = toBookDTO(b, lookupStock(ctx, uc.ledger, uc.logger, b.ID))
			return nil
		})
	}
	g.Wait()

	return &ListBooksResponse{
		List:     list,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}

// lookupStock 读取库存，读不到返回nil（列表和详情页不因库存不可用而失败）
func lookupStock(ctx context.Context, ledger stock.Ledger, logger *zap.Logger, bookID string) *int64 {
	qty, err := ledger.Get(ctx, bookID)
	if err != nil {
		if !errors.Is(err, stock.ErrStockNotFound) {
			logger.Warn("stock lookup failed", zap.String("book_id", bookID), zap.Error(err))
		}
		return nil
	}
	return &qty
}
