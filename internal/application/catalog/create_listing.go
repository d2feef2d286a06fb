package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/book"
	"github.com/xiebiao/usedbooks/internal/domain/seller"
	"github.com/xiebiao/usedbooks/internal/domain/session"
	"github.com/xiebiao/usedbooks/internal/domain/stock"
	"github.com/xiebiao/usedbooks/pkg/metrics"
	"github.com/xiebiao/usedbooks/pkg/saga"
	"github.com/xiebiao/usedbooks/pkg/tracing"
)

const tracerName = "usedbooks/catalog"

// CreateListingUseCase 上架图书
//
// Saga：写图书 → 写库存 → 解析卖家 → 关联卖家。
// 任一步失败按逆序删除库存记录和图书。
type CreateListingUseCase struct {
	books       book.Service
	bookRepo    book.Repository
	cache       book.Cache
	ledger      stock.Ledger
	sellers     *seller.Directory
	logger      *zap.Logger
	sagaTimeout time.Duration
}

// NewCreateListingUseCase 创建上架用例
func NewCreateListingUseCase(
	books book.Service,
	bookRepo book.Repository,
	cache book.Cache,
	ledger stock.Ledger,
	sellers *seller.Directory,
	logger *zap.Logger,
	sagaTimeout time.Duration,
) *CreateListingUseCase {
	return &CreateListingUseCase{
		books:       books,
		bookRepo:    bookRepo,
		cache:       cache,
		ledger:      ledger,
		sellers:     sellers,
		logger:      logger,
		sagaTimeout: sagaTimeout,
	}
}

// CreateListingRequest 上架请求
type CreateListingRequest struct {
	Name            string
	ISBN            string
	Author          string
	Description     string
	Category        string
	Language        string
	PublicationYear int
	Price           decimal.Decimal
	CoverPics       []string
	Quantity        int64
}

// Execute 执行上架
func (uc *CreateListingUseCase) Execute(ctx context.Context, sess session.Session, req CreateListingRequest) (resp *BookDTO, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreateListing")
	defer func() { tracing.EndSpan(span, err) }()

	if err := sess.Require(); err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, book.ErrInvalidQuantity
	}

	var (
		b        *book.Book
		sellerID string
	)

	s := saga.NewSaga("create_listing", uc.sagaTimeout,
		saga.WithLogger(uc.logger),
		saga.OnCompensated(func(step string) {
			metrics.IncCounterVec(metrics.SagaCompensationsTotal, map[string]string{"saga": "create_listing", "step": step, "result": "ok"})
		}),
		saga.OnCompensationFailed(func(step string, cerr error) {
			metrics.IncCounterVec(metrics.SagaCompensationsTotal, map[string]string{"saga": "create_listing", "step": step, "result": "failed"})
		}),
	)
	s.AddStep("create_book",
		func(ctx context.Context) error {
			var err error
			b, err = uc.books.PublishBook(ctx, book.NewBookParams{
				Name:            req.Name,
				ISBN:            req.ISBN,
				Author:          req.Author,
				Description:     req.Description,
				Category:        req.Category,
				Language:        req.Language,
				PublicationYear: req.PublicationYear,
				Price:           req.Price,
				CoverPics:       req.CoverPics,
			})
			return err
		},
		func(ctx context.Context) error {
			return uc.bookRepo.Delete(ctx, b.ID)
		},
	)
	s.AddStep("set_stock",
		func(ctx context.Context) error {
			return uc.ledger.Set(ctx, b.ID, req.Quantity)
		},
		func(ctx context.Context) error {
			return uc.ledger.Delete(ctx, b.ID)
		},
	)
	s.AddStep("resolve_seller", func(ctx context.Context) error {
		var err error
		sellerID, err = uc.sellers.ResolveOrCreateSeller(ctx, sess)
		return err
	}, nil)
	s.AddStep("attach_book", func(ctx context.Context) error {
		if err := uc.bookRepo.SetSeller(ctx, b.ID, sellerID); err != nil {
			return err
		}
		return uc.sellers.AttachBook(ctx, sellerID, b.ID)
	}, nil)

	if err := s.Execute(ctx); err != nil {
		if sagaErr, ok := saga.AsError(err); ok {
			return nil, sagaErr.Cause
		}
		return nil, err
	}

	b.SellerID = sellerID
	if uc.cache != nil {
		if err := uc.cache.Delete(ctx, b.ID); err != nil {
			uc.logger.Warn("book cache invalidate failed", zap.String("book_id", b.ID), zap.Error(err))
		}
	}

	metrics.IncCounter(metrics.ListingsCreatedTotal)
	uc.logger.Info("listing created",
		zap.String("book_id", b.ID),
		zap.String("seller_id", sellerID),
		zap.Int64("quantity", req.Quantity),
	)

	qty := req.Quantity
	return toBookDTO(b, &qty), nil
}
