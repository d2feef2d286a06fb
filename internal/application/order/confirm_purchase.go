package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiebiao/usedbooks/internal/domain/book"
	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/internal/domain/seller"
	"github.com/xiebiao/usedbooks/internal/domain/session"
	"github.com/xiebiao/usedbooks/internal/domain/stock"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
	"github.com/xiebiao/usedbooks/pkg/metrics"
	"github.com/xiebiao/usedbooks/pkg/remote"
	"github.com/xiebiao/usedbooks/pkg/saga"
	"github.com/xiebiao/usedbooks/pkg/tracing"
)

const (
	tracerName = "usedbooks/order"

	stepDecrementStock = "decrement_stock"
	stepWriteOrders    = "write_orders"
)

// ConfirmPurchaseUseCase 确认购买
//
// 流程：
//  1. 会话校验
//  2. 读取库存，不足直接拒绝（只是提前失败，最终以原子扣减为准）
//  3. 查询卖家，找不到时库存不动
//  4. Lua脚本原子扣减库存
//  5. 并发写入买家、卖家、全局三处订单
//
// 4、5组成Saga：三处写入有任一失败，先删掉已写成功的位置，再加回库存。
// 补偿本身失败的记录到对账日志，由对账任务重试。
type ConfirmPurchaseUseCase struct {
	ledger      stock.Ledger
	sellers     *seller.Directory
	books       book.Service
	orders      order.Repository
	journal     order.Journal
	publisher   order.Publisher
	logger      *zap.Logger
	sagaTimeout time.Duration
	now         func() time.Time
}

// NewConfirmPurchaseUseCase 创建确认购买用例
func NewConfirmPurchaseUseCase(
	ledger stock.Ledger,
	sellers *seller.Directory,
	books book.Service,
	orders order.Repository,
	journal order.Journal,
	publisher order.Publisher,
	logger *zap.Logger,
	sagaTimeout time.Duration,
) *ConfirmPurchaseUseCase {
	return &ConfirmPurchaseUseCase{
		ledger:      ledger,
		sellers:     sellers,
		books:       books,
		orders:      orders,
		journal:     journal,
		publisher:   publisher,
		logger:      logger,
		sagaTimeout: sagaTimeout,
		now:         time.Now,
	}
}

// ConfirmPurchaseRequest 确认购买请求
// BookName/UnitPrice 由客户端提交；图书在目录中存在时以目录为准
type ConfirmPurchaseRequest struct {
	BookID    string
	Quantity  int64
	BookName  string
	UnitPrice decimal.Decimal
}

// Execute 执行确认购买
func (uc *ConfirmPurchaseUseCase) Execute(ctx context.Context, sess session.Session, req ConfirmPurchaseRequest) (resp *OrderDTO, err error) {
	start := uc.now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "ConfirmPurchase")
	defer func() {
		tracing.EndSpan(span, err)
		metrics.IncCounterVec(metrics.PurchasesTotal, map[string]string{"result": purchaseResult(err)})
		metrics.ObserveHistogram(metrics.PurchaseDuration, uc.now().Sub(start).Seconds())
	}()

	if err := sess.Require(); err != nil {
		return nil, err
	}
	if err := stock.ValidateDecrement(req.BookID, req.Quantity); err != nil {
		return nil, err
	}

	current, err := uc.ledger.Get(ctx, req.BookID)
	if err != nil {
		return nil, err
	}
	if req.Quantity > current {
		return nil, stock.ErrInsufficientStock
	}

	sellerID, found, err := uc.sellers.FindSellerForBook(ctx, req.BookID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, seller.ErrSellerNotFound
	}

	bookName, unitPrice, err := uc.pricing(ctx, req)
	if err != nil {
		return nil, err
	}

	o, err := order.NewOrder(sess.UserID, sess.Email, sellerID, req.BookID, bookName, req.Quantity, unitPrice, uc.now())
	if err != nil {
		return nil, err
	}

	s := saga.NewSaga("confirm_purchase", uc.sagaTimeout,
		saga.WithLogger(uc.logger),
		saga.OnCompensated(func(step string) {
			metrics.IncCounterVec(metrics.SagaCompensationsTotal, map[string]string{"saga": "confirm_purchase", "step": step, "result": "ok"})
		}),
		saga.OnCompensationFailed(func(step string, cerr error) {
			metrics.IncCounterVec(metrics.SagaCompensationsTotal, map[string]string{"saga": "confirm_purchase", "step": step, "result": "failed"})
			if step == stepDecrementStock {
				uc.record(&order.PendingFix{
					Kind:     order.FixRestoreStock,
					OrderID:  o.ID,
					BookID:   o.BookID,
					Quantity: o.Quantity,
					Reason:   cerr.Error(),
				})
			}
		}),
	)
	s.AddStep(stepDecrementStock,
		func(ctx context.Context) error {
			_, err := uc.ledger.Decrement(ctx, o.BookID, o.Quantity)
			return err
		},
		func(ctx context.Context) error {
			return uc.ledger.Restore(ctx, o.BookID, o.ID, o.Quantity)
		},
	)
	// 最后一步失败时Saga不会补偿它自己，writeAll内部负责清理已写入的位置
	s.AddStep(stepWriteOrders, func(ctx context.Context) error {
		return uc.writeAll(ctx, o)
	}, nil)

	if err := s.Execute(ctx); err != nil {
		if sagaErr, ok := saga.AsError(err); ok {
			return nil, sagaErr.Cause
		}
		return nil, err
	}

	uc.logger.Info("purchase confirmed",
		zap.String("order_id", o.ID),
		zap.Uint("buyer_id", o.BuyerID),
		zap.String("seller_id", o.SellerID),
		zap.String("book_id", o.BookID),
		zap.Int64("quantity", o.Quantity),
		zap.String("total", o.TotalPrice.StringFixed(2)),
	)

	if uc.publisher != nil {
		if perr := uc.publisher.PublishCreated(ctx, o); perr != nil {
			uc.logger.Warn("publish order.created failed", zap.String("order_id", o.ID), zap.Error(perr))
		}
	}

	return toOrderDTO(o), nil
}

// pricing 确定书名和单价
func (uc *ConfirmPurchaseUseCase) pricing(ctx context.Context, req ConfirmPurchaseRequest) (string, decimal.Decimal, error) {
	if uc.books != nil {
		b, err := uc.books.GetBookByID(ctx, req.BookID)
		switch {
		case err == nil:
			return b.Name, b.Price, nil
		case !errors.Is(err, book.ErrBookNotFound):
			return "", decimal.Zero, err
		}
	}
	if req.UnitPrice.IsNegative() {
		return "", decimal.Zero, order.ErrInvalidPrice
	}
	return req.BookName, req.UnitPrice, nil
}

// writeAll 并发写入三个位置
// 不使用errgroup.WithContext：一处失败不取消其他写入，才能确切知道哪些位置写成功了
func (uc *ConfirmPurchaseUseCase) writeAll(ctx context.Context, o *order.Order) error {
	var (
		mu      sync.Mutex
		written []order.Location
		g       errgroup.Group
	)
	for _, loc := range order.AllLocations() {
		g.Go(func() error {
			if err := uc.orders.Save(ctx, loc, o); err != nil {
				return fmt.Errorf("写入%s订单失败: %w", loc, err)
			}
			mu.Lock()
			written = append(written, loc)
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		return nil
	}

	uc.logger.Error("order fan-out partially failed",
		zap.String("order_id", o.ID),
		zap.Int("written", len(written)),
		zap.Error(err),
	)
	uc.cleanup(ctx, o.ID, written)
	return err
}

// cleanup 删除已写入的位置，删除失败的记录到对账日志
func (uc *ConfirmPurchaseUseCase) cleanup(parent context.Context, orderID string, written []order.Location) {
	ctx, cancel := uc.compensationContext(parent)
	defer cancel()
	for _, loc := range written {
		if err := uc.orders.Delete(ctx, loc, orderID); err != nil {
			metrics.IncCounterVec(metrics.SagaCompensationsTotal, map[string]string{"saga": "confirm_purchase", "step": stepWriteOrders, "result": "failed"})
			uc.logger.Error("delete partial order failed",
				zap.String("order_id", orderID),
				zap.String("location", string(loc)),
				zap.Error(err),
			)
			uc.record(&order.PendingFix{
				Kind:     order.FixDeleteOrder,
				OrderID:  orderID,
				Location: loc,
				Reason:   err.Error(),
			})
			continue
		}
		metrics.IncCounterVec(metrics.SagaCompensationsTotal, map[string]string{"saga": "confirm_purchase", "step": stepWriteOrders, "result": "ok"})
	}
}

func (uc *ConfirmPurchaseUseCase) record(fix *order.PendingFix) {
	if uc.journal == nil {
		uc.logger.Error("pending fix dropped: no journal configured",
			zap.String("kind", string(fix.Kind)),
			zap.String("order_id", fix.OrderID),
			zap.String("book_id", fix.BookID),
		)
		return
	}
	ctx, cancel := uc.compensationContext(context.Background())
	defer cancel()
	if err := uc.journal.Record(ctx, fix); err != nil {
		uc.logger.Error("record pending fix failed",
			zap.String("kind", string(fix.Kind)),
			zap.String("order_id", fix.OrderID),
			zap.Error(err),
		)
	}
}

// compensationContext 不跟随请求取消，但有独立的超时上限
func (uc *ConfirmPurchaseUseCase) compensationContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := uc.sagaTimeout
	if timeout <= 0 {
		timeout = remote.DefaultTimeout
	}
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}

func purchaseResult(err error) string {
	switch apperrors.KindOf(err) {
	case "":
		return "success"
	case apperrors.KindInsufficientStock:
		return "insufficient_stock"
	case apperrors.KindSellerNotFound:
		return "seller_not_found"
	case apperrors.KindUnauthenticated:
		return "unauthenticated"
	}
	return "failed"
}
