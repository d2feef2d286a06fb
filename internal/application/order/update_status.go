package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/internal/domain/seller"
	"github.com/xiebiao/usedbooks/internal/domain/session"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

// Transactor 事务执行器，由 mysql.TxManager 实现
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UpdateOrderStatusUseCase 卖家推进订单状态
// 三个位置在同一个数据库事务中更新，不会出现状态不一致
type UpdateOrderStatusUseCase struct {
	orders order.Repository
	tx     Transactor
	logger *zap.Logger
	now    func() time.Time
}

// NewUpdateOrderStatusUseCase 创建状态更新用例
func NewUpdateOrderStatusUseCase(orders order.Repository, tx Transactor, logger *zap.Logger) *UpdateOrderStatusUseCase {
	return &UpdateOrderStatusUseCase{orders: orders, tx: tx, logger: logger, now: time.Now}
}

// UpdateOrderStatusRequest 状态更新请求
type UpdateOrderStatusRequest struct {
	OrderID string
	Status  string
}

// Execute 执行状态更新
func (uc *UpdateOrderStatusUseCase) Execute(ctx context.Context, sess session.Session, req UpdateOrderStatusRequest) (*OrderDTO, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	target, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	o, err := uc.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.IsSoldBy(seller.IDForUser(sess.UserID)) {
		return nil, apperrors.ErrForbidden
	}

	from := o.Status
	if err := o.TransitionTo(target, uc.now()); err != nil {
		return nil, err
	}

	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		for _, loc := range order.AllLocations() {
			if err := uc.orders.UpdateStatus(txCtx, loc, o.ID, o.Status, o.UpdatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("order status updated",
		zap.String("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
	)
	return toOrderDTO(o), nil
}
