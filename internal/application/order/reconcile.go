package order

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/internal/domain/stock"
	"github.com/xiebiao/usedbooks/pkg/metrics"
)

// Reconciler 对账任务
// 重放对账日志中的待修复项（补偿失败留下的残留订单、未加回的库存）
type Reconciler struct {
	journal     order.Journal
	orders      order.Repository
	ledger      stock.Ledger
	maxAttempts int
	logger      *zap.Logger
}

// NewReconciler 创建对账任务，maxAttempts<=0 表示不限次数
func NewReconciler(journal order.Journal, orders order.Repository, ledger stock.Ledger, maxAttempts int, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		journal:     journal,
		orders:      orders,
		ledger:      ledger,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// ReconcileResult 一轮对账的结果
type ReconcileResult struct {
	Resolved  int `json:"resolved"`
	Failed    int `json:"failed"`
	GaveUp    int `json:"gave_up"` // 超过重试次数，等待人工处理
	Remaining int `json:"remaining"`
}

// RunOnce 执行一轮对账
func (r *Reconciler) RunOnce(ctx context.Context) (*ReconcileResult, error) {
	fixes, err := r.journal.List(ctx)
	if err != nil {
		return nil, err
	}

	res := &ReconcileResult{}
	for _, fix := range fixes {
		if r.maxAttempts > 0 && fix.Attempts >= r.maxAttempts {
			res.GaveUp++
			continue
		}

		if err := r.apply(ctx, fix); err != nil {
			fix.Attempts++
			fix.Reason = err.Error()
			if uerr := r.journal.Update(ctx, fix); uerr != nil {
				return res, uerr
			}
			r.logger.Warn("reconcile attempt failed",
				zap.String("fix_id", fix.ID),
				zap.String("kind", string(fix.Kind)),
				zap.Int("attempts", fix.Attempts),
				zap.Error(err),
			)
			res.Failed++
			continue
		}

		if err := r.journal.Resolve(ctx, fix.ID); err != nil {
			return res, err
		}
		metrics.IncCounter(metrics.ReconcileResolvedTotal)
		r.logger.Info("pending fix resolved", zap.String("fix_id", fix.ID), zap.String("kind", string(fix.Kind)))
		res.Resolved++
	}

	res.Remaining = res.Failed + res.GaveUp
	metrics.SetGauge(metrics.ReconcilePending, float64(res.Remaining))
	return res, nil
}

func (r *Reconciler) apply(ctx context.Context, fix *order.PendingFix) error {
	switch fix.Kind {
	case order.FixDeleteOrder:
		return r.orders.Delete(ctx, fix.Location, fix.OrderID)
	case order.FixRestoreStock:
		err := r.ledger.Restore(ctx, fix.BookID, fix.OrderID, fix.Quantity)
		if errors.Is(err, stock.ErrStockNotFound) {
			// 库存记录已被删除，没有可加回的对象
			r.logger.Error("stock record gone, restore skipped",
				zap.String("fix_id", fix.ID),
				zap.String("book_id", fix.BookID),
				zap.Int64("quantity", fix.Quantity),
			)
			return nil
		}
		return err
	}
	r.logger.Error("unknown pending fix kind, dropping", zap.String("fix_id", fix.ID), zap.String("kind", string(fix.Kind)))
	return nil
}

// Run 按固定间隔对账，直到ctx取消
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("reconcile worker started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconcile worker stopped")
			return
		case <-ticker.C:
			res, err := r.RunOnce(ctx)
			if err != nil {
				r.logger.Error("reconcile pass failed", zap.Error(err))
				continue
			}
			if res.Resolved > 0 || res.Remaining > 0 {
				r.logger.Info("reconcile pass finished",
					zap.Int("resolved", res.Resolved),
					zap.Int("remaining", res.Remaining),
				)
			}
		}
	}
}
