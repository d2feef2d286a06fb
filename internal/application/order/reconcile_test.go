package order

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/internal/domain/stock/stocktest"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

func TestReconciler_RunOnce(t *testing.T) {
	ctx := context.Background()
	journal := newMemJournal()
	orders := newMemOrders()
	ledger := stocktest.NewMemoryLedger()
	require.NoError(t, ledger.Set(ctx, "b1", 1))

	leftover := placeOrder(t, orders, "seller-3")
	require.NoError(t, journal.Record(ctx, &order.PendingFix{Kind: order.FixDeleteOrder, OrderID: leftover.ID, Location: order.LocationSeller}))
	require.NoError(t, journal.Record(ctx, &order.PendingFix{Kind: order.FixRestoreStock, OrderID: "7_b1_1_aa", BookID: "b1", Quantity: 2}))

	r := NewReconciler(journal, orders, ledger, 3, zap.NewNop())
	res, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Resolved)
	assert.Zero(t, res.Remaining)

	qty, err := ledger.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), qty)
	assert.Zero(t, orders.count(order.LocationSeller))

	left, err := journal.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestReconciler_RetriesThenGivesUp(t *testing.T) {
	ctx := context.Background()
	journal := newMemJournal()
	orders := newMemOrders()
	orders.deleteErr[order.LocationBuyer] = errors.New("still down")
	require.NoError(t, journal.Record(ctx, &order.PendingFix{Kind: order.FixDeleteOrder, OrderID: "o1", Location: order.LocationBuyer}))

	r := NewReconciler(journal, orders, stocktest.NewMemoryLedger(), 2, zap.NewNop())

	for i := 0; i < 2; i++ {
		res, err := r.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
	}

	res, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.GaveUp)
	assert.Equal(t, 1, res.Remaining)

	fixes, err := journal.List(ctx)
	require.NoError(t, err)
	require.Len(t, fixes, 1)
	assert.Equal(t, 2, fixes[0].Attempts)
	assert.Equal(t, "still down", fixes[0].Reason)
}

func TestReconciler_MissingStockRecordIsResolved(t *testing.T) {
	ctx := context.Background()
	journal := newMemJournal()
	require.NoError(t, journal.Record(ctx, &order.PendingFix{Kind: order.FixRestoreStock, OrderID: "7_gone_1_aa", BookID: "gone", Quantity: 1}))

	res, err := NewReconciler(journal, newMemOrders(), stocktest.NewMemoryLedger(), 0, zap.NewNop()).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Resolved)
}

// appliedButTimedOutLedger 加回在存储端已生效，但调用方收到超时
type appliedButTimedOutLedger struct {
	*stocktest.MemoryLedger
}

func (l appliedButTimedOutLedger) Restore(ctx context.Context, bookID, orderID string, qty int64) error {
	if err := l.MemoryLedger.Restore(ctx, bookID, orderID, qty); err != nil {
		return err
	}
	return apperrors.ErrTimeout
}

func TestReconciler_ReplayedRestoreDoesNotOvercount(t *testing.T) {
	f := newPurchaseFixture(t)
	f.listed(t, "b1", 5)
	f.ledger = appliedButTimedOutLedger{f.mem}
	f.build()
	f.orders.saveErr[order.LocationGlobal] = errors.New("global down")

	_, err := f.uc.Execute(context.Background(), buyer, req("b1", 2))
	require.Error(t, err)
	require.Len(t, f.journal.byKind(order.FixRestoreStock), 1)
	assert.Equal(t, int64(5), f.stock(t, "b1"))

	res, err := NewReconciler(f.journal, f.orders, f.mem, 3, zap.NewNop()).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Resolved)
	assert.Equal(t, int64(5), f.stock(t, "b1"), "重放补偿不能让库存超过售出前")

	// 再跑一轮也不变
	_, err = NewReconciler(f.journal, f.orders, f.mem, 3, zap.NewNop()).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.stock(t, "b1"))
}
