package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/usedbooks/internal/application/order"
	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/internal/domain/stock"
	"github.com/xiebiao/usedbooks/internal/domain/stock/stocktest"
	boltstore "github.com/xiebiao/usedbooks/internal/infrastructure/persistence/bolt"
)

func TestStockSetAndGet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ledger := stocktest.NewMemoryLedger()
	require.NoError(t, ledger.Set(ctx, "b1", 1))

	changes, unsubscribe, err := ledger.Subscribe(ctx, "b1")
	require.NoError(t, err)
	defer unsubscribe()

	var out bytes.Buffer
	require.NoError(t, stockSet(ctx, &out, ledger, "b1", 7))
	assert.Equal(t, "b1\t7\n", out.String())

	select {
	case c := <-changes:
		assert.Equal(t, int64(7), c.Quantity)
	case <-time.After(time.Second):
		t.Fatal("设置库存没有推送给订阅者")
	}

	out.Reset()
	require.NoError(t, stockGet(ctx, &out, ledger, "b1"))
	assert.Equal(t, "b1\t7\n", out.String())

	out.Reset()
	assert.ErrorIs(t, stockGet(ctx, &out, ledger, "missing"), stock.ErrStockNotFound)
	assert.Empty(t, out.String())
}

// leftoverOrders 只记录删除了哪些残留订单
type leftoverOrders struct {
	order.Repository
	deleted []string
}

func (r *leftoverOrders) Delete(_ context.Context, loc order.Location, id string) error {
	r.deleted = append(r.deleted, string(loc)+"/"+id)
	return nil
}

func TestRunReconcile(t *testing.T) {
	ctx := context.Background()
	db, err := boltstore.Open(filepath.Join(t.TempDir(), "journal.db"), time.Second)
	require.NoError(t, err)
	journal := boltstore.NewJournal(db, zap.NewNop())
	defer journal.Close()

	ledger := stocktest.NewMemoryLedger()
	require.NoError(t, ledger.Set(ctx, "b1", 1))
	require.NoError(t, journal.Record(ctx, &order.PendingFix{Kind: order.FixRestoreStock, OrderID: "7_b1_1_aa", BookID: "b1", Quantity: 2}))
	require.NoError(t, journal.Record(ctx, &order.PendingFix{Kind: order.FixDeleteOrder, OrderID: "7_b1_1_aa", Location: order.LocationSeller}))

	orders := &leftoverOrders{}
	reconciler := apporder.NewReconciler(journal, orders, ledger, 3, zap.NewNop())

	var out bytes.Buffer
	require.NoError(t, runReconcile(ctx, &out, reconciler))

	var res apporder.ReconcileResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 2, res.Resolved)
	assert.Zero(t, res.Remaining)
	assert.Equal(t, []string{string(order.LocationSeller) + "/7_b1_1_aa"}, orders.deleted)

	qty, err := ledger.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), qty)

	// 日志已清空，再跑一轮什么都不做
	out.Reset()
	require.NoError(t, runReconcile(ctx, &out, reconciler))
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Zero(t, res.Resolved)
	qty, err = ledger.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), qty)
}
