package stocktest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/usedbooks/internal/domain/stock"
)

func TestMemoryLedger_Decrement(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	_, err := l.Decrement(ctx, "b1", 1)
	assert.ErrorIs(t, err, stock.ErrStockNotFound)

	require.NoError(t, l.Set(ctx, "b1", 5))
	left, err := l.Decrement(ctx, "b1", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), left)

	_, err = l.Decrement(ctx, "b1", 3)
	assert.ErrorIs(t, err, stock.ErrInsufficientStock)

	got, err := l.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	_, err = l.Decrement(ctx, "b1", 0)
	assert.ErrorIs(t, err, stock.ErrInvalidQuantity)
}

func TestMemoryLedger_NeverNegativeUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	require.NoError(t, l.Set(ctx, "b1", 10))

	var ok int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Decrement(ctx, "b1", 1); err == nil {
				atomic.AddInt64(&ok, 1)
			}
		}()
	}
	wg.Wait()

	left, err := l.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), ok)
	assert.Equal(t, int64(0), left)
}

func TestMemoryLedger_CorruptAndRestore(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	l.Corrupt("b1")
	_, err := l.Get(ctx, "b1")
	assert.ErrorIs(t, err, stock.ErrDataCorruption)

	assert.ErrorIs(t, l.Restore(ctx, "b1", "o0", 1), stock.ErrDataCorruption)
	assert.ErrorIs(t, l.Restore(ctx, "missing", "o1", 1), stock.ErrStockNotFound)

	require.NoError(t, l.Set(ctx, "b2", 1))
	require.NoError(t, l.Restore(ctx, "b2", "o2", 2))
	got, _ := l.Get(ctx, "b2")
	assert.Equal(t, int64(3), got)

	assert.ErrorIs(t, l.Restore(ctx, "b2", "", 2), stock.ErrMissingRestoreKey)
}

func TestMemoryLedger_RestoreIsIdempotentPerOrder(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	require.NoError(t, l.Set(ctx, "b1", 5))
	_, err := l.Decrement(ctx, "b1", 2)
	require.NoError(t, err)

	require.NoError(t, l.Restore(ctx, "b1", "o1", 2))
	require.NoError(t, l.Restore(ctx, "b1", "o1", 2))
	got, _ := l.Get(ctx, "b1")
	assert.Equal(t, int64(5), got, "重放不应重复加回")

	require.NoError(t, l.Restore(ctx, "b1", "o2", 1))
	got, _ = l.Get(ctx, "b1")
	assert.Equal(t, int64(6), got)
}

func TestMemoryLedger_Subscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := NewMemoryLedger()
	require.NoError(t, l.Set(ctx, "b1", 4))

	ch, unsubscribe, err := l.Subscribe(ctx, "b1")
	require.NoError(t, err)

	_, err = l.Decrement(ctx, "b1", 1)
	require.NoError(t, err)

	select {
	case c := <-ch:
		assert.Equal(t, "b1", c.BookID)
		assert.Equal(t, int64(3), c.Quantity)
	case <-time.After(time.Second):
		t.Fatal("未收到库存变更")
	}

	unsubscribe()
	_, open := <-ch
	assert.False(t, open)
}
