// Package stocktest 提供进程内的库存账本实现,供各层测试使用
package stocktest

import (
	"context"
	"sync"
	"time"

	"github.com/xiebiao/usedbooks/internal/domain/stock"
)

// MemoryLedger 进程内账本,语义与Redis实现一致
type MemoryLedger struct {
	mu          sync.Mutex
	counts      map[string]int64
	corrupted   map[string]bool
	restored    map[string]bool
	subscribers map[string][]chan stock.Change
}

var _ stock.Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger 创建进程内账本
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		counts:      make(map[string]int64),
		corrupted:   make(map[string]bool),
		restored:    make(map[string]bool),
		subscribers: make(map[string][]chan stock.Change),
	}
}

// Corrupt 把某本书的库存标记为非法值
func (l *MemoryLedger) Corrupt(bookID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[bookID] = 0
	l.corrupted[bookID] = true
}

func (l *MemoryLedger) Get(_ context.Context, bookID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getLocked(bookID)
}

func (l *MemoryLedger) getLocked(bookID string) (int64, error) {
	qty, ok := l.counts[bookID]
	if !ok {
		return 0, stock.ErrStockNotFound
	}
	if l.corrupted[bookID] {
		return 0, stock.ErrDataCorruption
	}
	return qty, nil
}

func (l *MemoryLedger) Set(_ context.Context, bookID string, qty int64) error {
	if bookID == "" || qty < 0 {
		return stock.ErrInvalidQuantity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[bookID] = qty
	delete(l.corrupted, bookID)
	l.publishLocked(bookID, qty)
	return nil
}

func (l *MemoryLedger) Decrement(_ context.Context, bookID string, qty int64) (int64, error) {
	if err := stock.ValidateDecrement(bookID, qty); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.getLocked(bookID)
	if err != nil {
		return 0, err
	}
	if current < qty {
		return current, stock.ErrInsufficientStock
	}
	l.counts[bookID] = current - qty
	l.publishLocked(bookID, current-qty)
	return current - qty, nil
}

func (l *MemoryLedger) Restore(_ context.Context, bookID, orderID string, qty int64) error {
	if err := stock.ValidateRestore(bookID, orderID, qty); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.getLocked(bookID)
	if err != nil {
		return err
	}
	if l.restored[orderID] {
		return nil
	}
	l.restored[orderID] = true
	l.counts[bookID] = current + qty
	l.publishLocked(bookID, current+qty)
	return nil
}

func (l *MemoryLedger) Delete(_ context.Context, bookID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, bookID)
	delete(l.corrupted, bookID)
	return nil
}

func (l *MemoryLedger) Subscribe(ctx context.Context, bookID string) (<-chan stock.Change, func(), error) {
	ch := make(chan stock.Change, 16)

	l.mu.Lock()
	l.subscribers[bookID] = append(l.subscribers[bookID], ch)
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			subs := l.subscribers[bookID]
			for i, c := range subs {
				if c == ch {
					l.subscribers[bookID] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}

// publishLocked 非阻塞推送,慢订阅者丢弃旧消息
func (l *MemoryLedger) publishLocked(bookID string, qty int64) {
	change := stock.Change{BookID: bookID, Quantity: qty, ChangedAt: time.Now()}
	for _, ch := range l.subscribers[bookID] {
		select {
		case ch <- change:
		default:
		}
	}
}
