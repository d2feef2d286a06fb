package catalog

import (
	"context"

	"github.com/xiebiao/usedbooks/internal/domain/stock"
)

// WatchStockUseCase 订阅图书库存变化
type WatchStockUseCase struct {
	ledger stock.Ledger
}

// NewWatchStockUseCase 创建订阅用例
func NewWatchStockUseCase(ledger stock.Ledger) *WatchStockUseCase {
	return &WatchStockUseCase{ledger: ledger}
}

// StockWatch 一次订阅
// Initial是订阅建立后的当前库存，之后的变化从Changes读取；用完必须调用Cancel
type StockWatch struct {
	Initial int64
	Changes <-chan stock.Change
	Cancel  func()
}

// Execute 先订阅再读当前值，两者之间发生的变化不会丢
func (uc *WatchStockUseCase) Execute(ctx context.Context, bookID string) (*StockWatch, error) {
	changes, cancel, err := uc.ledger.Subscribe(ctx, bookID)
	if err != nil {
		return nil, err
	}

	qty, err := uc.ledger.Get(ctx, bookID)
	if err != nil {
		cancel()
		return nil, err
	}
	return &StockWatch{Initial: qty, Changes: changes, Cancel: cancel}, nil
}
