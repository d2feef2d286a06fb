// Package stock 图书库存账本
//
// 库存是独立于Book记录的非负整数,按图书ID存放在实时KV存储中。
// 唯一的扣减入口是Decrement,检查与扣减在存储端原子完成,不存在"先读后写"的路径。
package stock

import (
	"context"
	"time"
)

// Change 库存变更推送
type Change struct {
	BookID    string    `json:"book_id"`
	Quantity  int64     `json:"quantity"`
	ChangedAt time.Time `json:"changed_at"`
}

// Ledger 库存账本
type Ledger interface {
	// Get 读取当前库存
	// 无记录返回ErrStockNotFound;存储值不是非负整数返回ErrDataCorruption
	Get(ctx context.Context, bookID string) (int64, error)

	// Set 设置库存(上架时初始化),qty<0返回ErrInvalidQuantity
	Set(ctx context.Context, bookID string, qty int64) error

	// Decrement 原子扣减,返回剩余库存
	// 失败:ErrStockNotFound / ErrInsufficientStock / ErrDataCorruption;
	// qty<=0或bookID为空返回ErrInvalidQuantity
	Decrement(ctx context.Context, bookID string, qty int64) (int64, error)

	// Restore 补偿:把orderID对应的扣减数量加回去(只在记录存在时执行)
	// 同一orderID只生效一次,重放返回nil且库存不变
	Restore(ctx context.Context, bookID, orderID string, qty int64) error

	// Delete 删除库存记录(只用于上架失败的补偿)
	Delete(ctx context.Context, bookID string) error

	// Subscribe 订阅库存变化,返回的cancel用于退订
	Subscribe(ctx context.Context, bookID string) (<-chan Change, func(), error)
}
