package order

import (
	"context"
	"time"
)

// FixKind 待修复动作类型
type FixKind string

const (
	FixDeleteOrder  FixKind = "delete_order"  // 删除残留在某个位置的订单
	FixRestoreStock FixKind = "restore_stock" // 把扣减的库存加回去
)

// PendingFix 补偿失败后记录的待修复项
type PendingFix struct {
	ID        string    `json:"id"`
	Kind      FixKind   `json:"kind"`
	OrderID   string    `json:"order_id,omitempty"`
	Location  Location  `json:"location,omitempty"`
	BookID    string    `json:"book_id,omitempty"`
	Quantity  int64     `json:"quantity,omitempty"`
	Status    Status    `json:"status,omitempty"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Journal 对账日志
// 记录扇出写入不一致的地方,由对账任务反复重试直到修复
type Journal interface {
	Record(ctx context.Context, fix *PendingFix) error
	List(ctx context.Context) ([]*PendingFix, error)
	Update(ctx context.Context, fix *PendingFix) error
	Resolve(ctx context.Context, id string) error
}
