package order

import (
	"context"
	"time"
)

// Location 订单的存放位置
type Location string

const (
	LocationBuyer  Location = "buyer"  // users/{buyerId}/orders
	LocationSeller Location = "seller" // sellers/{sellerId}/orders
	LocationGlobal Location = "global" // orders
)

// AllLocations 订单扇出写入的三个位置
func AllLocations() []Location {
	return []Location{LocationBuyer, LocationSeller, LocationGlobal}
}

// Repository 订单仓储接口
// 三个位置相互独立,没有跨位置事务,一致性由应用层的Saga和对账任务保证
type Repository interface {
	// Save 写入指定位置(同ID重复写入视为覆盖)
	Save(ctx context.Context, loc Location, o *Order) error

	// Delete 从指定位置删除,不存在时不报错
	Delete(ctx context.Context, loc Location, id string) error

	// FindByID 从全局位置查询
	FindByID(ctx context.Context, id string) (*Order, error)

	// UpdateStatus 更新指定位置的状态
	UpdateStatus(ctx context.Context, loc Location, id string, status Status, updatedAt time.Time) error

	// ListByBuyer 买家位置的订单,按创建时间倒序
	ListByBuyer(ctx context.Context, buyerID uint) ([]*Order, error)

	// ListBySeller 卖家位置的订单,按创建时间倒序
	ListBySeller(ctx context.Context, sellerID string) ([]*Order, error)
}

// Publisher 订单事件发布(尽力而为)
type Publisher interface {
	PublishCreated(ctx context.Context, o *Order) error
}

// CreatedEvent order.created 事件体
type CreatedEvent struct {
	OrderID    string    `json:"order_id"`
	BuyerID    uint      `json:"buyer_id"`
	BuyerEmail string    `json:"buyer_email"`
	SellerID   string    `json:"seller_id"`
	BookID     string    `json:"book_id"`
	BookName   string    `json:"book_name"`
	Quantity   int64     `json:"quantity"`
	TotalPrice string    `json:"total_price"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// RoutingKeyCreated 订单创建事件的路由键
const RoutingKeyCreated = "order.created"

// NewCreatedEvent 由订单构造事件
func NewCreatedEvent(o *Order) CreatedEvent {
	return CreatedEvent{
		OrderID:    o.ID,
		BuyerID:    o.BuyerID,
		BuyerEmail: o.BuyerEmail,
		SellerID:   o.SellerID,
		BookID:     o.BookID,
		BookName:   o.BookName,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice.StringFixed(2),
		Status:     o.Status,
		CreatedAt:  o.CreatedAt,
	}
}
