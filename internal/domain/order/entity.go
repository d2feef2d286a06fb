package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status 订单状态
// 取值与前端展示的固定状态列表一致
type Status string

const (
	StatusPending    Status = "Pending"    // 待确认(下单后的初始状态)
	StatusConfirming Status = "Confirming" // 确认中
	StatusPlaced     Status = "Placed"     // 已下单
	StatusShipped    Status = "Shipped"    // 已发货
	StatusDelivered  Status = "Delivered"  // 已送达(终态)
)

// statusRank 状态顺序,只能向前推进
var statusRank = map[Status]int{
	StatusPending:    1,
	StatusConfirming: 2,
	StatusPlaced:     3,
	StatusShipped:    4,
	StatusDelivered:  5,
}

// AllStatuses 按流转顺序返回所有状态
func AllStatuses() []Status {
	return []Status{StatusPending, StatusConfirming, StatusPlaced, StatusShipped, StatusDelivered}
}

// ParseStatus 解析状态字符串
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusRank[st]; !ok {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// Valid 是否为已知状态
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Order 订单实体
// 同一份订单会写入三处:买家、卖家、全局
type Order struct {
	ID         string // {buyerID}_{bookID}_{unixMillis}
	BuyerID    uint
	BuyerEmail string
	SellerID   string
	BookID     string
	BookName   string
	Quantity   int64
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal // Quantity × UnitPrice,下单时计算并冗余存储
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrder 创建新订单(工厂方法),初始状态为Pending
func NewOrder(buyerID uint, buyerEmail, sellerID, bookID, bookName string, quantity int64, unitPrice decimal.Decimal, now time.Time) (*Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}
	return &Order{
		ID:         GenerateOrderID(buyerID, bookID, now),
		BuyerID:    buyerID,
		BuyerEmail: buyerEmail,
		SellerID:   sellerID,
		BookID:     bookID,
		BookName:   bookName,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice.Mul(decimal.NewFromInt(quantity)),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// CanTransitionTo 只允许向前推进(可以跳过中间状态),不允许回退或原地不动
func (o *Order) CanTransitionTo(target Status) bool {
	to, ok := statusRank[target]
	if !ok {
		return false
	}
	return to > statusRank[o.Status]
}

// TransitionTo 状态转换
func (o *Order) TransitionTo(target Status, now time.Time) error {
	if !o.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}
	o.Status = target
	o.UpdatedAt = now
	return nil
}

// IsSoldBy 订单是否属于指定卖家
func (o *Order) IsSoldBy(sellerID string) bool {
	return o.SellerID == sellerID
}
