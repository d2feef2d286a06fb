package order

import (
	"time"

	"github.com/xiebiao/usedbooks/internal/domain/order"
)

// OrderDTO 订单响应
type OrderDTO struct {
	ID         string `json:"id"`
	BuyerID    uint   `json:"buyer_id"`
	BuyerEmail string `json:"buyer_email"`
	SellerID   string `json:"seller_id"`
	BookID     string `json:"book_id"`
	BookName   string `json:"book_name"`
	Quantity   int64  `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toOrderDTO(o *order.Order) *OrderDTO {
	return &OrderDTO{
		ID:         o.ID,
		BuyerID:    o.BuyerID,
		BuyerEmail: o.BuyerEmail,
		SellerID:   o.SellerID,
		BookID:     o.BookID,
		BookName:   o.BookName,
		Quantity:   o.Quantity,
		UnitPrice:  o.UnitPrice.StringFixed(2),
		TotalPrice: o.TotalPrice.StringFixed(2),
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  o.UpdatedAt.Format(time.RFC3339),
	}
}

func toOrderDTOs(orders []*order.Order) []*OrderDTO {
	list := make([]*OrderDTO, 0, len(orders))
	for _, o := range orders {
		list = append(list, toOrderDTO(o))
	}
	return list
}
