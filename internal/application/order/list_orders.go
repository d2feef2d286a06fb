package order

import (
	"context"

	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/internal/domain/seller"
	"github.com/xiebiao/usedbooks/internal/domain/session"
)

// ListOrdersUseCase 订单查询（买家视角、卖家视角）
type ListOrdersUseCase struct {
	orders  order.Repository
	sellers *seller.Directory
}

// NewListOrdersUseCase 创建订单查询用例
func NewListOrdersUseCase(orders order.Repository, sellers *seller.Directory) *ListOrdersUseCase {
	return &ListOrdersUseCase{orders: orders, sellers: sellers}
}

// ListBuyerOrders 当前用户买到的订单
func (uc *ListOrdersUseCase) ListBuyerOrders(ctx context.Context, sess session.Session) ([]*OrderDTO, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	orders, err := uc.orders.ListByBuyer(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return toOrderDTOs(orders), nil
}

// ListSellerOrders 当前用户作为卖家收到的订单
// 按会话邮箱查找卖家，没上架过书的用户返回SellerNotFound
func (uc *ListOrdersUseCase) ListSellerOrders(ctx context.Context, sess session.Session) ([]*OrderDTO, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	s, err := uc.sellers.FindByEmail(ctx, sess.Email)
	if err != nil {
		return nil, err
	}
	orders, err := uc.orders.ListBySeller(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return toOrderDTOs(orders), nil
}
