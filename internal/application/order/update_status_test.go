package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/internal/domain/seller"
	"github.com/xiebiao/usedbooks/internal/domain/session"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

// placeOrder 直接在三个位置写入一个订单
func placeOrder(t *testing.T, orders *memOrders, sellerID string) *order.Order {
	t.Helper()
	o, err := order.NewOrder(7, "buyer@example.com", sellerID, "b1", "Dune", 1, price, time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	for _, loc := range order.AllLocations() {
		require.NoError(t, orders.Save(context.Background(), loc, o))
	}
	return o
}

func TestUpdateOrderStatus(t *testing.T) {
	orders := newMemOrders()
	tx := &inlineTx{}
	uc := NewUpdateOrderStatusUseCase(orders, tx, zap.NewNop())
	sellerSess := session.New(3, "seller@example.com", "Seller")
	o := placeOrder(t, orders, seller.IDForUser(3))

	resp, err := uc.Execute(context.Background(), sellerSess, UpdateOrderStatusRequest{OrderID: o.ID, Status: "Shipped"})
	require.NoError(t, err)
	assert.Equal(t, "Shipped", resp.Status)
	assert.Equal(t, 1, tx.calls)

	for _, loc := range order.AllLocations() {
		assert.Equal(t, order.StatusShipped, orders.data[loc][o.ID].Status, loc)
	}

	// 不允许回退
	_, err = uc.Execute(context.Background(), sellerSess, UpdateOrderStatusRequest{OrderID: o.ID, Status: "Confirming"})
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)

	// 不允许原地不动
	_, err = uc.Execute(context.Background(), sellerSess, UpdateOrderStatusRequest{OrderID: o.ID, Status: "Shipped"})
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)

	_, err = uc.Execute(context.Background(), sellerSess, UpdateOrderStatusRequest{OrderID: o.ID, Status: "Delivered"})
	require.NoError(t, err)
}

func TestUpdateOrderStatus_Rejections(t *testing.T) {
	orders := newMemOrders()
	uc := NewUpdateOrderStatusUseCase(orders, &inlineTx{}, zap.NewNop())
	o := placeOrder(t, orders, seller.IDForUser(3))

	_, err := uc.Execute(context.Background(), session.Anonymous, UpdateOrderStatusRequest{OrderID: o.ID, Status: "Placed"})
	assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))

	other := session.New(4, "other@example.com", "")
	_, err = uc.Execute(context.Background(), other, UpdateOrderStatusRequest{OrderID: o.ID, Status: "Placed"})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	owner := session.New(3, "seller@example.com", "")
	_, err = uc.Execute(context.Background(), owner, UpdateOrderStatusRequest{OrderID: o.ID, Status: "Lost"})
	assert.ErrorIs(t, err, order.ErrInvalidStatus)

	_, err = uc.Execute(context.Background(), owner, UpdateOrderStatusRequest{OrderID: "missing", Status: "Placed"})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	assert.Equal(t, order.StatusPending, orders.data[order.LocationGlobal][o.ID].Status)
}

func TestListOrders(t *testing.T) {
	orders := newMemOrders()
	sellers := newMemSellers()
	dir := seller.NewDirectory(sellers)
	uc := NewListOrdersUseCase(orders, dir)
	ctx := context.Background()

	sellerSess := session.New(3, "seller@example.com", "Seller")
	_, err := dir.ResolveOrCreateSeller(ctx, sellerSess)
	require.NoError(t, err)
	o := placeOrder(t, orders, seller.IDForUser(3))

	bought, err := uc.ListBuyerOrders(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, bought, 1)
	assert.Equal(t, o.ID, bought[0].ID)

	sold, err := uc.ListSellerOrders(ctx, sellerSess)
	require.NoError(t, err)
	require.Len(t, sold, 1)

	// 买家从没上架过书
	_, err = uc.ListSellerOrders(ctx, buyer)
	assert.Equal(t, apperrors.KindSellerNotFound, apperrors.KindOf(err))

	_, err = uc.ListBuyerOrders(ctx, session.Anonymous)
	assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))

	none, err := uc.ListBuyerOrders(ctx, session.New(99, "x@example.com", ""))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
