package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

func TestNewOrder(t *testing.T) {
	now := time.UnixMilli(1727784000123)
	o, err := NewOrder(7, "buyer@example.com", "seller-3", "b1", "Dune", 3, decimal.RequireFromString("9.99"), now)
	require.NoError(t, err)

	assert.Regexp(t, `^7_b1_1727784000123_[0-9a-f]{8}$`, o.ID)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.TotalPrice.Equal(decimal.RequireFromString("29.97")))
	assert.True(t, o.IsSoldBy("seller-3"))
	assert.False(t, o.IsSoldBy("seller-4"))
}

func TestGenerateOrderID_UniqueWithinSameMillisecond(t *testing.T) {
	now := time.UnixMilli(1727784000123)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateOrderID(7, "b1", now)
		assert.False(t, seen[id], "重复的订单号 %s", id)
		seen[id] = true
	}
}

func TestNewOrder_Invalid(t *testing.T) {
	_, err := NewOrder(1, "", "s", "b", "n", 0, decimal.NewFromInt(1), time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewOrder(1, "", "s", "b", "n", 1, decimal.NewFromInt(-1), time.Now())
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestTransitionTo_ForwardOnly(t *testing.T) {
	o := &Order{Status: StatusPending}
	now := time.Now()

	require.NoError(t, o.TransitionTo(StatusConfirming, now))
	require.NoError(t, o.TransitionTo(StatusShipped, now), "允许跳过中间状态")
	assert.Equal(t, StatusShipped, o.Status)

	err := o.TransitionTo(StatusPlaced, now)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, apperrors.KindInvalidParams, apperrors.KindOf(err))

	assert.ErrorIs(t, o.TransitionTo(StatusShipped, now), ErrInvalidStatusTransition)
	assert.False(t, o.CanTransitionTo("Cancelled"))

	require.NoError(t, o.TransitionTo(StatusDelivered, now))
	for _, s := range AllStatuses() {
		assert.False(t, o.CanTransitionTo(s), "Delivered是终态")
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Placed")
	require.NoError(t, err)
	assert.Equal(t, StatusPlaced, s)
	assert.True(t, s.Valid())

	_, err = ParseStatus("pending")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestNewCreatedEvent(t *testing.T) {
	o, err := NewOrder(7, "b@example.com", "seller-3", "b1", "Dune", 2, decimal.NewFromInt(5), time.Now())
	require.NoError(t, err)

	e := NewCreatedEvent(o)
	assert.Equal(t, o.ID, e.OrderID)
	assert.Equal(t, "10.00", e.TotalPrice)
	assert.Equal(t, StatusPending, e.Status)
}
