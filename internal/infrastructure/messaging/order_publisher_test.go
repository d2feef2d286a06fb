package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/order"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

type senderFunc func(ctx context.Context, routingKey string, message interface{}) error

func (f senderFunc) Publish(ctx context.Context, routingKey string, message interface{}) error {
	return f(ctx, routingKey, message)
}

func TestPublishCreated(t *testing.T) {
	now := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	o, err := order.NewOrder(7, "buyer@example.com", "seller-3", "b1", "Dune", 3, decimal.RequireFromString("12.5"), now)
	require.NoError(t, err)

	var gotKey string
	var gotEvent order.CreatedEvent
	p := NewOrderPublisher(senderFunc(func(_ context.Context, key string, msg interface{}) error {
		gotKey = key
		gotEvent = msg.(order.CreatedEvent)
		return nil
	}), remote.NewCaller(time.Second), zap.NewNop())

	require.NoError(t, p.PublishCreated(context.Background(), o))
	assert.Equal(t, "order.created", gotKey)
	assert.Equal(t, o.ID, gotEvent.OrderID)
	assert.Equal(t, "37.50", gotEvent.TotalPrice)
	assert.Equal(t, order.StatusPending, gotEvent.Status)
}

func TestPublishCreated_Failure(t *testing.T) {
	p := NewOrderPublisher(senderFunc(func(context.Context, string, interface{}) error {
		return errors.New("channel closed")
	}), remote.NewCaller(time.Second), zap.NewNop())

	err := p.PublishCreated(context.Background(), &order.Order{ID: "x"})
	assert.Equal(t, apperrors.KindRemoteCallFailed, apperrors.KindOf(err))
}
