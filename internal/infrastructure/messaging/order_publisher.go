// Package messaging 领域事件到RabbitMQ的适配
package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/pkg/metrics"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

// Sender 消息发送能力，由 mq.Publisher 实现
type Sender interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// OrderPublisher order.Publisher 的RabbitMQ实现
type OrderPublisher struct {
	sender Sender
	call   remote.Caller
	logger *zap.Logger
}

var _ order.Publisher = (*OrderPublisher)(nil)

// NewOrderPublisher 创建订单事件发布者
func NewOrderPublisher(sender Sender, call remote.Caller, logger *zap.Logger) *OrderPublisher {
	return &OrderPublisher{sender: sender, call: call, logger: logger}
}

// PublishCreated 发布 order.created
func (p *OrderPublisher) PublishCreated(ctx context.Context, o *order.Order) error {
	err := p.call.Do(ctx, "mq.publish."+order.RoutingKeyCreated, func(ctx context.Context) error {
		return p.sender.Publish(ctx, order.RoutingKeyCreated, order.NewCreatedEvent(o))
	})

	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.IncCounterVec(metrics.MessagesPublishedTotal, map[string]string{
		"routing_key": order.RoutingKeyCreated,
		"result":      result,
	})
	return err
}

// NopPublisher MQ未启用时使用，丢弃事件
type NopPublisher struct{}

// PublishCreated 什么都不做
func (NopPublisher) PublishCreated(context.Context, *order.Order) error { return nil }
