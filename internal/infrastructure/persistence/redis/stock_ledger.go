package redis

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/stock"
	"github.com/xiebiao/usedbooks/pkg/metrics"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

//go:embed lua/decrement_stock.lua
var decrementStockLua string

//go:embed lua/restore_stock.lua
var restoreStockLua string

// Key设计
//   - bookQuantity:{bookId}:库存数量(字符串形式的非负整数)
//   - bookQuantity:changes:{bookId}:库存变更推送频道
//   - stockRestored:{orderId}:该订单的扣减已加回,带过期时间
const (
	stockKeyPrefix     = "bookQuantity:"
	stockChannelPrefix = "bookQuantity:changes:"
	restoredKeyPrefix  = "stockRestored:"
)

// restoredMarkerTTL 已补偿标记的保留时间,需长于对账日志重放的窗口
const restoredMarkerTTL = 7 * 24 * time.Hour

// StockKey 库存key
func StockKey(bookID string) string {
	return stockKeyPrefix + bookID
}

// StockChannel 库存变更频道
func StockChannel(bookID string) string {
	return stockChannelPrefix + bookID
}

// RestoredKey 订单已补偿标记
func RestoredKey(orderID string) string {
	return restoredKeyPrefix + orderID
}

// StockLedger 基于Redis的库存账本
// 扣减和补偿都在Lua脚本内完成检查和修改,Redis单线程执行脚本保证原子性
type StockLedger struct {
	client    redis.UniversalClient
	call      remote.Caller
	logger    *zap.Logger
	decrement *redis.Script
	restore   *redis.Script
	now       func() time.Time
}

var _ stock.Ledger = (*StockLedger)(nil)

// NewStockLedger 创建库存账本
func NewStockLedger(client redis.UniversalClient, call remote.Caller, logger *zap.Logger) *StockLedger {
	return &StockLedger{
		client:    client,
		call:      call,
		logger:    logger,
		decrement: redis.NewScript(decrementStockLua),
		restore:   redis.NewScript(restoreStockLua),
		now:       time.Now,
	}
}

// LoadScripts 预加载Lua脚本,之后走EVALSHA
// 不预加载也能工作:Script.Run遇到NOSCRIPT会退回EVAL
func (l *StockLedger) LoadScripts(ctx context.Context) error {
	if err := l.decrement.Load(ctx, l.client).Err(); err != nil {
		return fmt.Errorf("加载扣减脚本失败: %w", err)
	}
	if err := l.restore.Load(ctx, l.client).Err(); err != nil {
		return fmt.Errorf("加载补偿脚本失败: %w", err)
	}
	return nil
}

// Get 读取当前库存
func (l *StockLedger) Get(ctx context.Context, bookID string) (int64, error) {
	var qty int64
	err := l.call.Do(ctx, "redis.stock.get", func(ctx context.Context) error {
		raw, err := l.client.Get(ctx, StockKey(bookID)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return stock.ErrStockNotFound
			}
			return err
		}
		qty, err = parseQuantity(raw)
		return err
	})
	return qty, err
}

// Set 设置库存并推送变更
func (l *StockLedger) Set(ctx context.Context, bookID string, qty int64) error {
	if bookID == "" || qty < 0 {
		return stock.ErrInvalidQuantity
	}
	err := l.call.Do(ctx, "redis.stock.set", func(ctx context.Context) error {
		return l.client.Set(ctx, StockKey(bookID), qty, 0).Err()
	})
	if err != nil {
		return err
	}
	l.publish(ctx, bookID, qty)
	return nil
}

// Decrement 原子扣减
func (l *StockLedger) Decrement(ctx context.Context, bookID string, qty int64) (int64, error) {
	if err := stock.ValidateDecrement(bookID, qty); err != nil {
		return 0, err
	}

	var left int64
	err := l.call.Do(ctx, "redis.stock.decrement", func(ctx context.Context) error {
		res, err := l.decrement.Run(ctx, l.client, []string{StockKey(bookID)}, qty).Int64Slice()
		if err != nil {
			return err
		}
		if len(res) != 2 {
			return fmt.Errorf("扣减脚本返回值异常: %v", res)
		}
		left = res[1]
		switch res[0] {
		case 1:
			return nil
		case -1:
			return stock.ErrStockNotFound
		case -2:
			return stock.ErrInsufficientStock
		case -3:
			return stock.ErrDataCorruption
		}
		return fmt.Errorf("扣减脚本返回未知状态: %d", res[0])
	})

	metrics.IncCounterVec(metrics.StockDecrementsTotal, map[string]string{"result": decrementResult(err)})
	if err != nil {
		return left, err
	}
	l.publish(ctx, bookID, left)
	return left, nil
}

// Restore 补偿:加回库存
// 以orderID去重,对账日志重放同一补偿不会重复加回
func (l *StockLedger) Restore(ctx context.Context, bookID, orderID string, qty int64) error {
	if err := stock.ValidateRestore(bookID, orderID, qty); err != nil {
		return err
	}

	var (
		applied bool
		left    int64
	)
	err := l.call.Do(ctx, "redis.stock.restore", func(ctx context.Context) error {
		keys := []string{StockKey(bookID), RestoredKey(orderID)}
		res, err := l.restore.Run(ctx, l.client, keys, qty, int64(restoredMarkerTTL.Seconds())).Int64Slice()
		if err != nil {
			return err
		}
		if len(res) != 2 {
			return fmt.Errorf("补偿脚本返回值异常: %v", res)
		}
		left = res[1]
		switch res[0] {
		case 1:
			applied = true
			return nil
		case 0:
			return nil
		case -1:
			return stock.ErrStockNotFound
		case -3:
			return stock.ErrDataCorruption
		}
		return fmt.Errorf("补偿脚本返回未知状态: %d", res[0])
	})
	if err != nil {
		return err
	}
	if !applied {
		l.logger.Info("stock already restored for order", zap.String("order_id", orderID), zap.String("book_id", bookID))
		return nil
	}
	l.publish(ctx, bookID, left)
	return nil
}

// Delete 删除库存记录
func (l *StockLedger) Delete(ctx context.Context, bookID string) error {
	return l.call.Do(ctx, "redis.stock.delete", func(ctx context.Context) error {
		return l.client.Del(ctx, StockKey(bookID)).Err()
	})
}

// Subscribe 订阅库存变化
// 返回的channel在ctx取消或调用cancel后关闭
func (l *StockLedger) Subscribe(ctx context.Context, bookID string) (<-chan stock.Change, func(), error) {
	pubsub := l.client.Subscribe(ctx, StockChannel(bookID))

	// 等待订阅确认,确保之后的变更不会丢
	if err := l.call.Do(ctx, "redis.stock.subscribe", func(ctx context.Context) error {
		_, err := pubsub.Receive(ctx)
		return err
	}); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan stock.Change, 16)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change stock.Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					l.logger.Warn("invalid stock change payload", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- change:
				default:
					// 消费者太慢,丢弃这一条;下一条会带上最新库存
				}
			}
		}
	}()

	return out, cancel, nil
}

// publish 推送库存变更,失败只记录日志
func (l *StockLedger) publish(ctx context.Context, bookID string, qty int64) {
	payload, err := json.Marshal(stock.Change{BookID: bookID, Quantity: qty, ChangedAt: l.now()})
	if err != nil {
		return
	}
	err = l.call.Do(ctx, "redis.stock.publish", func(ctx context.Context) error {
		return l.client.Publish(ctx, StockChannel(bookID), payload).Err()
	})
	if err != nil {
		l.logger.Warn("publish stock change failed", zap.String("book_id", bookID), zap.Error(err))
	}
}

// parseQuantity 库存必须是非负整数,只接受纯数字(与Lua脚本的校验一致)
func parseQuantity(raw string) (int64, error) {
	if raw == "" || strings.TrimLeft(raw, "0123456789") != "" {
		return 0, stock.ErrDataCorruption.WithCause(fmt.Errorf("非法库存值: %q", raw))
	}
	qty, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || qty < 0 {
		return 0, stock.ErrDataCorruption.WithCause(fmt.Errorf("非法库存值: %q", raw))
	}
	return qty, nil
}

func decrementResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, stock.ErrInsufficientStock):
		return "insufficient"
	case errors.Is(err, stock.ErrStockNotFound):
		return "not_found"
	case errors.Is(err, stock.ErrDataCorruption):
		return "corrupt"
	}
	return "error"
}
