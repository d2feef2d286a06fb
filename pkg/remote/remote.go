// Package remote 为每一次远程调用（MySQL、Redis、图床、MQ）加上超时并统一错误分类
//
// 分类规则：
//   - 超时（context.DeadlineExceeded）→ apperrors.ErrTimeout
//   - 已经是AppError（业务错误）→ 原样返回
//   - 其他错误 → apperrors.ErrRemoteCallFailed
//
// 这样"库存不足"这种明确拒绝与"Redis没响应"可以被调用方区分开。
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

// DefaultTimeout 未配置时的默认单次调用超时
const DefaultTimeout = 3 * time.Second

// Call 在超时控制下执行一次远程调用
// op 用于错误信息（如 "redis.decrement"）
func Call(ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}
	return Classify(op, err)
}

// Classify 把远程调用返回的错误归类
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.ErrTimeout.WithCause(fmt.Errorf("%s: %w", op, err))
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.ErrRemoteCallFailed.WithCause(fmt.Errorf("%s: %w", op, err))
}

// Caller 绑定了超时时间的调用器，便于注入到仓储
type Caller struct {
	Timeout time.Duration
}

// NewCaller 创建调用器
func NewCaller(timeout time.Duration) Caller {
	return Caller{Timeout: timeout}
}

// Do 等价于 Call(ctx, c.Timeout, op, fn)
func (c Caller) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return Call(ctx, c.Timeout, op, fn)
}
