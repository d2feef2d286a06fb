// Package saga 实现通用的Saga事务编排
//
// 核心思想：
// 1. 将一个跨存储的操作拆分为多个本地步骤
// 2. 每个步骤有对应的补偿操作
// 3. 某步失败时，按逆序执行已完成步骤的补偿
//
// 在本项目中用于：
//   - 下单：扣减库存 → 三处写入订单（买家/卖家/全局）
//   - 上架：写图书 → 写库存 → 关联卖家
//
// 补偿本身也可能失败，失败的补偿通过 OnCompensationFailed 回调交给调用方
// （记录到对账日志），Saga不会吞掉它们。
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Step 表示Saga中的一个步骤
// Action和Compensate都必须支持幂等（补偿可能被对账任务重放）
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// CompensationFailure 一次失败的补偿
type CompensationFailure struct {
	Step string
	Err  error
}

// Error Saga执行失败的详细信息
type Error struct {
	Step                 string                // 失败的步骤
	Cause                error                 // 失败原因
	CompensationFailures []CompensationFailure // 补偿失败的步骤（为空表示已完全回滚）
}

func (e *Error) Error() string {
	if len(e.CompensationFailures) > 0 {
		return fmt.Sprintf("saga步骤[%s]失败: %v (补偿失败%d项)", e.Step, e.Cause, len(e.CompensationFailures))
	}
	return fmt.Sprintf("saga步骤[%s]失败: %v", e.Step, e.Cause)
}

// Unwrap 让 errors.Is/As 能穿透到业务错误（如库存不足）
func (e *Error) Unwrap() error {
	return e.Cause
}

// RolledBack 是否已完全回滚
func (e *Error) RolledBack() bool {
	return len(e.CompensationFailures) == 0
}

// Saga 一次Saga事务（非并发安全，每次请求新建）
type Saga struct {
	name     string
	steps    []Step
	executed []Step
	timeout  time.Duration
	logger   *zap.Logger

	onCompensationFailed func(step string, err error)
	onCompensated        func(step string)
}

// Option Saga可选配置
type Option func(*Saga)

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(s *Saga) { s.logger = l }
}

// OnCompensationFailed 补偿失败回调
func OnCompensationFailed(fn func(step string, err error)) Option {
	return func(s *Saga) { s.onCompensationFailed = fn }
}

// OnCompensated 补偿成功回调（用于指标）
func OnCompensated(fn func(step string)) Option {
	return func(s *Saga) { s.onCompensated = fn }
}

// NewSaga 创建Saga
//
// 示例：
//
//	s := saga.NewSaga("confirm_purchase", 10*time.Second, saga.WithLogger(log))
//	s.AddStep("decrement_stock", decrement, restore)
//	s.AddStep("write_orders", writeAll, deleteAll)
//	err := s.Execute(ctx)
func NewSaga(name string, timeout time.Duration, opts ...Option) *Saga {
	s := &Saga{
		name:    name,
		steps:   make([]Step, 0, 4),
		timeout: timeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddStep 添加步骤（按添加顺序执行，逆序补偿）
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Execute 执行Saga
// 失败时返回*Error，可用errors.As提取补偿结果
func (s *Saga) Execute(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return s.fail(step.Name, fmt.Errorf("saga超时: %w", err))
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				return s.fail(step.Name, err)
			}
		}
		s.executed = append(s.executed, step)
	}

	s.executed = nil
	return nil
}

func (s *Saga) fail(step string, cause error) error {
	s.logger.Warn("saga step failed, compensating",
		zap.String("saga", s.name),
		zap.String("step", step),
		zap.Error(cause),
	)
	// 补偿不跟随原请求取消，但同样受Saga超时约束
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	failures := s.compensate(ctx)
	return &Error{Step: step, Cause: cause, CompensationFailures: failures}
}

func (s *Saga) compensate(ctx context.Context) []CompensationFailure {
	var failures []CompensationFailure
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			failures = append(failures, CompensationFailure{Step: step.Name, Err: err})
			s.logger.Error("saga compensation failed",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			if s.onCompensationFailed != nil {
				s.onCompensationFailed(step.Name, err)
			}
			continue
		}
		if s.onCompensated != nil {
			s.onCompensated(step.Name)
		}
	}
	s.executed = nil
	return failures
}

// AsError 提取*Error
func AsError(err error) (*Error, bool) {
	var sagaErr *Error
	ok := errors.As(err, &sagaErr)
	return sagaErr, ok
}
