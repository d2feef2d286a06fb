package order

import (
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.ErrOrderNotFound

	// ErrDuplicateOrder 同一位置已存在该订单号
	ErrDuplicateOrder = apperrors.New(apperrors.ErrCodeDuplicateEntry, "订单号重复")

	// ErrInvalidStatusTransition 状态只能向前推进
	ErrInvalidStatusTransition = apperrors.ErrInvalidOrderStatus

	// ErrInvalidStatus 未知的订单状态
	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "未知的订单状态")

	// ErrInvalidQuantity 购买数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "购买数量必须大于0")

	// ErrInvalidPrice 单价不合法
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "单价不能为负数")
)
