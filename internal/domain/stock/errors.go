package stock

import (
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

var (
	// ErrStockNotFound 图书没有库存记录
	ErrStockNotFound = apperrors.ErrStockNotFound

	// ErrInsufficientStock 请求数量超过当前库存
	ErrInsufficientStock = apperrors.ErrInsufficientStock

	// ErrDataCorruption 库存值不是合法的非负整数
	ErrDataCorruption = apperrors.ErrDataCorruption

	// ErrInvalidQuantity 数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "库存数量不合法")

	// ErrMissingRestoreKey 补偿缺少订单号,无法去重
	ErrMissingRestoreKey = apperrors.New(apperrors.ErrCodeInvalidParams, "补偿库存需要订单号")
)

// ValidateDecrement 扣减参数校验
func ValidateDecrement(bookID string, qty int64) error {
	if bookID == "" || qty <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// ValidateRestore 补偿参数校验
func ValidateRestore(bookID, orderID string, qty int64) error {
	if err := ValidateDecrement(bookID, qty); err != nil {
		return err
	}
	if orderID == "" {
		return ErrMissingRestoreKey
	}
	return nil
}
