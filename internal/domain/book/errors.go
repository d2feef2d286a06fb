package book

import (
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.ErrBookNotFound

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.ErrISBNDuplicate

	// ErrNoCoverPics 未提供封面图
	ErrNoCoverPics = apperrors.New(apperrors.ErrCodeInvalidParams, "至少需要一张封面图")

	// ErrLanguageRequired 未填写语言
	ErrLanguageRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "语言不能为空")

	// ErrNameRequired 书名为空
	ErrNameRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "书名不能为空")

	// ErrInvalidPrice 无效的价格
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格必须大于0")

	// ErrInvalidQuantity 无效的库存数量
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "库存数量不能为负数")

	// ErrInvalidISBN ISBN格式不正确
	ErrInvalidISBN = apperrors.New(apperrors.ErrCodeInvalidParams, "ISBN格式不正确")
)
