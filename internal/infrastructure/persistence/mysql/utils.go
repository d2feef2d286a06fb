package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

// isDuplicateError 判断是否为MySQL唯一索引冲突(错误码1062)
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

// dbError 把驱动错误包装为AppError
// ctx到期后驱动返回的错误不一定是DeadlineExceeded(例如"canceling query"),
// 所以同时检查ctx本身,超时一律归为ErrTimeout
func dbError(ctx context.Context, op string, err error) error {
	cause := fmt.Errorf("%s: %w", op, err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.ErrTimeout.WithCause(cause)
	}
	return apperrors.ErrDatabaseError.WithCause(cause)
}
