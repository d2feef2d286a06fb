package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderID 生成组合订单号
//
// 格式:{买家ID}_{图书ID}_{毫秒时间戳}_{8位随机后缀}
// 示例:7_3f2a..._1727784000123_9b1c04e2
// 同一买家在同一毫秒内连点两次也会得到两个不同的订单号
func GenerateOrderID(buyerID uint, bookID string, now time.Time) string {
	return fmt.Sprintf("%d_%s_%d_%s", buyerID, bookID, now.UnixMilli(), uuid.NewString()[:8])
}
