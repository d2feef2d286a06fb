package book

import (
	"context"
	"time"
)

// Repository 图书仓储接口
// domain层定义,infrastructure层(MySQL)实现
type Repository interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书,不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id string) (*Book, error)

	// SetSeller 回填卖家ID
	SetSeller(ctx context.Context, id, sellerID string) error

	// Delete 删除图书(只用于上架失败的补偿)
	Delete(ctx context.Context, id string) error

	// List 分页查询图书列表
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)
}

// Cache 图书详情缓存(读穿透)
// Get未命中时返回(nil, nil)
type Cache interface {
	Get(ctx context.Context, id string) (*Book, error)
	Set(ctx context.Context, b *Book, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// ListParams 列表查询参数
type ListParams struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 搜索书名、作者
	Category string // 按分类精确过滤
}

// Normalize 修正分页参数
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// Offset 计算分页偏移量
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
