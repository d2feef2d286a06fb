package book

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Book 图书实体(聚合根)
// 1. ID由应用生成(UUID字符串),不依赖数据库自增
// 2. 价格使用decimal,避免浮点误差
// 3. 库存不在Book上,由stock.Ledger单独维护
// 4. 上架后不可修改(没有编辑/删除接口)
type Book struct {
	ID              string
	Name            string // 书名
	ISBN            string
	Author          string
	Description     string
	Category        string
	Language        string
	PublicationYear int
	Price           decimal.Decimal
	CoverPics       []string // 封面图URL(来自图片中转服务)
	SellerID        string   // 卖家ID,上架流程最后一步回填
	CreatedAt       time.Time
}

// NewBookParams 创建图书的参数
type NewBookParams struct {
	Name            string
	ISBN            string
	Author          string
	Description     string
	Category        string
	Language        string
	PublicationYear int
	Price           decimal.Decimal
	CoverPics       []string
}

// NewBook 创建新图书(工厂方法)
// 业务规则:
// - 至少一张封面图
// - 必须填写语言
// - 书名不能为空
// - 价格必须>0
// - ISBN可为空,填写时必须是10位或13位
func NewBook(id string, p NewBookParams, now time.Time) (*Book, error) {
	if len(p.CoverPics) == 0 {
		return nil, ErrNoCoverPics
	}
	for _, u := range p.CoverPics {
		if strings.TrimSpace(u) == "" {
			return nil, ErrNoCoverPics
		}
	}
	if strings.TrimSpace(p.Language) == "" {
		return nil, ErrLanguageRequired
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, ErrNameRequired
	}
	if !p.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if p.ISBN != "" && !IsValidISBN(p.ISBN) {
		return nil, ErrInvalidISBN
	}

	pics := make([]string, len(p.CoverPics))
	copy(pics, p.CoverPics)

	return &Book{
		ID:              id,
		Name:            strings.TrimSpace(p.Name),
		ISBN:            NormalizeISBN(p.ISBN),
		Author:          p.Author,
		Description:     p.Description,
		Category:        p.Category,
		Language:        p.Language,
		PublicationYear: p.PublicationYear,
		Price:           p.Price,
		CoverPics:       pics,
		CreatedAt:       now,
	}, nil
}

// IsOwnedBy 检查图书是否属于指定卖家
func (b *Book) IsOwnedBy(sellerID string) bool {
	return b.SellerID != "" && b.SellerID == sellerID
}
