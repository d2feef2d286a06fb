package catalog

import (
	"time"

	"github.com/xiebiao/usedbooks/internal/domain/book"
)

// BookDTO 图书响应
// Quantity为空表示库存暂不可用（没有库存记录或读取失败）
type BookDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ISBN            string   `json:"isbn,omitempty"`
	Author          string   `json:"author,omitempty"`
	Description     string   `json:"description,omitempty"`
	Category        string   `json:"category,omitempty"`
	Language        string   `json:"language"`
	PublicationYear int      `json:"publication_year,omitempty"`
	Price           string   `json:"price"`
	CoverPics       []string `json:"cover_pics"`
	SellerID        string   `json:"seller_id,omitempty"`
	Quantity        *int64   `json:"quantity,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

func toBookDTO(b *book.Book, qty *int64) *BookDTO {
	return &BookDTO{
		ID:              b.ID,
		Name:            b.Name,
		ISBN:            b.ISBN,
		Author:          b.Author,
		Description:     b.Description,
		Category:        b.Category,
		Language:        b.Language,
		PublicationYear: b.PublicationYear,
		Price:           b.Price.StringFixed(2),
		CoverPics:       b.CoverPics,
		SellerID:        b.SellerID,
		Quantity:        qty,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
}
