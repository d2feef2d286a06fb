package dto

import "github.com/shopspring/decimal"

// CreateListingRequest HTTP上架请求
// 价格接受 "12.50" 或 12.5 两种写法
// 书名、语言、封面、价格的必填与取值规则由领域层校验，这里只限制长度和格式
type CreateListingRequest struct {
	Name            string          `json:"name" binding:"max=200" example:"The Go Programming Language"`
	ISBN            string          `json:"isbn" binding:"omitempty,max=20" example:"9780134190440"`
	Author          string          `json:"author" binding:"omitempty,max=100" example:"Alan Donovan"`
	Description     string          `json:"description" binding:"omitempty,max=5000" example:"Lightly used, no notes"`
	Category        string          `json:"category" binding:"omitempty,max=50" example:"programming"`
	Language        string          `json:"language" binding:"max=30" example:"English"`
	PublicationYear int             `json:"publication_year" binding:"omitempty,min=0,max=9999" example:"2015"`
	Price           decimal.Decimal `json:"price" swaggertype:"string" example:"12.50"`
	CoverPics       []string        `json:"cover_pics" binding:"omitempty,dive,url" example:"https://res.cloudinary.com/demo/image/upload/uploads/1_0.jpg"`
	Quantity        int64           `json:"quantity" binding:"min=0" example:"3"`
}

// ListBooksRequest HTTP图书列表请求
type ListBooksRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword  string `form:"keyword" binding:"omitempty,max=100" example:"Go"`
	Category string `form:"category" binding:"omitempty,max=50" example:"programming"`
}

// StockEvent SSE推送的库存事件
type StockEvent struct {
	BookID    string `json:"book_id"`
	Quantity  int64  `json:"quantity"`
	ChangedAt string `json:"changed_at"`
}
