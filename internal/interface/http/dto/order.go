package dto

import "github.com/shopspring/decimal"

// ConfirmPurchaseRequest HTTP确认购买请求
// book_name/unit_price是客户端看到的信息，图书在目录中存在时以目录为准
type ConfirmPurchaseRequest struct {
	BookID    string          `json:"book_id" binding:"required" example:"5f0c6a1e-3b1d-4a8e-9a51-0c2d6e1f7b11"`
	Quantity  int64           `json:"quantity" binding:"required,min=1" example:"1"`
	BookName  string          `json:"book_name" example:"The Go Programming Language"`
	UnitPrice decimal.Decimal `json:"unit_price" swaggertype:"string" example:"12.50"`
}

// UpdateOrderStatusRequest 卖家更新订单状态
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required" example:"shipped"`
}

// CartEntry 购物车条目
type CartEntry struct {
	BookID  string `json:"book_id"`
	AddedAt string `json:"added_at"`
}

// CartOutcome 加入/移出购物车的结果
type CartOutcome struct {
	BookID  string `json:"book_id"`
	Outcome string `json:"outcome" example:"added"`
}

// UploadResponse 图片中转成功响应（不使用统一响应结构）
type UploadResponse struct {
	Message string         `json:"message" example:"Files uploaded successfully"`
	Results []UploadResult `json:"results"`
}

// UploadResult 单个文件的上传结果
type UploadResult struct {
	URL string `json:"url" example:"https://res.cloudinary.com/demo/image/upload/uploads/1_0.jpg"`
}

// UploadError 图片中转失败响应
type UploadError struct {
	Error   string `json:"error" example:"Upload failed"`
	Details string `json:"details,omitempty"`
}
