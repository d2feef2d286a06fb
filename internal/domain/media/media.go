// Package media 图片存储(云图床)抽象
package media

import (
	"context"
	"io"
)

// Upload 一次上传请求
type Upload struct {
	PublicID    string // 图床中的名称,如 uploads/1727784000123_9b1c04e2_0.jpg
	Filename    string
	ContentType string
	Body        io.Reader
}

// Result 上传结果
type Result struct {
	URL      string `json:"url"`
	PublicID string `json:"-"`
}

// Store 图片存储
type Store interface {
	Upload(ctx context.Context, u Upload) (*Result, error)
}
