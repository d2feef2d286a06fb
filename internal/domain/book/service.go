package book

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Service 图书领域服务
type Service interface {
	// PublishBook 校验并保存一本新书(不含库存和卖家关联)
	PublishBook(ctx context.Context, params NewBookParams) (*Book, error)

	// GetBookByID 根据ID获取图书
	GetBookByID(ctx context.Context, id string) (*Book, error)

	// ListBooks 分页查询图书列表
	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)
}

type service struct {
	repo  Repository
	newID func() string
	now   func() time.Time
}

// NewService 创建图书领域服务
func NewService(repo Repository) Service {
	return &service{
		repo:  repo,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// PublishBook 发布图书
func (s *service) PublishBook(ctx context.Context, params NewBookParams) (*Book, error) {
	b, err := NewBook(s.newID(), params, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookByID 根据ID获取图书
func (s *service) GetBookByID(ctx context.Context, id string) (*Book, error) {
	if id == "" {
		return nil, ErrBookNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// ListBooks 分页查询图书列表
func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

var (
	nonDigit = regexp.MustCompile(`[^0-9Xx]`)
	isbn10   = regexp.MustCompile(`^[0-9]{9}[0-9Xx]$`)
	isbn13   = regexp.MustCompile(`^[0-9]{13}$`)
)

// NormalizeISBN 去掉分隔符(978-7-115-42802-8 → 9787115428028)
func NormalizeISBN(isbn string) string {
	return nonDigit.ReplaceAllString(isbn, "")
}

// IsValidISBN 校验ISBN格式
// ISBN-10最后一位可以是X;只检查位数,不校验校验位
func IsValidISBN(isbn string) bool {
	clean := NormalizeISBN(isbn)
	switch len(clean) {
	case 10:
		return isbn10.MatchString(clean)
	case 13:
		return isbn13.MatchString(clean)
	}
	return false
}
