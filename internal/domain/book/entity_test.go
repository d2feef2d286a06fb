package book

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() NewBookParams {
	return NewBookParams{
		Name:      "The Go Programming Language",
		ISBN:      "978-0-13-419044-0",
		Author:    "Donovan, Kernighan",
		Category:  "Programming",
		Language:  "English",
		Price:     decimal.RequireFromString("12.50"),
		CoverPics: []string{"https://img.example.com/uploads/1_0.jpg"},
	}
}

func TestNewBook(t *testing.T) {
	now := time.Now()
	b, err := NewBook("b1", validParams(), now)
	require.NoError(t, err)

	assert.Equal(t, "b1", b.ID)
	assert.Equal(t, "9780134190440", b.ISBN)
	assert.True(t, b.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, now, b.CreatedAt)
	assert.Empty(t, b.SellerID)
}

func TestNewBook_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *NewBookParams)
		wantErr error
	}{
		{"无封面", func(p *NewBookParams) { p.CoverPics = nil }, ErrNoCoverPics},
		{"空封面URL", func(p *NewBookParams) { p.CoverPics = []string{" "} }, ErrNoCoverPics},
		{"无语言", func(p *NewBookParams) { p.Language = "" }, ErrLanguageRequired},
		{"无书名", func(p *NewBookParams) { p.Name = "  " }, ErrNameRequired},
		{"价格为0", func(p *NewBookParams) { p.Price = decimal.Zero }, ErrInvalidPrice},
		{"价格为负", func(p *NewBookParams) { p.Price = decimal.NewFromInt(-1) }, ErrInvalidPrice},
		{"ISBN位数不对", func(p *NewBookParams) { p.ISBN = "12345" }, ErrInvalidISBN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			_, err := NewBook("b1", p, time.Now())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewBook_EmptyISBNAllowed(t *testing.T) {
	p := validParams()
	p.ISBN = ""
	_, err := NewBook("b1", p, time.Now())
	assert.NoError(t, err)
}

func TestIsValidISBN(t *testing.T) {
	assert.True(t, IsValidISBN("9787115428028"))
	assert.True(t, IsValidISBN("0-306-40615-2"))
	assert.True(t, IsValidISBN("080442957X"))
	assert.False(t, IsValidISBN("978711542802"))
	assert.False(t, IsValidISBN("97871154280X8"))
}

func TestIsOwnedBy(t *testing.T) {
	b := &Book{SellerID: "seller-7"}
	assert.True(t, b.IsOwnedBy("seller-7"))
	assert.False(t, b.IsOwnedBy("seller-8"))
	assert.False(t, (&Book{}).IsOwnedBy(""))
}

type memRepo struct {
	books map[string]*Book
}

func (m *memRepo) Create(_ context.Context, b *Book) error { m.books[b.ID] = b; return nil }
func (m *memRepo) FindByID(_ context.Context, id string) (*Book, error) {
	if b, ok := m.books[id]; ok {
		return b, nil
	}
	return nil, ErrBookNotFound
}
func (m *memRepo) SetSeller(_ context.Context, id, sellerID string) error {
	m.books[id].SellerID = sellerID
	return nil
}
func (m *memRepo) Delete(_ context.Context, id string) error { delete(m.books, id); return nil }
func (m *memRepo) List(_ context.Context, p ListParams) ([]*Book, int64, error) {
	out := make([]*Book, 0, len(m.books))
	for _, b := range m.books {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func TestService_PublishBook(t *testing.T) {
	repo := &memRepo{books: map[string]*Book{}}
	svc := NewService(repo)

	b, err := svc.PublishBook(context.Background(), validParams())
	require.NoError(t, err)
	assert.Len(t, b.ID, 36)

	got, err := svc.GetBookByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	_, err = svc.GetBookByID(context.Background(), "")
	assert.ErrorIs(t, err, ErrBookNotFound)

	p := validParams()
	p.Language = ""
	_, err = svc.PublishBook(context.Background(), p)
	assert.ErrorIs(t, err, ErrLanguageRequired)
	assert.Len(t, repo.books, 1)
}

func TestListParams_Normalize(t *testing.T) {
	p := ListParams{Page: 0, PageSize: 1000}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = ListParams{Page: 3, PageSize: 10}
	p.Normalize()
	assert.Equal(t, 20, p.Offset())
}
