package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xiebiao/usedbooks/internal/domain/book"
	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/internal/domain/seller"
)

// memOrders 三个位置的内存订单仓储，可按位置注入写入/删除失败
// 与MySQL一致：同一位置重复写入同一订单号返回ErrDuplicateOrder
type memOrders struct {
	mu          sync.Mutex
	data        map[order.Location]map[string]*order.Order
	saveErr     map[order.Location]error
	deleteErr   map[order.Location]error
	deleteBlock map[order.Location]bool // 删除一直阻塞到ctx结束
	saves       int
}

func newMemOrders() *memOrders {
	m := &memOrders{
		data:        map[order.Location]map[string]*order.Order{},
		saveErr:     map[order.Location]error{},
		deleteErr:   map[order.Location]error{},
		deleteBlock: map[order.Location]bool{},
	}
	for _, loc := range order.AllLocations() {
		m.data[loc] = map[string]*order.Order{}
	}
	return m
}

func (m *memOrders) Save(_ context.Context, loc order.Location, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if err := m.saveErr[loc]; err != nil {
		return err
	}
	if _, exists := m.data[loc][o.ID]; exists {
		return order.ErrDuplicateOrder
	}
	cp := *o
	m.data[loc][o.ID] = &cp
	return nil
}

func (m *memOrders) Delete(ctx context.Context, loc order.Location, id string) error {
	m.mu.Lock()
	block := m.deleteBlock[loc]
	m.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteErr[loc]; err != nil {
		return err
	}
	delete(m.data[loc], id)
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[order.LocationGlobal][id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, loc order.Location, id string, status order.Status, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[loc][id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	return nil
}

func (m *memOrders) ListByBuyer(_ context.Context, buyerID uint) ([]*order.Order, error) {
	return m.list(order.LocationBuyer, func(o *order.Order) bool { return o.BuyerID == buyerID }), nil
}

func (m *memOrders) ListBySeller(_ context.Context, sellerID string) ([]*order.Order, error) {
	return m.list(order.LocationSeller, func(o *order.Order) bool { return o.SellerID == sellerID }), nil
}

func (m *memOrders) list(loc order.Location, keep func(*order.Order) bool) []*order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*order.Order{}
	for _, o := range m.data[loc] {
		if keep(o) {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memOrders) count(loc order.Location) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data[loc])
}

// memSellers 卖家仓储
type memSellers struct {
	mu      sync.Mutex
	sellers map[string]*seller.Seller
	owners  map[string]string
}

func newMemSellers() *memSellers {
	return &memSellers{sellers: map[string]*seller.Seller{}, owners: map[string]string{}}
}

func (m *memSellers) Upsert(_ context.Context, s *seller.Seller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sellers[s.ID] = &cp
	return nil
}

func (m *memSellers) FindByEmail(_ context.Context, email string) (*seller.Seller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sellers {
		if s.Email == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, seller.ErrSellerNotFound
}

func (m *memSellers) AttachBook(_ context.Context, sellerID, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[bookID] = sellerID
	return nil
}

func (m *memSellers) DetachBook(_ context.Context, _, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.owners, bookID)
	return nil
}

func (m *memSellers) FindOwner(_ context.Context, bookID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.owners[bookID]
	return id, ok, nil
}

// stubBooks 只实现按ID查询
type stubBooks struct {
	books map[string]*book.Book
	err   error
}

func (s *stubBooks) PublishBook(context.Context, book.NewBookParams) (*book.Book, error) {
	return nil, errors.New("not implemented")
}

func (s *stubBooks) GetBookByID(_ context.Context, id string) (*book.Book, error) {
	if s.err != nil {
		return nil, s.err
	}
	b, ok := s.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	return b, nil
}

func (s *stubBooks) ListBooks(context.Context, book.ListParams) ([]*book.Book, int64, error) {
	return nil, 0, errors.New("not implemented")
}

// memJournal 对账日志
type memJournal struct {
	mu    sync.Mutex
	fixes map[string]*order.PendingFix
	seq   int
}

func newMemJournal() *memJournal {
	return &memJournal{fixes: map[string]*order.PendingFix{}}
}

func (j *memJournal) Record(_ context.Context, fix *order.PendingFix) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.seq++
	if fix.ID == "" {
		fix.ID = fmt.Sprintf("fix-%03d", j.seq)
	}
	cp := *fix
	j.fixes[fix.ID] = &cp
	return nil
}

func (j *memJournal) List(context.Context) ([]*order.PendingFix, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := []*order.PendingFix{}
	for _, f := range j.fixes {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (j *memJournal) Update(_ context.Context, fix *order.PendingFix) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	cp := *fix
	j.fixes[fix.ID] = &cp
	return nil
}

func (j *memJournal) Resolve(_ context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.fixes, id)
	return nil
}

func (j *memJournal) byKind(kind order.FixKind) []*order.PendingFix {
	all, _ := j.List(context.Background())
	out := []*order.PendingFix{}
	for _, f := range all {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// recordingPublisher 记录发布的订单
type recordingPublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *recordingPublisher) PublishCreated(_ context.Context, o *order.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, o.ID)
	return p.err
}

// inlineTx 直接执行fn
type inlineTx struct{ calls int }

func (t *inlineTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}
