package seller

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/usedbooks/internal/domain/session"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

type memRepo struct {
	mu      sync.Mutex
	sellers map[string]*Seller
	owners  map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{sellers: map[string]*Seller{}, owners: map[string]string{}}
}

func (m *memRepo) Upsert(_ context.Context, s *Seller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sellers[s.ID]; ok {
		existing.Email, existing.Name = s.Email, s.Name
		return nil
	}
	cp := *s
	m.sellers[s.ID] = &cp
	return nil
}

func (m *memRepo) FindByEmail(_ context.Context, email string) (*Seller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sellers {
		if s.Email == email {
			return s, nil
		}
	}
	return nil, ErrSellerNotFound
}

func (m *memRepo) AttachBook(_ context.Context, sellerID, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[bookID] = sellerID
	return nil
}

func (m *memRepo) DetachBook(_ context.Context, _, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.owners, bookID)
	return nil
}

func (m *memRepo) FindOwner(_ context.Context, bookID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.owners[bookID]
	return id, ok, nil
}

func TestIDForUser(t *testing.T) {
	assert.Equal(t, "seller-42", IDForUser(42))
}

func TestResolveOrCreateSeller_Idempotent(t *testing.T) {
	repo := newMemRepo()
	dir := NewDirectory(repo)
	sess := session.New(42, "seller@example.com", "Seller")

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := dir.ResolveOrCreateSeller(context.Background(), sess)
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, "seller-42", id)
	}
	assert.Len(t, repo.sellers, 1)
}

func TestResolveOrCreateSeller_Unauthenticated(t *testing.T) {
	dir := NewDirectory(newMemRepo())
	_, err := dir.ResolveOrCreateSeller(context.Background(), session.Anonymous)
	assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
}

func TestFindSellerForBook(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(newMemRepo())

	_, found, err := dir.FindSellerForBook(ctx, "b1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, dir.AttachBook(ctx, "seller-1", "b1"))
	id, found, err := dir.FindSellerForBook(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "seller-1", id)
}

func TestFindByEmail(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(newMemRepo())

	_, err := dir.FindByEmail(ctx, "")
	assert.ErrorIs(t, err, ErrSellerNotFound)

	_, err = dir.ResolveOrCreateSeller(ctx, session.New(5, "s@example.com", "S"))
	require.NoError(t, err)

	s, err := dir.FindByEmail(ctx, "s@example.com")
	require.NoError(t, err)
	assert.Equal(t, "seller-5", s.ID)
}
