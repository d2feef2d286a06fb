package user

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/usedbooks/internal/domain/session"
	"github.com/xiebiao/usedbooks/internal/domain/user"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
	"github.com/xiebiao/usedbooks/pkg/jwt"
)

type memUsers struct {
	mu     sync.Mutex
	nextID uint
	users  map[string]*user.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]*user.User{}} }

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return apperrors.ErrEmailDuplicate
	}
	m.nextID++
	u.ID = m.nextID
	m.users[u.Email] = u
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id uint) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

type memSessions struct {
	sessions  map[uint]session.Session
	blacklist map[string]time.Duration
	saveErr   error
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[uint]session.Session{}, blacklist: map[string]time.Duration{}}
}

func (m *memSessions) Save(_ context.Context, sess session.Session, _ time.Duration) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[sess.UserID] = sess
	return nil
}

func (m *memSessions) Delete(_ context.Context, userID uint) error {
	delete(m.sessions, userID)
	return nil
}

func (m *memSessions) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	m.blacklist[token] = ttl
	return nil
}

type verifierFunc func(ctx context.Context, idToken string) (*user.FederatedIdentity, error)

func (f verifierFunc) Verify(ctx context.Context, idToken string) (*user.FederatedIdentity, error) {
	return f(ctx, idToken)
}

type fixture struct {
	users    *memUsers
	sessions *memSessions
	jwt      *jwt.Manager
	svc      user.Service
}

func newFixture() *fixture {
	f := &fixture{
		users:    newMemUsers(),
		sessions: newMemSessions(),
		jwt:      jwt.NewManager("test-secret", time.Hour, 24*time.Hour),
	}
	f.svc = user.NewService(f.users, bcrypt.MinCost)
	return f
}

func (f *fixture) login(verifier user.IdentityVerifier) *LoginUseCase {
	return NewLoginUseCase(f.svc, verifier, f.jwt, f.sessions, 24*time.Hour, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	info, err := NewRegisterUseCase(f.svc).Execute(ctx, RegisterRequest{Email: "Reader@Example.com", Password: "secret1", DisplayName: "Reader"})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", info.Email)

	_, err = NewRegisterUseCase(f.svc).Execute(ctx, RegisterRequest{Email: "reader@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)

	resp, err := f.login(nil).Execute(ctx, LoginRequest{Email: "reader@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, info.ID, resp.User.ID)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := f.jwt.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, info.ID, claims.UserID)
	assert.Equal(t, "reader@example.com", f.sessions.sessions[info.ID].Email)

	_, err = f.login(nil).Execute(ctx, LoginRequest{Email: "reader@example.com", Password: "wrong!!"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
}

func TestLogin_SessionSaveFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := NewRegisterUseCase(f.svc).Execute(ctx, RegisterRequest{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	f.sessions.saveErr = errors.New("redis down")

	resp, err := f.login(nil).Execute(ctx, LoginRequest{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestFederatedLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.login(nil).ExecuteFederated(ctx, "token")
	assert.ErrorIs(t, err, ErrFederatedDisabled)

	verifier := verifierFunc(func(_ context.Context, idToken string) (*user.FederatedIdentity, error) {
		if idToken != "good" {
			return nil, apperrors.ErrInvalidToken
		}
		return &user.FederatedIdentity{Provider: "google", Subject: "42", Email: "fed@example.com", DisplayName: "Fed"}, nil
	})

	first, err := f.login(verifier).ExecuteFederated(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "google", first.User.Provider)

	second, err := f.login(verifier).ExecuteFederated(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID, "第二次登录不应创建新用户")

	_, err = f.login(verifier).ExecuteFederated(ctx, "bad")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestLogoutAndRefresh(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := NewRegisterUseCase(f.svc).Execute(ctx, RegisterRequest{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	resp, err := f.login(nil).Execute(ctx, LoginRequest{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	refreshed, err := NewRefreshUseCase(f.jwt).Execute(resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = NewRefreshUseCase(f.jwt).Execute(resp.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	sess := session.New(resp.User.ID, resp.User.Email, "")
	require.NoError(t, NewLogoutUseCase(f.sessions, f.jwt).Execute(ctx, sess, resp.AccessToken))
	assert.Empty(t, f.sessions.sessions)
	assert.Equal(t, time.Hour, f.sessions.blacklist[resp.AccessToken])

	err = NewLogoutUseCase(f.sessions, f.jwt).Execute(ctx, session.Anonymous, "x")
	assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
}

func TestProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	info, err := NewRegisterUseCase(f.svc).Execute(ctx, RegisterRequest{Email: "a@example.com", Password: "secret1", DisplayName: "A"})
	require.NoError(t, err)

	me, err := NewProfileUseCase(f.svc).Execute(ctx, session.New(info.ID, info.Email, ""))
	require.NoError(t, err)
	assert.Equal(t, "A", me.DisplayName)

	_, err = NewProfileUseCase(f.svc).Execute(ctx, session.Anonymous)
	assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
}
