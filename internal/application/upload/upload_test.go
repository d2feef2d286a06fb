package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/media"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

type fakeStore struct {
	mu      sync.Mutex
	uploads map[string]string // public id -> content
	failOn  string
}

func (s *fakeStore) Upload(_ context.Context, u media.Upload) (*media.Result, error) {
	data, err := io.ReadAll(u.Body)
	if err != nil {
		return nil, err
	}
	if u.Filename == s.failOn {
		return nil, apperrors.ErrUploadFailed.WithCause(errors.New("host said no"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploads == nil {
		s.uploads = map[string]string{}
	}
	s.uploads[u.PublicID] = string(data)
	return &media.Result{URL: "https://cdn.example.com/" + u.PublicID, PublicID: u.PublicID}, nil
}

func fileHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range names {
		part, err := w.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["images"]
}

func newUseCase(t *testing.T, store media.Store) (*UseCase, string) {
	t.Helper()
	dir := t.TempDir()
	uc := NewUseCase(store, dir, 10, 1<<20, zap.NewNop())
	uc.now = func() time.Time { return time.UnixMilli(1727784000123) }
	return uc, dir
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "临时文件应被删除")
}

func TestUpload_Success(t *testing.T) {
	store := &fakeStore{}
	uc, dir := newUseCase(t, store)

	results, err := uc.Execute(context.Background(), fileHeaders(t, "front.jpg", "back.png"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Regexp(t, `^https://cdn\.example\.com/uploads/1727784000123_[0-9a-f]{8}_0\.jpg$`, results[0].URL)
	assert.Regexp(t, `^https://cdn\.example\.com/uploads/1727784000123_[0-9a-f]{8}_1\.png$`, results[1].URL)
	assert.Equal(t, "content of back.png", store.uploads[results[1].PublicID])

	assertDirEmpty(t, dir)
}

func TestUpload_NoFiles(t *testing.T) {
	uc, _ := newUseCase(t, &fakeStore{})
	_, err := uc.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestUpload_TooManyFiles(t *testing.T) {
	uc, _ := newUseCase(t, &fakeStore{})
	names := make([]string, 11)
	for i := range names {
		names[i] = fmt.Sprintf("%d.jpg", i)
	}
	_, err := uc.Execute(context.Background(), fileHeaders(t, names...))
	assert.ErrorIs(t, err, ErrTooManyFiles)
}

func TestUpload_FileTooLarge(t *testing.T) {
	uc, _ := newUseCase(t, &fakeStore{})
	uc.maxBytes = 4
	_, err := uc.Execute(context.Background(), fileHeaders(t, "big.jpg"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUpload_FailureCleansUp(t *testing.T) {
	uc, dir := newUseCase(t, &fakeStore{failOn: "back.png"})

	_, err := uc.Execute(context.Background(), fileHeaders(t, "front.jpg", "back.png"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUploadFailed, apperrors.KindOf(err))

	assertDirEmpty(t, dir)
}

// barrierStore 等两次上传都到达后才读取内容
type barrierStore struct {
	fakeStore
	arrived sync.WaitGroup
}

func (s *barrierStore) Upload(ctx context.Context, u media.Upload) (*media.Result, error) {
	s.arrived.Done()
	s.arrived.Wait()
	return s.fakeStore.Upload(ctx, u)
}

// 同一毫秒的两个请求共用临时目录，各自上传的仍是自己的内容
func TestUpload_ConcurrentRequestsDoNotShareFiles(t *testing.T) {
	store := &barrierStore{}
	store.arrived.Add(2)
	uc, dir := newUseCase(t, store)

	names := []string{"a.jpg", "b.jpg"}
	requests := make([][]*multipart.FileHeader, len(names))
	for i, name := range names {
		requests[i] = fileHeaders(t, name)
	}
	results := make([][]*media.Result, len(names))
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = uc.Execute(context.Background(), requests[i])
		}()
	}
	wg.Wait()

	for i, name := range names {
		require.NoError(t, errs[i], name)
		require.Len(t, results[i], 1)
		assert.Equal(t, "content of "+name, store.uploads[results[i][0].PublicID], name)
	}
	assert.NotEqual(t, results[0][0].PublicID, results[1][0].PublicID)
	assertDirEmpty(t, dir)
}

func TestPublicID(t *testing.T) {
	assert.Equal(t, "uploads/5_ab12cd34_2.jpeg", PublicID(5, "ab12cd34", 2, "cover.jpeg"))
	assert.Equal(t, "uploads/5_ab12cd34_0", PublicID(5, "ab12cd34", 0, "noext"))
}
