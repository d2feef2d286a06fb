// Package upload 图片中转：接收浏览器上传的图片，转存到云图床，返回公开URL
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiebiao/usedbooks/internal/domain/media"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
	"github.com/xiebiao/usedbooks/pkg/metrics"
)

// MaxFiles 单次请求最多上传的文件数
const MaxFiles = 10

var (
	// ErrNoFiles 请求里没有文件
	ErrNoFiles = apperrors.New(apperrors.ErrCodeInvalidParams, "No files uploaded.")

	// ErrTooManyFiles 超过文件数上限
	ErrTooManyFiles = apperrors.New(apperrors.ErrCodeInvalidParams, "Too many files.")

	// ErrFileTooLarge 单个文件超过大小上限
	ErrFileTooLarge = apperrors.New(apperrors.ErrCodeInvalidParams, "File too large.")
)

// UseCase 图片中转
type UseCase struct {
	store    media.Store
	tempDir  string
	maxFiles int
	maxBytes int64
	logger   *zap.Logger
	now      func() time.Time
}

// NewUseCase 创建图片中转用例
// maxFiles<=0或超过MaxFiles时取MaxFiles；maxBytes<=0表示不限制单文件大小
func NewUseCase(store media.Store, tempDir string, maxFiles int, maxBytes int64, logger *zap.Logger) *UseCase {
	if maxFiles <= 0 || maxFiles > MaxFiles {
		maxFiles = MaxFiles
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &UseCase{
		store:    store,
		tempDir:  tempDir,
		maxFiles: maxFiles,
		maxBytes: maxBytes,
		logger:   logger,
		now:      time.Now,
	}
}

// Execute 上传所有文件，返回顺序与输入一致
// 无论成功失败，临时文件都会被删除
func (uc *UseCase) Execute(ctx context.Context, files []*multipart.FileHeader) (results []*media.Result, err error) {
	defer func() { metrics.IncCounterVec(metrics.UploadsTotal, map[string]string{"result": uploadResult(err)}) }()

	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > uc.maxFiles {
		return nil, ErrTooManyFiles
	}
	if uc.maxBytes > 0 {
		for _, fh := range files {
			if fh.Size > uc.maxBytes {
				return nil, ErrFileTooLarge
			}
		}
	}

	stamp := uc.now().UnixMilli()
	batch := uuid.NewString()[:8]
	temps := make([]string, 0, len(files))
	defer func() {
		for _, p := range temps {
			if rmErr := os.Remove(p); rmErr != nil && !os.IsNotExist(rmErr) {
				uc.logger.Warn("remove temp file failed", zap.String("path", p), zap.Error(rmErr))
			}
		}
	}()

	for _, fh := range files {
		p, err := saveTemp(fh, uc.tempDir)
		if p != "" {
			temps = append(temps, p)
		}
		if err != nil {
			return nil, apperrors.ErrUploadFailed.WithCause(err)
		}
	}

	results = make([]*media.Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, fh := range files {
		g.Go(func() error {
			f, err := os.Open(temps[i])
			if err != nil {
				return apperrors.ErrUploadFailed.WithCause(err)
			}
			defer f.Close()

			res, err := uc.store.Upload(gctx, media.Upload{
				PublicID:    PublicID(stamp, batch, i, fh.Filename),
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Body:        f,
			})
			if err != nil {
				return err
			}
			results[i] = res
			metrics.IncCounter(metrics.UploadedFilesTotal)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.logger.Error("upload to media host failed", zap.Int("files", len(files)), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("files uploaded", zap.Int("files", len(files)))
	return results, nil
}

// PublicID 图床中的文件名：uploads/{毫秒时间戳}_{请求批次}_{序号}{扩展名}
// 批次是每个请求随机生成的，同一毫秒的两个请求不会覆盖彼此的文件
func PublicID(stamp int64, batch string, index int, filename string) string {
	return fmt.Sprintf("uploads/%d_%s_%d%s", stamp, batch, index, filepath.Ext(filename))
}

// saveTemp 把上传内容写到tempDir下的唯一临时文件，返回其路径
// 出错时也可能返回已创建的路径，调用方负责删除
func saveTemp(fh *multipart.FileHeader, tempDir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.CreateTemp(tempDir, "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return out.Name(), err
	}
	return out.Name(), out.Close()
}

func uploadResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNoFiles):
		return "empty"
	}
	return "failed"
}
