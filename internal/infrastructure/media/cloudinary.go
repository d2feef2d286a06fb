// Package media 云图床上传客户端
//
// 按Cloudinary的签名上传接口实现：multipart表单 + SHA1签名。
// 调用经过熔断器和单次超时保护，图床故障时快速失败而不是拖住请求。
package media

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/media"
	"github.com/xiebiao/usedbooks/internal/infrastructure/config"
	"github.com/xiebiao/usedbooks/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
	"github.com/xiebiao/usedbooks/pkg/metrics"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

// CloudinaryStore media.Store 的实现
type CloudinaryStore struct {
	uploadURL string
	apiKey    string
	apiSecret string
	client    *http.Client
	call      remote.Caller
	breaker   *circuitbreaker.CircuitBreaker
	logger    *zap.Logger
	now       func() time.Time
}

var _ media.Store = (*CloudinaryStore)(nil)

// NewCloudinaryStore 创建图床客户端
func NewCloudinaryStore(cfg config.MediaConfig, rc config.RemoteConfig, logger *zap.Logger) *CloudinaryStore {
	uploadURL := cfg.UploadURL
	if uploadURL == "" {
		uploadURL = fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", cfg.CloudName)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = rc.CallTimeout
	}

	return &CloudinaryStore{
		uploadURL: uploadURL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		client:    &http.Client{},
		call:      remote.NewCaller(timeout),
		breaker:   NewBreaker("media", rc, logger),
		logger:    logger,
		now:       time.Now,
	}
}

// NewBreaker 按配置创建熔断器，状态变化同步到Prometheus
func NewBreaker(name string, rc config.RemoteConfig, logger *zap.Logger) *circuitbreaker.CircuitBreaker {
	cfg := circuitbreaker.DefaultConfig()
	if rc.BreakerMaxFailures > 0 {
		maxFailures := uint32(rc.BreakerMaxFailures)
		cfg.ReadyToTrip = func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		}
	}
	if rc.BreakerOpenTimeout > 0 {
		cfg.Timeout = rc.BreakerOpenTimeout
	}
	if rc.BreakerHalfOpen > 0 {
		cfg.MaxRequests = uint32(rc.BreakerHalfOpen)
	}

	cb := circuitbreaker.NewCircuitBreaker(name, cfg)
	cb.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state changed",
			zap.String("name", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(to))
	})
	return cb
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload 上传单个文件
func (s *CloudinaryStore) Upload(ctx context.Context, u media.Upload) (*media.Result, error) {
	// 先把文件读进内存，熔断器半开探测失败时不会留下读了一半的Body
	content, err := io.ReadAll(u.Body)
	if err != nil {
		return nil, apperrors.ErrUploadFailed.WithCause(err)
	}

	var result *media.Result
	err = s.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		return s.call.Do(ctx, "media.upload", func(ctx context.Context) error {
			var err error
			result, err = s.post(ctx, u, content)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpenState) {
			return nil, apperrors.ErrUploadFailed.WithCause(err)
		}
		if apperrors.KindOf(err) == apperrors.KindTimeout {
			return nil, err
		}
		return nil, apperrors.ErrUploadFailed.WithCause(err)
	}
	return result, nil
}

func (s *CloudinaryStore) post(ctx context.Context, u media.Upload, content []byte) (*media.Result, error) {
	params := map[string]string{
		"public_id": u.PublicID,
		"timestamp": strconv.FormatInt(s.now().Unix(), 10),
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	_ = w.WriteField("api_key", s.apiKey)
	_ = w.WriteField("signature", Sign(params, s.apiSecret))

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, u.Filename))
	contentType := u.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("图床响应解析失败(status=%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("图床返回%d: %s", resp.StatusCode, msg)
	}

	url := out.SecureURL
	if url == "" {
		url = out.URL
	}
	s.logger.Debug("media uploaded", zap.String("public_id", out.PublicID), zap.String("url", url))
	return &media.Result{URL: url, PublicID: out.PublicID}, nil
}

// Sign 计算上传签名：参数按key排序拼成 k=v&k=v，再拼上secret取SHA1
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
