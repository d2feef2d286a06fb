package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/usedbooks/internal/domain/book"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

// BookCache 图书详情缓存，book:{id} -> JSON
type BookCache struct {
	client redis.UniversalClient
	call   remote.Caller
}

var _ book.Cache = (*BookCache)(nil)

// NewBookCache 创建图书缓存
func NewBookCache(client redis.UniversalClient, call remote.Caller) *BookCache {
	return &BookCache{client: client, call: call}
}

func bookKey(id string) string {
	return "book:" + id
}

// Get 未命中返回 nil, nil
func (c *BookCache) Get(ctx context.Context, id string) (*book.Book, error) {
	var data []byte
	err := c.call.Do(ctx, "redis.book.get", func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, bookKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil || data == nil {
		return nil, err
	}

	var b book.Book
	if err := json.Unmarshal(data, &b); err != nil {
		// 缓存内容损坏按未命中处理，顺手删掉
		_ = c.Delete(ctx, id)
		return nil, nil
	}
	return &b, nil
}

// Set 写入缓存
func (c *BookCache) Set(ctx context.Context, b *book.Book, ttl time.Duration) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.call.Do(ctx, "redis.book.set", func(ctx context.Context) error {
		return c.client.Set(ctx, bookKey(b.ID), data, ttl).Err()
	})
}

// Delete 删除缓存
func (c *BookCache) Delete(ctx context.Context, id string) error {
	return c.call.Do(ctx, "redis.book.delete", func(ctx context.Context) error {
		return c.client.Del(ctx, bookKey(id)).Err()
	})
}
