// Package bolt 基于BoltDB的本地对账日志
//
// 补偿失败时把待修复项写到本地文件，即使MySQL/Redis此刻不可用也不会丢。
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/domain/order"
)

var bucketName = []byte("pending_fixes")

// Open 打开数据库文件并确保bucket存在
func Open(path string, timeout time.Duration) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("打开对账日志失败: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("创建bucket失败: %w", err)
	}
	return db, nil
}

// Journal order.Journal的BoltDB实现
type Journal struct {
	db     *bolt.DB
	logger *zap.Logger
	now    func() time.Time
}

var _ order.Journal = (*Journal)(nil)

// NewJournal 创建对账日志
func NewJournal(db *bolt.DB, logger *zap.Logger) *Journal {
	return &Journal{db: db, logger: logger, now: time.Now}
}

// Close 关闭数据库文件
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record 记录一条待修复项，ID为空时自动生成
func (j *Journal) Record(_ context.Context, fix *order.PendingFix) error {
	now := j.now()
	if fix.ID == "" {
		fix.ID = uuid.NewString()
	}
	if fix.CreatedAt.IsZero() {
		fix.CreatedAt = now
	}
	fix.UpdatedAt = now

	if err := j.put(fix); err != nil {
		return err
	}
	j.logger.Warn("pending fix recorded",
		zap.String("fix_id", fix.ID),
		zap.String("kind", string(fix.Kind)),
		zap.String("order_id", fix.OrderID),
		zap.String("book_id", fix.BookID),
		zap.String("reason", fix.Reason),
	)
	return nil
}

// List 按ID顺序列出所有待修复项
func (j *Journal) List(_ context.Context) ([]*order.PendingFix, error) {
	fixes := []*order.PendingFix{}
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(_, v []byte) error {
			var fix order.PendingFix
			if err := json.Unmarshal(v, &fix); err != nil {
				return err
			}
			fixes = append(fixes, &fix)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("读取对账日志失败: %w", err)
	}
	return fixes, nil
}

// Update 覆盖一条待修复项（重试次数、最近一次失败原因）
func (j *Journal) Update(_ context.Context, fix *order.PendingFix) error {
	fix.UpdatedAt = j.now()
	return j.put(fix)
}

// Resolve 修复完成后删除
func (j *Journal) Resolve(_ context.Context, id string) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(id))
	})
}

func (j *Journal) put(fix *order.PendingFix) error {
	data, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(fix.ID), data)
	})
}
