package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

// 订单三个位置对应的表
var orderTables = map[order.Location]string{
	order.LocationBuyer:  "buyer_orders",
	order.LocationSeller: "seller_orders",
	order.LocationGlobal: "orders",
}

// orderRepository 订单仓储实现(MySQL)
type orderRepository struct {
	db   *gorm.DB
	call remote.Caller
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB, call remote.Caller) order.Repository {
	return &orderRepository{db: db, call: call}
}

func tableFor(loc order.Location) (string, error) {
	t, ok := orderTables[loc]
	if !ok {
		return "", fmt.Errorf("未知的订单位置: %s", loc)
	}
	return t, nil
}

// Save 写入指定位置
// 同一位置已有该订单号时返回ErrDuplicateOrder,不覆盖已提交的订单
func (r *orderRepository) Save(ctx context.Context, loc order.Location, o *order.Order) error {
	table, err := tableFor(loc)
	if err != nil {
		return err
	}
	return r.call.Do(ctx, "mysql.order.save", func(ctx context.Context) error {
		if err := getDB(ctx, r.db).Table(table).Create(toOrderModel(o)).Error; err != nil {
			if isDuplicateError(err) {
				return order.ErrDuplicateOrder
			}
			return dbError(ctx, "写入"+table, err)
		}
		return nil
	})
}

// Delete 从指定位置删除
func (r *orderRepository) Delete(ctx context.Context, loc order.Location, id string) error {
	table, err := tableFor(loc)
	if err != nil {
		return err
	}
	return r.call.Do(ctx, "mysql.order.delete", func(ctx context.Context) error {
		if err := getDB(ctx, r.db).Table(table).Where("id = ?", id).Delete(&OrderModel{}).Error; err != nil {
			return dbError(ctx, "删除"+table, err)
		}
		return nil
	})
}

// FindByID 从全局位置查询
func (r *orderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	var model OrderModel
	err := r.call.Do(ctx, "mysql.order.find", func(ctx context.Context) error {
		err := getDB(ctx, r.db).Table(orderTables[order.LocationGlobal]).Where("id = ?", id).First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return order.ErrOrderNotFound
			}
			return dbError(ctx, "查询订单", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toOrderEntity(&model), nil
}

// UpdateStatus 更新指定位置的状态
func (r *orderRepository) UpdateStatus(ctx context.Context, loc order.Location, id string, status order.Status, updatedAt time.Time) error {
	table, err := tableFor(loc)
	if err != nil {
		return err
	}
	return r.call.Do(ctx, "mysql.order.update_status", func(ctx context.Context) error {
		result := getDB(ctx, r.db).Table(table).Where("id = ?", id).
			Updates(map[string]interface{}{"status": string(status), "updated_at": updatedAt})
		if result.Error != nil {
			return dbError(ctx, "更新"+table, result.Error)
		}
		if result.RowsAffected == 0 {
			return order.ErrOrderNotFound
		}
		return nil
	})
}

// ListByBuyer 买家位置的订单
func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID uint) ([]*order.Order, error) {
	return r.list(ctx, order.LocationBuyer, "buyer_id = ?", buyerID)
}

// ListBySeller 卖家位置的订单
func (r *orderRepository) ListBySeller(ctx context.Context, sellerID string) ([]*order.Order, error) {
	return r.list(ctx, order.LocationSeller, "seller_id = ?", sellerID)
}

func (r *orderRepository) list(ctx context.Context, loc order.Location, cond string, arg interface{}) ([]*order.Order, error) {
	table := orderTables[loc]
	var models []OrderModel
	err := r.call.Do(ctx, "mysql.order.list", func(ctx context.Context) error {
		if err := getDB(ctx, r.db).Table(table).Where(cond, arg).Order("created_at DESC").Find(&models).Error; err != nil {
			return dbError(ctx, "查询"+table, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	orders := make([]*order.Order, 0, len(models))
	for i := range models {
		orders = append(orders, toOrderEntity(&models[i]))
	}
	return orders, nil
}

func toOrderModel(o *order.Order) *OrderModel {
	return &OrderModel{
		ID:         o.ID,
		BuyerID:    o.BuyerID,
		BuyerEmail: o.BuyerEmail,
		SellerID:   o.SellerID,
		BookID:     o.BookID,
		BookName:   o.BookName,
		Quantity:   o.Quantity,
		UnitPrice:  o.UnitPrice,
		TotalPrice: o.TotalPrice,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func toOrderEntity(m *OrderModel) *order.Order {
	return &order.Order{
		ID:         m.ID,
		BuyerID:    m.BuyerID,
		BuyerEmail: m.BuyerEmail,
		SellerID:   m.SellerID,
		BookID:     m.BookID,
		BookName:   m.BookName,
		Quantity:   m.Quantity,
		UnitPrice:  m.UnitPrice,
		TotalPrice: m.TotalPrice,
		Status:     order.Status(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
