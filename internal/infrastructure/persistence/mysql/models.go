package mysql

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UserModel GORM用户模型
// domain/user.User是领域实体,不依赖GORM;Repository负责转换
type UserModel struct {
	ID          uint      `gorm:"primaryKey"`
	Email       string    `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password    string    `gorm:"size:255;not null;default:'';comment:密码(bcrypt),联合登录为空"`
	DisplayName string    `gorm:"size:100;not null;default:'';comment:显示名称"`
	Provider    string    `gorm:"size:20;not null;default:'password';comment:账号来源"`
	CreatedAt   time.Time `gorm:"comment:创建时间"`
	UpdatedAt   time.Time `gorm:"comment:更新时间"`
}

func (UserModel) TableName() string {
	return "users"
}

// StringList 以JSON数组形式存储的字符串列表
type StringList []string

// Value 实现driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StringList: 不支持的类型 %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// BookModel GORM图书模型
// 二手书允许同一ISBN多次上架,ISBN只建普通索引
type BookModel struct {
	ID              string          `gorm:"primaryKey;size:36"`
	Name            string          `gorm:"index:idx_search;size:200;not null;comment:书名"`
	ISBN            string          `gorm:"index;size:20;comment:ISBN"`
	Author          string          `gorm:"index:idx_search;size:100;comment:作者"`
	Description     string          `gorm:"type:text;comment:描述"`
	Category        string          `gorm:"index;size:50;comment:分类"`
	Language        string          `gorm:"size:30;not null;comment:语言"`
	PublicationYear int             `gorm:"comment:出版年份"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:价格"`
	CoverPics       StringList      `gorm:"type:text;comment:封面图URL(JSON数组)"`
	SellerID        string          `gorm:"index;size:40;comment:卖家ID"`
	CreatedAt       time.Time       `gorm:"index;comment:创建时间"`
}

func (BookModel) TableName() string {
	return "books"
}

// SellerModel 卖家,ID为 seller-{userID}
type SellerModel struct {
	ID        string    `gorm:"primaryKey;size:40"`
	UserID    uint      `gorm:"uniqueIndex;not null"`
	Email     string    `gorm:"index;size:100;not null"`
	Name      string    `gorm:"size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SellerModel) TableName() string {
	return "sellers"
}

// SellerBookModel 卖家拥有的图书,book_id为主键保证一本书只有一个卖家
type SellerBookModel struct {
	BookID    string `gorm:"primaryKey;size:36"`
	SellerID  string `gorm:"index;size:40;not null"`
	CreatedAt time.Time
}

func (SellerBookModel) TableName() string {
	return "seller_books"
}

// CartEntryModel 购物车条目,(user_id, book_id)联合主键
type CartEntryModel struct {
	UserID  uint      `gorm:"primaryKey;autoIncrement:false"`
	BookID  string    `gorm:"primaryKey;size:36"`
	AddedAt time.Time `gorm:"index;not null"`
}

func (CartEntryModel) TableName() string {
	return "cart_entries"
}

// OrderModel 订单模型,buyer_orders / seller_orders / orders 三张表共用
type OrderModel struct {
	ID         string          `gorm:"primaryKey;size:80"`
	BuyerID    uint            `gorm:"index;not null"`
	BuyerEmail string          `gorm:"size:100"`
	SellerID   string          `gorm:"index;size:40;not null"`
	BookID     string          `gorm:"index;size:36;not null"`
	BookName   string          `gorm:"size:200"`
	Quantity   int64           `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status     string          `gorm:"index;size:20;not null"`
	CreatedAt  time.Time       `gorm:"index"`
	UpdatedAt  time.Time
}
