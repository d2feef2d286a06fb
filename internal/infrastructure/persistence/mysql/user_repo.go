package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/usedbooks/internal/domain/user"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

// userRepository 用户仓储实现(MySQL)
type userRepository struct {
	db   *gorm.DB
	call remote.Caller
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB, call remote.Caller) user.Repository {
	return &userRepository{db: db, call: call}
}

// Create 创建用户,邮箱重复返回ErrEmailDuplicate
func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	model := &UserModel{
		Email:       u.Email,
		Password:    u.Password,
		DisplayName: u.DisplayName,
		Provider:    u.Provider,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	err := r.call.Do(ctx, "mysql.user.create", func(ctx context.Context) error {
		if err := getDB(ctx, r.db).Create(model).Error; err != nil {
			if isDuplicateError(err) {
				return apperrors.ErrEmailDuplicate
			}
			return dbError(ctx, "创建用户", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	u.ID = model.ID
	return nil
}

// FindByID 根据ID查找用户
func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	return r.findOne(ctx, "mysql.user.find_by_id", func(db *gorm.DB, model *UserModel) error {
		return db.First(model, id).Error
	})
}

// FindByEmail 根据邮箱查找用户
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, "mysql.user.find_by_email", func(db *gorm.DB, model *UserModel) error {
		return db.Where("email = ?", user.NormalizeEmail(email)).First(model).Error
	})
}

func (r *userRepository) findOne(ctx context.Context, op string, query func(db *gorm.DB, model *UserModel) error) (*user.User, error) {
	var model UserModel
	err := r.call.Do(ctx, op, func(ctx context.Context) error {
		if err := query(getDB(ctx, r.db), &model); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return dbError(ctx, "查询用户", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toUserEntity(&model), nil
}

func toUserEntity(m *UserModel) *user.User {
	return &user.User{
		ID:          m.ID,
		Email:       m.Email,
		Password:    m.Password,
		DisplayName: m.DisplayName,
		Provider:    m.Provider,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
