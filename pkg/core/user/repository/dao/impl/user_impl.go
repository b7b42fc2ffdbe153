package dao

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	errs "sanchari/pkg/common/errors"
	"sanchari/pkg/core/user/model"
	"sanchari/pkg/core/user/repository/dao"
)

type GormUserRepository struct {
	db *gorm.DB
}

var _ dao.UserRepository = (*GormUserRepository)(nil)

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("is_active = ?", true)
}

// QueryByUID 查询单个活跃用户
func (r *GormUserRepository) QueryByUID(ctx context.Context, uid string) (model.User, error) {
	var user model.User
	err := r.active(ctx).Where("uid = ?", uid).First(&user).Error
	if err != nil {
		return model.User{}, fmt.Errorf("user query failed: %w", errs.WrapGormError(err, errs.ErrUserNotFound))
	}
	return user, nil
}

// QueryByUIDs returns the active users among uids, in no particular order.
// Unknown ids are skipped.
func (r *GormUserRepository) QueryByUIDs(ctx context.Context, uids []string) ([]model.User, error) {
	if len(uids) == 0 {
		return []model.User{}, nil
	}
	var users []model.User
	if err := r.active(ctx).Where("uid IN ?", uids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("users query failed: %w", errs.WrapGormError(err, nil))
	}
	return users, nil
}

func (r *GormUserRepository) QueryByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	err := r.active(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return model.User{}, fmt.Errorf("user lookup failed: %w", errs.WrapGormError(err, errs.ErrUserNotFound))
	}
	return user, nil
}

// Check username existence with active status
func (r *GormUserRepository) IsUsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.active(ctx).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check username: %w", errs.WrapGormError(err, nil))
	}
	return count > 0, nil
}

// Check email existence with active status
func (r *GormUserRepository) IsEmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.active(ctx).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", errs.WrapGormError(err, nil))
	}
	return count > 0, nil
}

// Create new user with transaction
func (r *GormUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if errs.IsDuplicateError(err) {
				return errs.ErrDuplicateEntry
			}
			return fmt.Errorf("user creation failed: %w", errs.WrapGormError(err, nil))
		}
		return nil
	})
}

// Update password with version control
func (r *GormUserRepository) UpdatePassword(ctx context.Context, uid string, newPwdHash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("uid = ? AND is_active = ?", uid, true).
			First(&user).Error; err != nil {
			return errs.WrapGormError(err, errs.ErrUserNotFound)
		}

		result := tx.Model(&model.User{}).
			Where("id = ? AND version = ?", user.ID, user.Version).
			Updates(map[string]interface{}{
				"password_hash": newPwdHash,
				"version":       user.Version + 1,
				"updated_at":    time.Now(),
			})

		if result.Error != nil {
			return fmt.Errorf("password update failed: %w", errs.WrapGormError(result.Error, nil))
		}

		if result.RowsAffected == 0 {
			return errs.ErrStaleVersion
		}
		return nil
	})
}

// ListPopular 推荐源：按粉丝数倒序的活跃用户，exclude 中的 uid 在 Limit 之前过滤
func (r *GormUserRepository) ListPopular(ctx context.Context, limit int, exclude []string) ([]model.User, error) {
	if limit <= 0 {
		return []model.User{}, nil
	}
	query := r.active(ctx)
	if len(exclude) > 0 {
		query = query.Where("uid NOT IN ?", exclude)
	}
	var users []model.User
	err := query.
		Order("followers_count DESC").
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("popular users query failed: %w", errs.WrapGormError(err, nil))
	}
	return users, nil
}
