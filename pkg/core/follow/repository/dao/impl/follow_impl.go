package dao

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	errs "sanchari/pkg/common/errors"
	"sanchari/pkg/core/follow/model"
	"sanchari/pkg/core/follow/repository/dao"
	usermodel "sanchari/pkg/core/user/model"
)

type GormFollowRepository struct {
	db *gorm.DB
}

var _ dao.FollowRepository = (*GormFollowRepository)(nil)

func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// Follow inserts the edge and updates both counters in one transaction
func (r *GormFollowRepository) Follow(ctx context.Context, followerUID, followeeUID string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActive(tx, followerUID, followeeUID); err != nil {
			return err
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Follow{FollowerUID: followerUID, FolloweeUID: followeeUID})
		if result.Error != nil {
			return fmt.Errorf("create follow: %w", errs.WrapGormError(result.Error, nil))
		}
		if result.RowsAffected == 0 {
			return nil
		}
		created = true

		return bumpCounters(tx, followerUID, followeeUID, 1)
	})
	return created, err
}

// Unfollow deletes the edge and updates both counters in one transaction
func (r *GormFollowRepository) Unfollow(ctx context.Context, followerUID, followeeUID string) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("follower_uid = ? AND followee_uid = ?", followerUID, followeeUID).
			Delete(&model.Follow{})
		if result.Error != nil {
			return fmt.Errorf("delete follow: %w", errs.WrapGormError(result.Error, nil))
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true

		return bumpCounters(tx, followerUID, followeeUID, -1)
	})
	return removed, err
}

func (r *GormFollowRepository) IsFollowing(ctx context.Context, followerUID, followeeUID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_uid = ? AND followee_uid = ?", followerUID, followeeUID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check follow: %w", errs.WrapGormError(err, nil))
	}
	return count > 0, nil
}

// FollowerUIDs 关注了 uid 的用户，最近关注的在前
func (r *GormFollowRepository) FollowerUIDs(ctx context.Context, uid string) ([]string, error) {
	var uids []string
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("followee_uid = ?", uid).
		Order("created_at DESC").Order("id DESC").
		Pluck("follower_uid", &uids).Error
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", errs.WrapGormError(err, nil))
	}
	return uids, nil
}

// FollowingUIDs uid 关注的用户
func (r *GormFollowRepository) FollowingUIDs(ctx context.Context, uid string) ([]string, error) {
	var uids []string
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_uid = ?", uid).
		Order("id ASC").
		Pluck("followee_uid", &uids).Error
	if err != nil {
		return nil, fmt.Errorf("list following: %w", errs.WrapGormError(err, nil))
	}
	return uids, nil
}

func requireActive(tx *gorm.DB, uids ...string) error {
	var count int64
	err := tx.Model(&usermodel.User{}).
		Where("uid IN ? AND is_active = ?", uids, true).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check users: %w", errs.WrapGormError(err, nil))
	}
	if count != int64(len(uids)) {
		return errs.ErrUserNotFound
	}
	return nil
}

func bumpCounters(tx *gorm.DB, followerUID, followeeUID string, delta int) error {
	if err := bump(tx, followerUID, "following_count", delta); err != nil {
		return err
	}
	return bump(tx, followeeUID, "followers_count", delta)
}

func bump(tx *gorm.DB, uid, column string, delta int) error {
	q := tx.Model(&usermodel.User{}).Where("uid = ?", uid)
	if delta < 0 {
		// 计数不允许减到负数
		q = q.Where(column + " > 0")
	}
	if err := q.UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error; err != nil {
		return fmt.Errorf("update %s: %w", column, errs.WrapGormError(err, nil))
	}
	return nil
}
