package dao

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	errs "sanchari/pkg/common/errors"
	usermodel "sanchari/pkg/core/user/model"
	"sanchari/pkg/core/verification/model"
	"sanchari/pkg/core/verification/repository/dao"
)

type GormChangeRepository struct {
	db *gorm.DB
}

var _ dao.ChangeRepository = (*GormChangeRepository)(nil)

func NewGormChangeRepository(db *gorm.DB) *GormChangeRepository {
	return &GormChangeRepository{db: db}
}

func (r *GormChangeRepository) Create(ctx context.Context, change *model.PendingChange) error {
	slot := change.UserUID
	change.OpenSlot = &slot

	err := r.db.WithContext(ctx).Create(change).Error
	if errs.IsDuplicateError(err) {
		// open_slot 唯一索引保证同一用户只有一条未结束的变更
		return errs.ErrChangePending
	}
	if err != nil {
		return fmt.Errorf("create account change: %w", errs.WrapGormError(err, nil))
	}
	return nil
}

func (r *GormChangeRepository) FindOpenByUser(ctx context.Context, userUID string) (*model.PendingChange, error) {
	var change model.PendingChange
	err := r.db.WithContext(ctx).
		Where("open_slot = ?", userUID).
		First(&change).Error
	if err != nil {
		return nil, errs.WrapGormError(err, errs.ErrNoPendingChange)
	}
	return &change, nil
}

func (r *GormChangeRepository) FindByRequestID(ctx context.Context, requestID string) (*model.PendingChange, error) {
	var change model.PendingChange
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&change).Error
	if err != nil {
		return nil, errs.WrapGormError(err, errs.ErrNoPendingChange)
	}
	return &change, nil
}

func (r *GormChangeRepository) Save(ctx context.Context, change *model.PendingChange) error {
	if change.ID == 0 {
		return fmt.Errorf("save account change: %w", errs.ErrNoPendingChange)
	}
	result := r.db.WithContext(ctx).Save(change)
	if result.Error != nil {
		return fmt.Errorf("save account change: %w", errs.WrapGormError(result.Error, nil))
	}
	return nil
}

func (r *GormChangeRepository) Delete(ctx context.Context, change *model.PendingChange) error {
	result := r.db.WithContext(ctx).Delete(&model.PendingChange{}, change.ID)
	if result.Error != nil {
		return fmt.Errorf("delete account change: %w", errs.WrapGormError(result.Error, nil))
	}
	if result.RowsAffected == 0 {
		return errs.ErrNoPendingChange
	}
	return nil
}

// Decide writes the review result and, on approval, the user's new role in one transaction
func (r *GormChangeRepository) Decide(ctx context.Context, requestID string, status model.Status, reviewer, notes string, at time.Time) (*model.PendingChange, error) {
	if status != model.StatusApproved && status != model.StatusRejected {
		return nil, errs.ErrInvalidDecision
	}

	var change model.PendingChange
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", requestID).
			First(&change).Error; err != nil {
			return errs.WrapGormError(err, errs.ErrNoPendingChange)
		}
		if change.Status != model.StatusSubmitted {
			return errs.ErrNotSubmitted
		}

		change.Status = status
		change.OpenSlot = nil
		change.ReviewedBy = reviewer
		change.ReviewNotes = notes
		change.ReviewedAt = &at
		if err := tx.Save(&change).Error; err != nil {
			return fmt.Errorf("record review: %w", errs.WrapGormError(err, nil))
		}

		if status != model.StatusApproved {
			return nil
		}
		result := tx.Model(&usermodel.User{}).
			Where("uid = ? AND is_active = ?", change.UserUID, true).
			Update("role", change.TargetRole)
		if result.Error != nil {
			return fmt.Errorf("grant role: %w", errs.WrapGormError(result.Error, nil))
		}
		if result.RowsAffected == 0 {
			return errs.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

func (r *GormChangeRepository) MarkStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.PendingChange{}).
		Where("status = ? AND updated_at < ?", model.StatusInProgress, before).
		Updates(map[string]interface{}{
			"status":    model.StatusIncomplete,
			"open_slot": nil,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("mark stale changes: %w", errs.WrapGormError(result.Error, nil))
	}
	return result.RowsAffected, nil
}
