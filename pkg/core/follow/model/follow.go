package model

import (
	"time"

	"gorm.io/gorm"
)

// Follow 关注关系：FollowerUID 关注了 FolloweeUID
type Follow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	FollowerUID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair,priority:1"`
	FolloweeUID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair,priority:2;index"`
	CreatedAt   time.Time `gorm:"index;autoCreateTime"`
}

func (Follow) TableName() string {
	return "follows"
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Follow{})
}
