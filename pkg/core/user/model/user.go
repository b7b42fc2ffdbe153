package model

import (
	"time"

	"gorm.io/gorm"
)

// 账户角色
const (
	RoleTraveler = "traveler"
	RoleAdmin    = "admin"
)

type User struct {
	ID             int64          `gorm:"primaryKey;autoIncrement"`
	UID            string         `gorm:"type:varchar(36);uniqueIndex;not null"` // 对外暴露的用户标识
	Username       string         `gorm:"type:varchar(100);uniqueIndex;not null"`
	Email          string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash   string         `gorm:"type:varchar(255);not null"`
	DisplayName    string         `gorm:"type:varchar(100)"`
	Role           string         `gorm:"type:varchar(32);default:traveler;index;not null"`
	FollowersCount int64          `gorm:"default:0;not null;index"`
	FollowingCount int64          `gorm:"default:0;not null"`
	Extra          string         `gorm:"type:text"` // 自由格式的资料 JSON（头像、简介等），只在 NormalizeProfile 中读取
	IsActive       bool           `gorm:"default:true;index"`
	Version        int            `gorm:"default:1;not null"` // 乐观锁
	CreatedAt      time.Time      `gorm:"index;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"` // 软删除标记
}

// TableName 定义映射表名
func (User) TableName() string {
	return "base_users"
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}
