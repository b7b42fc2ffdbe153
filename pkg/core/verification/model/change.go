package model

import (
	"maps"
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusIncomplete Status = "incomplete"
)

// Open statuses block a new account change for the same user.
func (s Status) Open() bool {
	return s == StatusInProgress || s == StatusSubmitted
}

// StepData is what the user captured for one step.
type StepData struct {
	Form        map[string]string `json:"form,omitempty"`
	DocumentURL string            `json:"documentUrl,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// PendingChange 账户升级（KYC）草稿，每个用户同一时间最多一条未结束记录
type PendingChange struct {
	ID          int64               `gorm:"primaryKey;autoIncrement" json:"-"`
	RequestID   string              `gorm:"type:varchar(36);uniqueIndex;not null" json:"requestId"`
	UserUID     string              `gorm:"type:varchar(36);index;not null" json:"userId"`
	OpenSlot    *string             `gorm:"type:varchar(36);uniqueIndex" json:"-"` // 未结束时等于 UserUID，结束后置空
	TargetRole  string              `gorm:"type:varchar(32);not null" json:"targetRole"`
	Steps       []string            `gorm:"type:text;serializer:json" json:"steps"`
	CurrentStep int                 `gorm:"not null;default:1" json:"currentStep"` // 从 1 开始
	Data        map[string]StepData `gorm:"type:text;serializer:json" json:"data"`
	Status      Status              `gorm:"type:varchar(20);index;not null" json:"status"`
	SubmittedAt *time.Time          `json:"submittedAt,omitempty"`
	ReviewedBy  string              `gorm:"type:varchar(36)" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time          `json:"reviewedAt,omitempty"`
	ReviewNotes string              `gorm:"type:text" json:"reviewNotes,omitempty"`
	CreatedAt   time.Time           `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time           `gorm:"index;autoUpdateTime" json:"updatedAt"`
}

func (PendingChange) TableName() string {
	return "account_changes"
}

// CurrentStepKey returns the key of the step the pointer is on.
func (c *PendingChange) CurrentStepKey() string {
	if c.CurrentStep < 1 || c.CurrentStep > len(c.Steps) {
		return ""
	}
	return c.Steps[c.CurrentStep-1]
}

func (c *PendingChange) HasStep(key string) bool {
	for _, k := range c.Steps {
		if k == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to other goroutines.
func (c *PendingChange) Clone() *PendingChange {
	if c == nil {
		return nil
	}
	out := *c
	out.Steps = append([]string(nil), c.Steps...)
	if c.Data != nil {
		out.Data = make(map[string]StepData, len(c.Data))
		for k, v := range c.Data {
			v.Form = maps.Clone(v.Form)
			out.Data[k] = v
		}
	}
	if c.OpenSlot != nil {
		slot := *c.OpenSlot
		out.OpenSlot = &slot
	}
	return &out
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&PendingChange{})
}
