package model

import (
	"time"

	"github.com/google/uuid"
)

// MarketingNotificationModel is the GORM-specific struct for the
// 'marketing_notifications' table.
type MarketingNotificationModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Title        string    `gorm:"type:text;not null"`
	Message      string    `gorm:"type:text;not null"`
	ImageURL     *string   `gorm:"type:text"`
	IsActive     bool      `gorm:"not null;default:true"`
	ScheduledFor *time.Time `gorm:"index"`
	SendStatus   string     `gorm:"type:text;not null;default:'draft';index"`
	SentAt       *time.Time
	LastError    *string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (MarketingNotificationModel) TableName() string {
	return "marketing_notifications"
}
