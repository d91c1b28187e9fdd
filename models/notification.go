package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationBadgeEarned        NotificationType = "badge_earned"
	NotificationAchievementUnlock  NotificationType = "achievement_unlocked"
	NotificationChallengeCompleted NotificationType = "challenge_completed"
)

// Notification is appended for the delivery service to pick up.
type Notification struct {
	ID         string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string           `gorm:"type:uuid;index;not null" json:"user_id"`
	Type       NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Title      string           `gorm:"not null" json:"title"`
	Message    string           `gorm:"type:text" json:"message"`
	TargetID   *string          `json:"target_id,omitempty"`
	TargetType *string          `gorm:"type:varchar(32)" json:"target_type,omitempty"`
	Read       bool             `gorm:"not null;default:false" json:"read"`
	Metadata   datatypes.JSON   `json:"metadata,omitempty"`
	CreatedAt  time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	assignID(&n.ID)
	return nil
}
