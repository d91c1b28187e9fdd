package models

import (
	"time"

	"gorm.io/gorm"
)

type ChallengeStatus string

const (
	ChallengeActive   ChallengeStatus = "active"
	ChallengeInactive ChallengeStatus = "inactive"
)

// Challenge: reach TargetValue occurrences of the action behind Requirement
type Challenge struct {
	ID            string          `gorm:"primaryKey;type:uuid" json:"id"`
	Title         string          `gorm:"not null" json:"title"`
	Description   string          `json:"description"`
	Requirement   string          `gorm:"type:varchar(64);index;not null" json:"requirement"` // e.g. "create_posts"
	TargetValue   int64           `gorm:"not null" json:"target_value"`
	XPReward      int64           `gorm:"not null;default:0" json:"xp_reward"`
	BadgeRewardID *string         `gorm:"type:uuid" json:"badge_reward_id,omitempty"`
	Status        ChallengeStatus `gorm:"type:varchar(16);index;default:'active'" json:"status"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`

	Timestamps
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	if c.Status == "" {
		c.Status = ChallengeActive
	}
	return nil
}

// Open reports whether the challenge still accepts progress at t.
func (c *Challenge) Open(t time.Time) bool {
	if c.Status != ChallengeActive {
		return false
	}
	return c.ExpiresAt == nil || c.ExpiresAt.After(t)
}

// ChallengeProgress is the per-(user, challenge) counter.
// Completed only ever flips false -> true.
type ChallengeProgress struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string     `gorm:"type:uuid;not null;uniqueIndex:idx_challenge_progress_user_challenge" json:"user_id"`
	ChallengeID  string     `gorm:"type:uuid;not null;uniqueIndex:idx_challenge_progress_user_challenge" json:"challenge_id"`
	CurrentValue int64      `gorm:"not null;default:0" json:"current_value"`
	Completed    bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	Timestamps
}

func (p *ChallengeProgress) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// ChallengeWithProgress joins a definition with the caller's progress (zero value if none).
type ChallengeWithProgress struct {
	Challenge Challenge          `json:"challenge"`
	Progress  *ChallengeProgress `json:"progress,omitempty"`
}
