package models

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Badge: named reward definition
type Badge struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"not null" json:"name"`             // "Prolific"
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"` // "prolific"
	Description string    `json:"description"`
	IconURL     string    `gorm:"type:text" json:"icon_url"`
	Rarity      string    `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, rare, epic, legendary
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (b *Badge) BeforeCreate(tx *gorm.DB) error {
	assignID(&b.ID)
	if b.Slug == "" {
		b.Slug = slug.Make(b.Name)
	}
	return nil
}

// UserBadge: grant record, unique per (user, badge)
type UserBadge struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	Badge     Badge     `gorm:"foreignKey:BadgeID" json:"badge"`
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}

func (ub *UserBadge) BeforeCreate(tx *gorm.DB) error {
	assignID(&ub.ID)
	return nil
}

// Achievement has the same grant contract as Badge; some are unlocked by level thresholds.
type Achievement struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"not null" json:"name"` // "Rising Star"
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description"`
	IconURL     string    `gorm:"type:text" json:"icon_url"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	if a.Slug == "" {
		a.Slug = slug.Make(a.Name)
	}
	return nil
}

type UserAchievement struct {
	ID            string      `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string      `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID string      `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID" json:"achievement"`
	UnlockedAt    time.Time   `gorm:"autoCreateTime" json:"unlocked_at"`
}

func (ua *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	assignID(&ua.ID)
	return nil
}
