package models

import (
	"time"

	"gorm.io/gorm"
)

// LeaderboardSeason is a time-boxed competition window. At most one is active.
type LeaderboardSeason struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	Name       string     `gorm:"not null" json:"name"`
	StartsAt   time.Time  `gorm:"not null" json:"starts_at"`
	EndsAt     time.Time  `gorm:"not null" json:"ends_at"`
	IsActive   bool       `gorm:"index;not null;default:false" json:"is_active"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	ArchiveURL string     `json:"archive_url,omitempty"`

	Timestamps
}

func (s *LeaderboardSeason) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// LeaderboardEntry accumulates XP earned during one season, separate from lifetime XP.
type LeaderboardEntry struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	SeasonID string `gorm:"type:uuid;not null;uniqueIndex:idx_leaderboard_season_user" json:"season_id"`
	UserID   string `gorm:"type:uuid;not null;uniqueIndex:idx_leaderboard_season_user" json:"user_id"`
	XPEarned int64  `gorm:"not null;default:0;index" json:"xp_earned"`

	Timestamps
}

func (e *LeaderboardEntry) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}

// Standing is a ranked, read-only view of a LeaderboardEntry.
type Standing struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	XPEarned int64  `json:"xp_earned"`
}
