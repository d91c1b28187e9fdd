package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User carries the progression state the engine owns for a platform account.
// Identity rows are mirrored from the profile service by the sync worker;
// XP, Level and InfluenceScore are only ever written by the engine.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"index" json:"username"`

	XP             int64 `gorm:"not null;default:0" json:"xp"`
	Level          int   `gorm:"not null;default:1" json:"level"`
	InfluenceScore int64 `gorm:"not null;default:0" json:"influence_score"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	if u.Level < 1 {
		u.Level = 1
	}
	return nil
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
