package models

import (
	"time"

	"gorm.io/gorm"
)

// EventType names a domain action that can earn XP.
type EventType string

const (
	EventPostCreated        EventType = "post_created"
	EventCommentAdded       EventType = "comment_added"
	EventLikeGiven          EventType = "like_given"
	EventLikeReceived       EventType = "like_received"
	EventFollowGiven        EventType = "follow_given"
	EventFollowReceived     EventType = "follow_received"
	EventChallengeCompleted EventType = "challenge_completed"
	EventAchievementUnlock  EventType = "achievement_unlocked"
	EventBadgeEarned        EventType = "badge_earned"
	EventLoginStreak        EventType = "login_streak"
	EventFirstPost          EventType = "first_post"
	EventFirstComment       EventType = "first_comment"
	EventCommunityJoined    EventType = "community_joined"
	EventRoomCreated        EventType = "room_created"
	EventRoomParticipated   EventType = "room_participated"
	EventFusionContributed  EventType = "fusion_contributed"
)

// XPEvent is one immutable ledger line. Rows are appended, never updated.
type XPEvent struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string    `gorm:"type:uuid;index;not null" json:"user_id"`
	EventType  EventType `gorm:"type:varchar(32);index;not null" json:"event_type"`
	Amount     int64     `gorm:"not null" json:"amount"`
	SourceID   *string   `gorm:"index" json:"source_id,omitempty"`
	SourceType *string   `gorm:"type:varchar(32)" json:"source_type,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (e *XPEvent) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}
