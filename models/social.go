package models

import "time"

// Follow and Post belong to the content service; the engine only reads them
// when recomputing influence scores.
type Follow struct {
	FollowerID  string    `gorm:"primaryKey;type:uuid" json:"follower_id"`
	FollowingID string    `gorm:"primaryKey;type:uuid;index" json:"following_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Post struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	AuthorID      string    `gorm:"type:uuid;index;not null" json:"author_id"`
	LikesCount    int64     `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int64     `gorm:"not null;default:0" json:"comments_count"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// InfluenceInputs are the live aggregates the influence score is computed from.
type InfluenceInputs struct {
	Followers           int64 `json:"followers"`
	Posts               int64 `json:"posts"`
	LikesReceived       int64 `json:"likes_received"`
	CommentsReceived    int64 `json:"comments_received"`
	Badges              int64 `json:"badges"`
	Achievements        int64 `json:"achievements"`
	CompletedChallenges int64 `json:"completed_challenges"`
	Level               int   `json:"level"`
}

// All lists every table the service migrates.
func All() []interface{} {
	return []interface{}{
		&User{},
		&XPEvent{},
		&Challenge{},
		&ChallengeProgress{},
		&Badge{},
		&UserBadge{},
		&Achievement{},
		&UserAchievement{},
		&LeaderboardSeason{},
		&LeaderboardEntry{},
		&Notification{},
		&Follow{},
		&Post{},
	}
}
