// Package storetest opens throwaway SQLite-backed stores and seeds fixtures.
package storetest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"pie-progression/models"
	"pie-progression/store"

	"github.com/google/uuid"
)

// Open returns a store over a private in-memory database for this test.
func Open(tb testing.TB) *store.GormStore {
	tb.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s-%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := store.Open("sqlite", dsn)
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// one connection keeps the shared in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	return store.NewGormStore(db)
}

func SeedUser(tb testing.TB, s *store.GormStore, username string) *models.User {
	tb.Helper()
	u := &models.User{Username: username}
	if err := s.DB.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedBadge(tb testing.TB, s *store.GormStore, name string) *models.Badge {
	tb.Helper()
	b := &models.Badge{Name: name, Description: name + " badge"}
	if err := s.DB.Create(b).Error; err != nil {
		tb.Fatalf("seed badge: %v", err)
	}
	return b
}

func SeedAchievement(tb testing.TB, s *store.GormStore, name string) *models.Achievement {
	tb.Helper()
	a := &models.Achievement{Name: name}
	if err := s.DB.Create(a).Error; err != nil {
		tb.Fatalf("seed achievement: %v", err)
	}
	return a
}

// SeedLevelAchievements creates the four level-milestone achievements.
func SeedLevelAchievements(tb testing.TB, s *store.GormStore) map[string]*models.Achievement {
	tb.Helper()
	out := map[string]*models.Achievement{}
	for _, name := range []string{"Rising Star", "Established Member", "Community Pillar", "Legend"} {
		out[name] = SeedAchievement(tb, s, name)
	}
	return out
}

func SeedChallenge(tb testing.TB, s *store.GormStore, c models.Challenge) *models.Challenge {
	tb.Helper()
	if c.Title == "" {
		c.Title = c.Requirement
	}
	if err := s.DB.Create(&c).Error; err != nil {
		tb.Fatalf("seed challenge: %v", err)
	}
	return &c
}

func SeedSeason(tb testing.TB, s *store.GormStore, name string, starts, ends time.Time, active bool) *models.LeaderboardSeason {
	tb.Helper()
	season := &models.LeaderboardSeason{Name: name, StartsAt: starts, EndsAt: ends, IsActive: active}
	if err := s.DB.Create(season).Error; err != nil {
		tb.Fatalf("seed season: %v", err)
	}
	return season
}

func SeedPost(tb testing.TB, s *store.GormStore, authorID string, likes, comments int64) *models.Post {
	tb.Helper()
	p := &models.Post{ID: uuid.NewString(), AuthorID: authorID, LikesCount: likes, CommentsCount: comments}
	if err := s.DB.Create(p).Error; err != nil {
		tb.Fatalf("seed post: %v", err)
	}
	return p
}

func SeedFollow(tb testing.TB, s *store.GormStore, followerID, followingID string) {
	tb.Helper()
	if err := s.DB.Create(&models.Follow{FollowerID: followerID, FollowingID: followingID}).Error; err != nil {
		tb.Fatalf("seed follow: %v", err)
	}
}
