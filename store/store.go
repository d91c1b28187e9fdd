// Package store is the persistent-store collaborator of the progression engine.
// Every counter mutation is an SQL-side increment; idempotent grants lean on
// unique indexes rather than existence checks.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pie-progression/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("record not found")

// Store is everything the engine needs from persistence.
type Store interface {
	// users + XP ledger
	GetUser(ctx context.Context, userID string) (*models.User, error)
	RecordXP(ctx context.Context, event *models.XPEvent) (*models.User, error)
	RaiseUserLevel(ctx context.Context, userID string, level int, at time.Time) (bool, error)
	SetInfluenceScore(ctx context.Context, userID string, score int64) error
	ListUserIDs(ctx context.Context, afterID string, limit int) ([]string, error)
	UpsertUsers(ctx context.Context, users []models.User) error
	ListXPEvents(ctx context.Context, userID string, limit int) ([]models.XPEvent, error)

	// challenges
	GetChallenge(ctx context.Context, challengeID string) (*models.Challenge, error)
	OpenChallenges(ctx context.Context, requirement string, now time.Time) ([]models.Challenge, error)
	IncrementChallengeProgress(ctx context.Context, userID, challengeID string) (*models.ChallengeProgress, bool, error)
	CompleteChallengeProgress(ctx context.Context, userID, challengeID string, floor int64, at time.Time) (bool, error)
	ListChallengesWithProgress(ctx context.Context, userID string, now time.Time) ([]models.ChallengeWithProgress, error)

	// badges + achievements
	GetBadge(ctx context.Context, badgeID string) (*models.Badge, error)
	GrantBadge(ctx context.Context, userID, badgeID string) (bool, error)
	ListUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error)
	GetAchievement(ctx context.Context, achievementID string) (*models.Achievement, error)
	GetAchievementBySlug(ctx context.Context, slug string) (*models.Achievement, error)
	GrantAchievement(ctx context.Context, userID, achievementID string) (bool, error)
	ListUserAchievements(ctx context.Context, userID string) ([]models.UserAchievement, error)

	// leaderboard seasons
	ActiveSeason(ctx context.Context) (*models.LeaderboardSeason, error)
	GetSeason(ctx context.Context, seasonID string) (*models.LeaderboardSeason, error)
	IncrementSeasonXP(ctx context.Context, seasonID, userID string, amount int64) error
	SeasonStandings(ctx context.Context, seasonID string, limit int) ([]models.Standing, error)
	ExpiredActiveSeasons(ctx context.Context, now time.Time) ([]models.LeaderboardSeason, error)
	DueSeason(ctx context.Context, now time.Time) (*models.LeaderboardSeason, error)
	SetSeasonActive(ctx context.Context, seasonID string, active bool) error
	MarkSeasonArchived(ctx context.Context, seasonID, url string, at time.Time) error

	// notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)

	// influence
	InfluenceInputs(ctx context.Context, userID string) (models.InfluenceInputs, error)
}

// GormStore implements Store on gorm (PostgreSQL in production, SQLite for dev/tests).
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// Open connects with the given driver and migrates every engine table.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func (s *GormStore) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}

// notFound maps a missing row, or an id postgres cannot parse as a uuid (22P02),
// onto ErrNotFound.
func notFound(err error, what, id string) error {
	var pgErr *pgconn.PgError
	if errors.Is(err, gorm.ErrRecordNotFound) || (errors.As(err, &pgErr) && pgErr.Code == "22P02") {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}

// isDuplicate reports a unique-constraint violation, either translated by the
// gorm dialect or raw from pgx.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
