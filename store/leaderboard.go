package store

import (
	"context"
	"time"

	"pie-progression/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActiveSeason returns the active season, or ErrNotFound when there is none.
// If the data holds several active seasons the earliest-starting one wins.
func (s *GormStore) ActiveSeason(ctx context.Context) (*models.LeaderboardSeason, error) {
	var season models.LeaderboardSeason
	if err := s.db(ctx).Where("is_active = ?", true).Order("starts_at ASC").First(&season).Error; err != nil {
		return nil, notFound(err, "season", "active")
	}
	return &season, nil
}

func (s *GormStore) GetSeason(ctx context.Context, seasonID string) (*models.LeaderboardSeason, error) {
	var season models.LeaderboardSeason
	if err := s.db(ctx).Where("id = ?", seasonID).First(&season).Error; err != nil {
		return nil, notFound(err, "season", seasonID)
	}
	return &season, nil
}

func (s *GormStore) IncrementSeasonXP(ctx context.Context, seasonID, userID string, amount int64) error {
	if err := s.db(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.LeaderboardEntry{SeasonID: seasonID, UserID: userID}).Error; err != nil {
		return err
	}
	return s.db(ctx).Model(&models.LeaderboardEntry{}).
		Where("season_id = ? AND user_id = ?", seasonID, userID).
		UpdateColumns(map[string]interface{}{
			"xp_earned":  gorm.Expr("xp_earned + ?", amount),
			"updated_at": time.Now(),
		}).Error
}

func (s *GormStore) SeasonStandings(ctx context.Context, seasonID string, limit int) ([]models.Standing, error) {
	var rows []models.Standing
	err := s.db(ctx).
		Table("leaderboard_entries AS e").
		Select("e.user_id AS user_id, COALESCE(u.username, '') AS username, e.xp_earned AS xp_earned").
		Joins("LEFT JOIN users u ON u.id = e.user_id").
		Where("e.season_id = ?", seasonID).
		Order("e.xp_earned DESC, e.user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

func (s *GormStore) ExpiredActiveSeasons(ctx context.Context, now time.Time) ([]models.LeaderboardSeason, error) {
	var seasons []models.LeaderboardSeason
	err := s.db(ctx).
		Where("is_active = ? AND ends_at <= ?", true, now).
		Order("ends_at ASC").
		Find(&seasons).Error
	return seasons, err
}

// DueSeason returns the earliest inactive, unarchived season whose window contains now.
func (s *GormStore) DueSeason(ctx context.Context, now time.Time) (*models.LeaderboardSeason, error) {
	var season models.LeaderboardSeason
	err := s.db(ctx).
		Where("is_active = ? AND archived_at IS NULL", false).
		Where("starts_at <= ? AND ends_at > ?", now, now).
		Order("starts_at ASC").
		First(&season).Error
	if err != nil {
		return nil, notFound(err, "season", "due")
	}
	return &season, nil
}

func (s *GormStore) SetSeasonActive(ctx context.Context, seasonID string, active bool) error {
	return s.db(ctx).Model(&models.LeaderboardSeason{}).
		Where("id = ?", seasonID).
		UpdateColumns(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now(),
		}).Error
}

func (s *GormStore) MarkSeasonArchived(ctx context.Context, seasonID, url string, at time.Time) error {
	return s.db(ctx).Model(&models.LeaderboardSeason{}).
		Where("id = ?", seasonID).
		UpdateColumns(map[string]interface{}{
			"archived_at": at,
			"archive_url": url,
			"updated_at":  at,
		}).Error
}
