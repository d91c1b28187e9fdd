package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pie-progression/models"
	"pie-progression/store"

	"github.com/gosimple/slug"
)

const (
	DefaultStandingsLimit = 50
	maxStandingsLimit     = 500
	archiveStandingsLimit = 10000
)

// SeasonArchiver uploads a finished season's standings and returns a public URL.
type SeasonArchiver interface {
	ArchiveSeason(ctx context.Context, key string, body []byte) (string, error)
}

// SeasonArchive is the document written for a finished season.
type SeasonArchive struct {
	Season     models.LeaderboardSeason `json:"season"`
	Standings  []models.Standing        `json:"standings"`
	ArchivedAt time.Time                `json:"archived_at"`
}

// RotationResult reports what one RotateSeasons pass changed.
type RotationResult struct {
	Deactivated []string `json:"deactivated"`
	Activated   string   `json:"activated,omitempty"`
}

// RecordSeasonXP adds amount to the user's entry in the active season. Without an
// active season nothing is written.
func (s *ProgressionService) RecordSeasonXP(ctx context.Context, userID string, amount int64) error {
	season, err := s.Store.ActiveSeason(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Store.IncrementSeasonXP(ctx, season.ID, userID, amount)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultStandingsLimit
	}
	return min(limit, maxStandingsLimit)
}

func (s *ProgressionService) SeasonStandings(ctx context.Context, seasonID string, limit int) (*models.LeaderboardSeason, []models.Standing, error) {
	season, err := s.Store.GetSeason(ctx, seasonID)
	if err != nil {
		return nil, nil, err
	}
	standings, err := s.Store.SeasonStandings(ctx, season.ID, clampLimit(limit))
	if err != nil {
		return nil, nil, err
	}
	return season, standings, nil
}

// ActiveSeasonStandings returns store.ErrNotFound when no season is running.
func (s *ProgressionService) ActiveSeasonStandings(ctx context.Context, limit int) (*models.LeaderboardSeason, []models.Standing, error) {
	season, err := s.Store.ActiveSeason(ctx)
	if err != nil {
		return nil, nil, err
	}
	standings, err := s.Store.SeasonStandings(ctx, season.ID, clampLimit(limit))
	if err != nil {
		return nil, nil, err
	}
	return season, standings, nil
}

// RotateSeasons closes every active season whose window has ended, archives it, and
// activates the earliest due season if none is left running.
func (s *ProgressionService) RotateSeasons(ctx context.Context, now time.Time) (*RotationResult, error) {
	ctx, span := tracer.Start(ctx, "progression.RotateSeasons")
	defer span.End()

	result := &RotationResult{Deactivated: []string{}}

	expired, err := s.Store.ExpiredActiveSeasons(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list expired seasons: %w", err)
	}
	for i := range expired {
		season := &expired[i]
		if err := s.Store.SetSeasonActive(ctx, season.ID, false); err != nil {
			return result, fmt.Errorf("deactivate season %s: %w", season.ID, err)
		}
		result.Deactivated = append(result.Deactivated, season.ID)
		s.log.Info("season ended", "season_id", season.ID, "name", season.Name)

		if err := s.archiveSeason(ctx, season, now); err != nil {
			s.log.Error("season archive failed", "season_id", season.ID, "error", err)
		}
	}

	if _, err := s.Store.ActiveSeason(ctx); err == nil {
		return result, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return result, err
	}

	due, err := s.Store.DueSeason(ctx, now)
	if errors.Is(err, store.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return result, err
	}
	if err := s.Store.SetSeasonActive(ctx, due.ID, true); err != nil {
		return result, fmt.Errorf("activate season %s: %w", due.ID, err)
	}
	result.Activated = due.ID
	s.log.Info("season started", "season_id", due.ID, "name", due.Name)
	return result, nil
}

// archiveSeason freezes the final standings. Without an archiver the season is only
// stamped as archived.
func (s *ProgressionService) archiveSeason(ctx context.Context, season *models.LeaderboardSeason, now time.Time) error {
	url := ""
	if s.Archiver != nil {
		standings, err := s.Store.SeasonStandings(ctx, season.ID, archiveStandingsLimit)
		if err != nil {
			return err
		}
		body, err := json.Marshal(SeasonArchive{Season: *season, Standings: standings, ArchivedAt: now})
		if err != nil {
			return err
		}
		url, err = s.Archiver.ArchiveSeason(ctx, SeasonArchiveKey(season), body)
		if err != nil {
			return err
		}
	}
	return s.Store.MarkSeasonArchived(ctx, season.ID, url, now)
}

// SeasonArchiveKey is the object key for a season's archive.
func SeasonArchiveKey(season *models.LeaderboardSeason) string {
	return fmt.Sprintf("seasons/%s-%s.json", slug.Make(season.Name), season.ID)
}
