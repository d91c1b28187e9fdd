package store

import (
	"context"
	"time"

	"pie-progression/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *GormStore) GetChallenge(ctx context.Context, challengeID string) (*models.Challenge, error) {
	var c models.Challenge
	if err := s.db(ctx).Where("id = ?", challengeID).First(&c).Error; err != nil {
		return nil, notFound(err, "challenge", challengeID)
	}
	return &c, nil
}

// OpenChallenges returns active, non-expired challenges keyed to requirement.
func (s *GormStore) OpenChallenges(ctx context.Context, requirement string, now time.Time) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := s.db(ctx).
		Where("requirement = ? AND status = ?", requirement, models.ChallengeActive).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Order("created_at ASC").
		Find(&challenges).Error
	return challenges, err
}

func (s *GormStore) ensureProgress(ctx context.Context, userID, challengeID string) error {
	return s.db(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ChallengeProgress{UserID: userID, ChallengeID: challengeID}).Error
}

// IncrementChallengeProgress adds one to the counter unless the progress is already
// completed. The bool reports whether the increment was applied.
func (s *GormStore) IncrementChallengeProgress(ctx context.Context, userID, challengeID string) (*models.ChallengeProgress, bool, error) {
	if err := s.ensureProgress(ctx, userID, challengeID); err != nil {
		return nil, false, err
	}

	res := s.db(ctx).Model(&models.ChallengeProgress{}).
		Where("user_id = ? AND challenge_id = ? AND completed = ?", userID, challengeID, false).
		UpdateColumns(map[string]interface{}{
			"current_value": gorm.Expr("current_value + ?", 1),
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return nil, false, res.Error
	}

	var p models.ChallengeProgress
	if err := s.db(ctx).Where("user_id = ? AND challenge_id = ?", userID, challengeID).First(&p).Error; err != nil {
		return nil, false, notFound(err, "challenge progress", challengeID)
	}
	return &p, res.RowsAffected > 0, nil
}

// CompleteChallengeProgress flips completed false -> true, lifting current_value to at
// least floor. Only the caller that performs the flip gets true.
func (s *GormStore) CompleteChallengeProgress(ctx context.Context, userID, challengeID string, floor int64, at time.Time) (bool, error) {
	if err := s.ensureProgress(ctx, userID, challengeID); err != nil {
		return false, err
	}

	res := s.db(ctx).Model(&models.ChallengeProgress{}).
		Where("user_id = ? AND challenge_id = ? AND completed = ?", userID, challengeID, false).
		UpdateColumns(map[string]interface{}{
			"completed":     true,
			"completed_at":  at,
			"current_value": gorm.Expr("CASE WHEN current_value < ? THEN ? ELSE current_value END", floor, floor),
			"updated_at":    at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) ListChallengesWithProgress(ctx context.Context, userID string, now time.Time) ([]models.ChallengeWithProgress, error) {
	var challenges []models.Challenge
	if err := s.db(ctx).
		Where("status = ?", models.ChallengeActive).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Order("created_at ASC").
		Find(&challenges).Error; err != nil {
		return nil, err
	}
	if len(challenges) == 0 {
		return []models.ChallengeWithProgress{}, nil
	}

	ids := make([]string, len(challenges))
	for i, c := range challenges {
		ids[i] = c.ID
	}

	var progress []models.ChallengeProgress
	if err := s.db(ctx).
		Where("user_id = ? AND challenge_id IN ?", userID, ids).
		Find(&progress).Error; err != nil {
		return nil, err
	}
	byChallenge := make(map[string]models.ChallengeProgress, len(progress))
	for _, p := range progress {
		byChallenge[p.ChallengeID] = p
	}

	out := make([]models.ChallengeWithProgress, len(challenges))
	for i, c := range challenges {
		out[i] = models.ChallengeWithProgress{Challenge: c}
		if p, ok := byChallenge[c.ID]; ok {
			out[i].Progress = &p
		}
	}
	return out, nil
}
