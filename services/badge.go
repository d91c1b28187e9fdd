package services

import (
	"context"
	"errors"
	"fmt"

	"pie-progression/models"
	"pie-progression/store"

	"github.com/gosimple/slug"
)

// AwardBadge grants a badge once. It returns true only for the call that created the
// grant; that call also pays the badge_earned bonus and notifies the user.
// An unknown badge is a logged no-op.
func (s *ProgressionService) AwardBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	if _, err := s.Store.GetUser(ctx, userID); err != nil {
		return false, err
	}
	badge, err := s.Store.GetBadge(ctx, badgeID)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn("award unknown badge", "badge_id", badgeID, "user_id", userID)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	granted, err := s.Store.GrantBadge(ctx, userID, badge.ID)
	if err != nil {
		return false, fmt.Errorf("grant badge %s: %w", badge.ID, err)
	}
	if !granted {
		return false, nil
	}
	badgesGrantedTotal.Inc()
	s.log.Info("badge awarded", "user_id", userID, "badge", badge.Slug)

	xp := s.Rules.XPValues[models.EventBadgeEarned]
	if _, err := s.AwardXP(ctx, userID, models.EventBadgeEarned, WithSource(badge.ID, "badge")); err != nil {
		s.log.Error("badge xp not awarded", "user_id", userID, "badge_id", badge.ID, "error", err)
	}
	s.Notifier.BadgeEarned(ctx, userID, badge, xp)
	return true, nil
}

// UnlockAchievement mirrors AwardBadge for achievements.
func (s *ProgressionService) UnlockAchievement(ctx context.Context, userID, achievementID string) (bool, error) {
	if _, err := s.Store.GetUser(ctx, userID); err != nil {
		return false, err
	}
	achievement, err := s.Store.GetAchievement(ctx, achievementID)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn("unlock unknown achievement", "achievement_id", achievementID, "user_id", userID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.unlock(ctx, userID, achievement)
}

func (s *ProgressionService) unlock(ctx context.Context, userID string, achievement *models.Achievement) (bool, error) {
	granted, err := s.Store.GrantAchievement(ctx, userID, achievement.ID)
	if err != nil {
		return false, fmt.Errorf("grant achievement %s: %w", achievement.ID, err)
	}
	if !granted {
		return false, nil
	}
	achievementsUnlockedTotal.Inc()
	s.log.Info("achievement unlocked", "user_id", userID, "achievement", achievement.Slug)

	xp := s.Rules.XPValues[models.EventAchievementUnlock]
	if _, err := s.AwardXP(ctx, userID, models.EventAchievementUnlock, WithSource(achievement.ID, "achievement")); err != nil {
		s.log.Error("achievement xp not awarded", "user_id", userID, "achievement_id", achievement.ID, "error", err)
	}
	s.Notifier.AchievementUnlocked(ctx, userID, achievement, xp)
	return true, nil
}

// unlockLevelAchievements unlocks every milestone in (from, to]. A single large award
// can skip past a milestone level, so each crossed milestone is checked.
func (s *ProgressionService) unlockLevelAchievements(ctx context.Context, userID string, from, to int) {
	for level := from + 1; level <= to; level++ {
		name, ok := s.Rules.LevelAchievements[level]
		if !ok {
			continue
		}
		achievement, err := s.Store.GetAchievementBySlug(ctx, slug.Make(name))
		if errors.Is(err, store.ErrNotFound) {
			s.log.Warn("level achievement not defined", "level", level, "achievement", name)
			continue
		}
		if err != nil {
			s.log.Error("level achievement lookup failed", "level", level, "error", err)
			continue
		}
		if _, err := s.unlock(ctx, userID, achievement); err != nil {
			s.log.Error("level achievement not unlocked", "user_id", userID, "level", level, "error", err)
		}
	}
}

func (s *ProgressionService) Badges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	return s.Store.ListUserBadges(ctx, userID)
}

func (s *ProgressionService) Achievements(ctx context.Context, userID string) ([]models.UserAchievement, error) {
	return s.Store.ListUserAchievements(ctx, userID)
}
