package store

import (
	"context"

	"pie-progression/models"

	"gorm.io/gorm/clause"
)

func (s *GormStore) GetBadge(ctx context.Context, badgeID string) (*models.Badge, error) {
	var b models.Badge
	if err := s.db(ctx).Where("id = ?", badgeID).First(&b).Error; err != nil {
		return nil, notFound(err, "badge", badgeID)
	}
	return &b, nil
}

// GrantBadge inserts the (user, badge) pair. A unique violation means the user
// already holds it and is reported as (false, nil).
func (s *GormStore) GrantBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	err := s.db(ctx).Omit(clause.Associations).
		Create(&models.UserBadge{UserID: userID, BadgeID: badgeID}).Error
	if isDuplicate(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *GormStore) ListUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	err := s.db(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Find(&badges).Error
	return badges, err
}

func (s *GormStore) GetAchievement(ctx context.Context, achievementID string) (*models.Achievement, error) {
	var a models.Achievement
	if err := s.db(ctx).Where("id = ?", achievementID).First(&a).Error; err != nil {
		return nil, notFound(err, "achievement", achievementID)
	}
	return &a, nil
}

func (s *GormStore) GetAchievementBySlug(ctx context.Context, slug string) (*models.Achievement, error) {
	var a models.Achievement
	if err := s.db(ctx).Where("slug = ?", slug).First(&a).Error; err != nil {
		return nil, notFound(err, "achievement", slug)
	}
	return &a, nil
}

func (s *GormStore) GrantAchievement(ctx context.Context, userID, achievementID string) (bool, error) {
	err := s.db(ctx).Omit(clause.Associations).
		Create(&models.UserAchievement{UserID: userID, AchievementID: achievementID}).Error
	if isDuplicate(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *GormStore) ListUserAchievements(ctx context.Context, userID string) ([]models.UserAchievement, error) {
	var achievements []models.UserAchievement
	err := s.db(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&achievements).Error
	return achievements, err
}
