package store

import (
	"context"

	"pie-progression/models"
)

// InfluenceInputs reads every aggregate fresh; nothing here is cached.
func (s *GormStore) InfluenceInputs(ctx context.Context, userID string) (models.InfluenceInputs, error) {
	var in models.InfluenceInputs

	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return in, err
	}
	in.Level = u.Level

	if err := s.db(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&in.Followers).Error; err != nil {
		return in, err
	}
	if err := s.db(ctx).Model(&models.Post{}).Where("author_id = ?", userID).Count(&in.Posts).Error; err != nil {
		return in, err
	}

	var engagement struct {
		Likes    int64
		Comments int64
	}
	if err := s.db(ctx).Model(&models.Post{}).
		Select("COALESCE(SUM(likes_count), 0) AS likes, COALESCE(SUM(comments_count), 0) AS comments").
		Where("author_id = ?", userID).
		Scan(&engagement).Error; err != nil {
		return in, err
	}
	in.LikesReceived = engagement.Likes
	in.CommentsReceived = engagement.Comments

	if err := s.db(ctx).Model(&models.UserBadge{}).Where("user_id = ?", userID).Count(&in.Badges).Error; err != nil {
		return in, err
	}
	if err := s.db(ctx).Model(&models.UserAchievement{}).Where("user_id = ?", userID).Count(&in.Achievements).Error; err != nil {
		return in, err
	}
	if err := s.db(ctx).Model(&models.ChallengeProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&in.CompletedChallenges).Error; err != nil {
		return in, err
	}
	return in, nil
}
