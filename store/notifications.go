package store

import (
	"context"

	"pie-progression/models"
)

func (s *GormStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.db(ctx).Create(n).Error
}

func (s *GormStore) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}
