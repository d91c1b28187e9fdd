package store

import (
	"context"
	"time"

	"pie-progression/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *GormStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := s.db(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, notFound(err, "user", userID)
	}
	return &u, nil
}

// RecordXP appends the ledger line and bumps the cached counter in one transaction,
// so an unknown user leaves no orphan event behind.
func (s *GormStore) RecordXP(ctx context.Context, event *models.XPEvent) (*models.User, error) {
	var u models.User
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", event.UserID).
			UpdateColumns(map[string]interface{}{
				"xp":         gorm.Expr("xp + ?", event.Amount),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", event.UserID).First(&u).Error
	})
	if err != nil {
		return nil, notFound(err, "user", event.UserID)
	}
	return &u, nil
}

// RaiseUserLevel only ever moves the stored level up. The bool is true when this
// call performed the raise.
func (s *GormStore) RaiseUserLevel(ctx context.Context, userID string, level int, at time.Time) (bool, error) {
	res := s.db(ctx).Model(&models.User{}).
		Where("id = ? AND level < ?", userID, level).
		UpdateColumns(map[string]interface{}{
			"level":            level,
			"last_level_up_at": at,
			"updated_at":       at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) SetInfluenceScore(ctx context.Context, userID string, score int64) error {
	res := s.db(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"influence_score": score,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "user", userID)
	}
	return nil
}

// ListUserIDs pages through users by id (keyset pagination).
func (s *GormStore) ListUserIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	var ids []string
	q := s.db(ctx).Model(&models.User{})
	if afterID != "" {
		q = q.Where("id > ?", afterID)
	}
	err := q.Order("id ASC").Limit(limit).Pluck("id", &ids).Error
	return ids, err
}

// UpsertUsers mirrors identity fields only; progression columns are never overwritten.
func (s *GormStore) UpsertUsers(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}
	return s.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "updated_at"}),
	}).Create(&users).Error
}

func (s *GormStore) ListXPEvents(ctx context.Context, userID string, limit int) ([]models.XPEvent, error) {
	var events []models.XPEvent
	err := s.db(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
