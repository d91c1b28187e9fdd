package services

import (
	"context"
	"encoding/json"

	"pie-progression/logger"
	"pie-progression/models"
	"pie-progression/store"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/datatypes"
)

// Publisher pushes a stored notification to realtime subscribers.
type Publisher interface {
	Publish(ctx context.Context, n *models.Notification) error
}

// Notifier appends notifications to the store and fans them out through Publisher
// when one is configured. Nothing here ever fails a reward.
type Notifier struct {
	store     store.Store
	publisher Publisher
	printer   *message.Printer
	log       *logger.Logger
}

func NewNotifier(st store.Store, publisher Publisher, log *logger.Logger) *Notifier {
	return &Notifier{
		store:     st,
		publisher: publisher,
		printer:   message.NewPrinter(language.English),
		log:       log.With("service", "Notifier"),
	}
}

func (n *Notifier) BadgeEarned(ctx context.Context, userID string, badge *models.Badge, xp int64) {
	n.emit(ctx, &models.Notification{
		UserID:     userID,
		Type:       models.NotificationBadgeEarned,
		Title:      n.printer.Sprintf("Badge earned: %s", badge.Name),
		Message:    n.printer.Sprintf("You earned the %s badge and %d XP.", badge.Name, xp),
		TargetID:   &badge.ID,
		TargetType: strPtr("badge"),
	}, map[string]interface{}{"xp": xp, "slug": badge.Slug, "rarity": badge.Rarity})
}

func (n *Notifier) AchievementUnlocked(ctx context.Context, userID string, achievement *models.Achievement, xp int64) {
	n.emit(ctx, &models.Notification{
		UserID:     userID,
		Type:       models.NotificationAchievementUnlock,
		Title:      n.printer.Sprintf("Achievement unlocked: %s", achievement.Name),
		Message:    n.printer.Sprintf("You unlocked %s and earned %d XP.", achievement.Name, xp),
		TargetID:   &achievement.ID,
		TargetType: strPtr("achievement"),
	}, map[string]interface{}{"xp": xp, "slug": achievement.Slug})
}

func (n *Notifier) ChallengeCompleted(ctx context.Context, userID string, c *models.Challenge, xp int64) {
	n.emit(ctx, &models.Notification{
		UserID:     userID,
		Type:       models.NotificationChallengeCompleted,
		Title:      n.printer.Sprintf("Challenge complete: %s", c.Title),
		Message:    n.printer.Sprintf("You completed %s (%d/%d) and earned %d XP.", c.Title, c.TargetValue, c.TargetValue, xp),
		TargetID:   &c.ID,
		TargetType: strPtr("challenge"),
	}, map[string]interface{}{"xp": xp, "requirement": c.Requirement})
}

func (n *Notifier) emit(ctx context.Context, note *models.Notification, meta map[string]interface{}) {
	if raw, err := json.Marshal(meta); err == nil {
		note.Metadata = datatypes.JSON(raw)
	}
	if err := n.store.CreateNotification(ctx, note); err != nil {
		n.log.Error("notification not stored", "user_id", note.UserID, "type", note.Type, "error", err)
		return
	}
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, note); err != nil {
		n.log.Warn("notification publish failed", "user_id", note.UserID, "type", note.Type, "error", err)
	}
}

func strPtr(s string) *string { return &s }
