package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pie-progression/logger"
	"pie-progression/models"
	"pie-progression/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrInvalidAmount    = errors.New("xp amount must not be negative")
	ErrInvalidRules     = errors.New("invalid progression rules")
)

var tracer = otel.Tracer("pie-progression/services")

// AwardResult is the user's state right after an award.
type AwardResult struct {
	NewXP     int64 `json:"new_xp"`
	NewLevel  int   `json:"new_level"`
	LeveledUp bool  `json:"leveled_up"`
}

type awardRequest struct {
	sourceID   *string
	sourceType *string
	customXP   *int64
}

type AwardOption func(*awardRequest)

// WithSource links the XP event to the entity that caused it.
func WithSource(sourceID, sourceType string) AwardOption {
	return func(r *awardRequest) {
		if sourceID != "" {
			r.sourceID = &sourceID
		}
		if sourceType != "" {
			r.sourceType = &sourceType
		}
	}
}

// WithCustomXP overrides the XP table amount.
func WithCustomXP(xp int64) AwardOption {
	return func(r *awardRequest) { r.customXP = &xp }
}

type ProgressionService struct {
	Store    store.Store
	Rules    *Rules
	Notifier *Notifier
	Archiver SeasonArchiver

	log *logger.Logger
	now func() time.Time
}

type Option func(*ProgressionService)

func WithRules(r *Rules) Option { return func(s *ProgressionService) { s.Rules = r } }

func WithNotifier(n *Notifier) Option { return func(s *ProgressionService) { s.Notifier = n } }

func WithArchiver(a SeasonArchiver) Option { return func(s *ProgressionService) { s.Archiver = a } }

// WithClock replaces time.Now, used by tests that pin season windows.
func WithClock(now func() time.Time) Option { return func(s *ProgressionService) { s.now = now } }

func NewProgressionService(st store.Store, log *logger.Logger, opts ...Option) *ProgressionService {
	s := &ProgressionService{
		Store: st,
		Rules: DefaultRules(),
		log:   log.With("service", "ProgressionService"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Notifier == nil {
		s.Notifier = NewNotifier(st, nil, log)
	}
	return s
}

func (s *ProgressionService) CalculateLevel(xp int64) int { return s.Rules.Levels.CalculateLevel(xp) }

func (s *ProgressionService) XPForNextLevel(level int) int64 {
	return s.Rules.Levels.XPForNextLevel(level)
}

func (s *ProgressionService) XPProgress(xp int64, level int) Progress {
	return s.Rules.Levels.XPProgress(xp, level)
}

func (s *ProgressionService) amountFor(eventType models.EventType, customXP *int64) (int64, error) {
	if customXP != nil {
		if *customXP < 0 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidAmount, *customXP)
		}
		return *customXP, nil
	}
	xp, ok := s.Rules.XPValues[eventType]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}
	return xp, nil
}

// AwardXP appends an XP event, bumps the user's total, raises the stored level when a
// threshold is crossed and then runs the season and challenge cascades. Cascade
// failures are logged; only the ledger write and the level raise can fail the call.
func (s *ProgressionService) AwardXP(ctx context.Context, userID string, eventType models.EventType, opts ...AwardOption) (*AwardResult, error) {
	ctx, span := tracer.Start(ctx, "progression.AwardXP", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("xp.event_type", string(eventType)),
	))
	defer span.End()
	start := time.Now()

	var req awardRequest
	for _, opt := range opts {
		opt(&req)
	}

	amount, err := s.amountFor(eventType, req.customXP)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int64("xp.amount", amount))

	user, err := s.Store.RecordXP(ctx, &models.XPEvent{
		UserID:     userID,
		EventType:  eventType,
		Amount:     amount,
		SourceID:   req.sourceID,
		SourceType: req.sourceType,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record xp")
		return nil, fmt.Errorf("award %s xp to %s: %w", eventType, userID, err)
	}
	xpAwardedTotal.WithLabelValues(string(eventType)).Add(float64(amount))

	result := &AwardResult{NewXP: user.XP, NewLevel: user.Level}
	newLevel := s.Rules.Levels.CalculateLevel(user.XP)
	if newLevel > user.Level {
		raised, err := s.Store.RaiseUserLevel(ctx, userID, newLevel, s.now())
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("raise level of %s: %w", userID, err)
		}
		result.NewLevel = newLevel
		if raised {
			result.LeveledUp = true
			levelUpsTotal.Inc()
			s.log.Info("level up", "user_id", userID, "from", user.Level, "to", newLevel, "xp", user.XP)
			s.unlockLevelAchievements(ctx, userID, user.Level, newLevel)
		}
	}

	if err := s.RecordSeasonXP(ctx, userID, amount); err != nil {
		s.log.Error("season xp not recorded", "user_id", userID, "amount", amount, "error", err)
	}
	if err := s.OnEvent(ctx, userID, eventType); err != nil {
		s.log.Error("challenge cascade failed", "user_id", userID, "event_type", eventType, "error", err)
	}

	awardDuration.Observe(time.Since(start).Seconds())
	s.log.Debug("xp awarded", "user_id", userID, "event_type", eventType, "amount", amount,
		"xp", result.NewXP, "level", result.NewLevel)
	return result, nil
}
