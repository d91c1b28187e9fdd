package services

import (
	"context"
	"errors"
	"fmt"

	"pie-progression/models"
	"pie-progression/store"
)

// OnEvent advances every open challenge whose requirement matches eventType and
// completes the ones that reach their target. Events outside the requirement map
// are ignored.
func (s *ProgressionService) OnEvent(ctx context.Context, userID string, eventType models.EventType) error {
	requirement, ok := s.Rules.Requirements[eventType]
	if !ok {
		return nil
	}
	ctx, span := tracer.Start(ctx, "progression.OnEvent")
	defer span.End()

	challenges, err := s.Store.OpenChallenges(ctx, requirement, s.now())
	if err != nil {
		return fmt.Errorf("open challenges for %s: %w", requirement, err)
	}

	var errs []error
	for i := range challenges {
		c := &challenges[i]
		progress, applied, err := s.Store.IncrementChallengeProgress(ctx, userID, c.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("challenge %s: %w", c.ID, err))
			continue
		}
		if !applied || progress.CurrentValue < c.TargetValue {
			continue
		}
		if err := s.completeChallenge(ctx, userID, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CompleteChallenge marks a challenge complete for the user regardless of counted
// progress. Unknown challenges are a logged no-op; repeated calls change nothing.
func (s *ProgressionService) CompleteChallenge(ctx context.Context, userID, challengeID string) error {
	if _, err := s.Store.GetUser(ctx, userID); err != nil {
		return err
	}
	c, err := s.Store.GetChallenge(ctx, challengeID)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn("complete unknown challenge", "challenge_id", challengeID, "user_id", userID)
		return nil
	}
	if err != nil {
		return err
	}
	if !c.Open(s.now()) {
		s.log.Warn("challenge closed, not completing", "challenge_id", challengeID, "user_id", userID)
		return nil
	}
	return s.completeChallenge(ctx, userID, c)
}

// completeChallenge flips the progress row to completed and, when this caller won
// the flip, pays out the rewards.
func (s *ProgressionService) completeChallenge(ctx context.Context, userID string, c *models.Challenge) error {
	flipped, err := s.Store.CompleteChallengeProgress(ctx, userID, c.ID, c.TargetValue, s.now())
	if err != nil {
		return fmt.Errorf("complete challenge %s: %w", c.ID, err)
	}
	if !flipped {
		return nil
	}
	challengesCompletedTotal.Inc()
	s.log.Info("challenge completed", "user_id", userID, "challenge_id", c.ID)

	xp := c.XPReward
	if xp <= 0 {
		xp = s.Rules.XPValues[models.EventChallengeCompleted]
	}
	if _, err := s.AwardXP(ctx, userID, models.EventChallengeCompleted,
		WithSource(c.ID, "challenge"), WithCustomXP(xp)); err != nil {
		s.log.Error("challenge xp not awarded", "user_id", userID, "challenge_id", c.ID, "error", err)
	}

	if c.BadgeRewardID != nil {
		if _, err := s.AwardBadge(ctx, userID, *c.BadgeRewardID); err != nil {
			s.log.Error("challenge badge not awarded", "user_id", userID, "badge_id", *c.BadgeRewardID, "error", err)
		}
	}

	s.Notifier.ChallengeCompleted(ctx, userID, c, xp)
	return nil
}

// Challenges lists open challenges with the user's progress on each.
func (s *ProgressionService) Challenges(ctx context.Context, userID string) ([]models.ChallengeWithProgress, error) {
	return s.Store.ListChallengesWithProgress(ctx, userID, s.now())
}
