package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"pie-progression/models"

	"golang.org/x/sync/errgroup"
)

const influenceSweepPage = 200

// InfluenceWeights are the per-unit contributions to a user's influence score.
var InfluenceWeights = struct {
	Follower, Post, Like, Comment, Badge, Achievement, Challenge, Level int64
}{
	Follower:    10,
	Post:        5,
	Like:        2,
	Comment:     3,
	Badge:       50,
	Achievement: 100,
	Challenge:   25,
	Level:       20,
}

// InfluenceScore is the weighted sum of the inputs.
func InfluenceScore(in models.InfluenceInputs) int64 {
	w := InfluenceWeights
	return in.Followers*w.Follower +
		in.Posts*w.Post +
		in.LikesReceived*w.Like +
		in.CommentsReceived*w.Comment +
		in.Badges*w.Badge +
		in.Achievements*w.Achievement +
		in.CompletedChallenges*w.Challenge +
		int64(in.Level)*w.Level
}

// CalculateInfluenceScore reads the inputs fresh and scores them without persisting.
func (s *ProgressionService) CalculateInfluenceScore(ctx context.Context, userID string) (int64, error) {
	in, err := s.Store.InfluenceInputs(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("influence inputs for %s: %w", userID, err)
	}
	return InfluenceScore(in), nil
}

func (s *ProgressionService) UpdateInfluenceScore(ctx context.Context, userID string) (int64, error) {
	score, err := s.CalculateInfluenceScore(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.Store.SetInfluenceScore(ctx, userID, score); err != nil {
		return 0, fmt.Errorf("store influence score for %s: %w", userID, err)
	}
	return score, nil
}

// RefreshInfluenceScores recomputes every user's score, at most concurrency at a time.
// Per-user failures are logged; the count of successful updates is returned.
func (s *ProgressionService) RefreshInfluenceScores(ctx context.Context, concurrency int) (int, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	var updated atomic.Int64
	after := ""
	for {
		ids, err := s.Store.ListUserIDs(ctx, after, influenceSweepPage)
		if err != nil {
			return int(updated.Load()), fmt.Errorf("list users: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		var g errgroup.Group
		g.SetLimit(concurrency)
		for _, id := range ids {
			g.Go(func() error {
				if _, err := s.UpdateInfluenceScore(ctx, id); err != nil {
					s.log.Warn("influence refresh failed", "user_id", id, "error", err)
					return nil
				}
				updated.Add(1)
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return int(updated.Load()), err
		}
		after = ids[len(ids)-1]
	}
	s.log.Info("influence sweep done", "updated", updated.Load())
	return int(updated.Load()), nil
}
