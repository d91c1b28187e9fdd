// services/scheduler.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type ScheduleConfig struct {
	RotateEvery time.Duration
	// RotateAt is the first rotation; zero rotates immediately.
	RotateAt         time.Time
	SweepEvery       time.Duration
	SweepConcurrency int
}

// StartScheduler runs season rotation and the influence sweep in the background.
// Callers shut the returned scheduler down on exit.
func (s *ProgressionService) StartScheduler(ctx context.Context, cfg ScheduleConfig) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLogger(s.log))
	if err != nil {
		return nil, err
	}
	abort := func(err error) (gocron.Scheduler, error) {
		return nil, errors.Join(err, sched.Shutdown())
	}

	rotateStart := gocron.WithStartImmediately()
	if !cfg.RotateAt.IsZero() {
		rotateStart = gocron.WithStartDateTime(cfg.RotateAt)
	}

	if cfg.RotateEvery > 0 {
		_, err = sched.NewJob(
			gocron.DurationJob(cfg.RotateEvery),
			gocron.NewTask(func() {
				res, err := s.RotateSeasons(ctx, s.now())
				if err != nil {
					s.log.Error("[Scheduler] season rotation failed", "error", err)
					return
				}
				if len(res.Deactivated) > 0 || res.Activated != "" {
					s.log.Info("[Scheduler] seasons rotated", "deactivated", res.Deactivated, "activated", res.Activated)
				}
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(rotateStart),
		)
		if err != nil {
			return abort(fmt.Errorf("schedule season rotation: %w", err))
		}
	}

	if cfg.SweepEvery > 0 {
		_, err = sched.NewJob(
			gocron.DurationJob(cfg.SweepEvery),
			gocron.NewTask(func() {
				if _, err := s.RefreshInfluenceScores(ctx, cfg.SweepConcurrency); err != nil {
					s.log.Error("[Scheduler] influence sweep failed", "error", err)
				}
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return abort(fmt.Errorf("schedule influence sweep: %w", err))
		}
	}

	sched.Start()
	return sched, nil
}
