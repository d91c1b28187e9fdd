package services

import (
	"context"
	"testing"
	"time"

	"pie-progression/logger"
	"pie-progression/store/storetest"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSchedulerActivatesDueSeason(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, st := newTestService(t)
	now := time.Now()
	season := storetest.SeedSeason(t, st, "Launch", now.Add(-time.Minute), now.Add(time.Hour), false)

	sched, err := svc.StartScheduler(ctx, ScheduleConfig{RotateEvery: time.Hour})
	require.NoError(t, err)
	defer func() { require.NoError(t, sched.Shutdown()) }()

	require.Eventually(t, func() bool {
		active, err := st.ActiveSeason(ctx)
		return err == nil && active.ID == season.ID
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSchedulerShutsDownWhenAJobIsRejected(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	svc := NewProgressionService(storetest.Open(t), log)

	sched, err := svc.StartScheduler(context.Background(), ScheduleConfig{
		RotateEvery: time.Hour,
		RotateAt:    time.Now().Add(-time.Hour),
	})
	require.ErrorIs(t, err, gocron.ErrWithStartDateTimePast)
	require.Nil(t, sched)
	require.Equal(t, 1, logs.FilterMessage("scheduler shutting down").Len())
}
