package services

import (
	"context"
	"testing"
	"time"

	"pie-progression/models"
	"pie-progression/store/storetest"

	"github.com/stretchr/testify/require"
)

func progressOf(t *testing.T, svc *ProgressionService, userID, challengeID string) *models.ChallengeProgress {
	t.Helper()
	list, err := svc.Challenges(context.Background(), userID)
	require.NoError(t, err)
	for _, c := range list {
		if c.Challenge.ID == challengeID {
			return c.Progress
		}
	}
	return nil
}

func TestChallengeCompletionCascade(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	user := storetest.SeedUser(t, st, "ada")
	prolific := storetest.SeedBadge(t, st, "Prolific")
	challenge := storetest.SeedChallenge(t, st, models.Challenge{
		Title:         "Post three times",
		Requirement:   "create_posts",
		TargetValue:   3,
		XPReward:      100,
		BadgeRewardID: &prolific.ID,
	})

	for i := 0; i < 3; i++ {
		_, err := svc.AwardXP(ctx, user.ID, models.EventPostCreated)
		require.NoError(t, err)
	}

	p := progressOf(t, svc, user.ID, challenge.ID)
	require.NotNil(t, p)
	require.Equal(t, int64(3), p.CurrentValue)
	require.True(t, p.Completed)
	require.NotNil(t, p.CompletedAt)

	// 3 posts + challenge reward + badge bonus
	u := mustGetUser(t, st, user.ID)
	require.Equal(t, int64(150+100+50), u.XP)
	require.Equal(t, 3, u.Level)

	badges, err := svc.Badges(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	require.Equal(t, "prolific", badges[0].Badge.Slug)

	require.Equal(t, int64(1), countRows(t, st, &models.Notification{}, "user_id = ? AND type = ?", user.ID, models.NotificationChallengeCompleted))
	require.Equal(t, int64(1), countRows(t, st, &models.Notification{}, "user_id = ? AND type = ?", user.ID, models.NotificationBadgeEarned))

	// badge already held: no XP, no second notification
	granted, err := svc.AwardBadge(ctx, user.ID, prolific.ID)
	require.NoError(t, err)
	require.False(t, granted)
	require.Equal(t, int64(300), mustGetUser(t, st, user.ID).XP)
	require.Equal(t, int64(2), countRows(t, st, &models.Notification{}, "user_id = ?", user.ID))

	// further events never move a completed challenge
	_, err = svc.AwardXP(ctx, user.ID, models.EventPostCreated)
	require.NoError(t, err)
	p = progressOf(t, svc, user.ID, challenge.ID)
	require.Equal(t, int64(3), p.CurrentValue)
	require.Equal(t, int64(1), countRows(t, st, &models.XPEvent{}, "user_id = ? AND event_type = ?", user.ID, models.EventChallengeCompleted))
}

func TestOnEventIgnoresClosedChallenges(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	user := storetest.SeedUser(t, st, "grace")
	past := time.Now().Add(-time.Hour)
	expired := storetest.SeedChallenge(t, st, models.Challenge{Requirement: "add_comments", TargetValue: 1, ExpiresAt: &past})
	inactive := storetest.SeedChallenge(t, st, models.Challenge{Requirement: "add_comments", TargetValue: 1, Status: models.ChallengeInactive})
	other := storetest.SeedChallenge(t, st, models.Challenge{Requirement: "give_likes", TargetValue: 5})

	_, err := svc.AwardXP(ctx, user.ID, models.EventCommentAdded)
	require.NoError(t, err)

	for _, c := range []*models.Challenge{expired, inactive, other} {
		require.Zero(t, countRows(t, st, &models.ChallengeProgress{}, "user_id = ? AND challenge_id = ?", user.ID, c.ID))
	}
	require.Equal(t, int64(10), mustGetUser(t, st, user.ID).XP)
}

func TestOnEventUnmappedEvent(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	user := storetest.SeedUser(t, st, "barbara")
	storetest.SeedChallenge(t, st, models.Challenge{Requirement: "create_posts", TargetValue: 1})

	require.NoError(t, svc.OnEvent(ctx, user.ID, models.EventLoginStreak))
	require.Zero(t, countRows(t, st, &models.ChallengeProgress{}, "user_id = ?", user.ID))
}

func TestOnEventAdvancesEveryMatchingChallenge(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	user := storetest.SeedUser(t, st, "ken")
	short := storetest.SeedChallenge(t, st, models.Challenge{Requirement: "join_rooms", TargetValue: 1, XPReward: 40})
	long := storetest.SeedChallenge(t, st, models.Challenge{Requirement: "join_rooms", TargetValue: 10})

	_, err := svc.AwardXP(ctx, user.ID, models.EventRoomParticipated)
	require.NoError(t, err)

	require.True(t, progressOf(t, svc, user.ID, short.ID).Completed)
	lp := progressOf(t, svc, user.ID, long.ID)
	require.Equal(t, int64(1), lp.CurrentValue)
	require.False(t, lp.Completed)
	require.Equal(t, int64(10+40), mustGetUser(t, st, user.ID).XP)
}

func TestCompleteChallengeIsOneWay(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	user := storetest.SeedUser(t, st, "linus")
	challenge := storetest.SeedChallenge(t, st, models.Challenge{Requirement: "follow_users", TargetValue: 4, XPReward: 70})

	require.NoError(t, svc.CompleteChallenge(ctx, user.ID, challenge.ID))
	require.NoError(t, svc.CompleteChallenge(ctx, user.ID, challenge.ID))

	p := progressOf(t, svc, user.ID, challenge.ID)
	require.True(t, p.Completed)
	require.Equal(t, int64(4), p.CurrentValue)
	require.Equal(t, int64(70), mustGetUser(t, st, user.ID).XP)
	require.Equal(t, int64(1), countRows(t, st, &models.Notification{}, "user_id = ? AND type = ?", user.ID, models.NotificationChallengeCompleted))
}

func TestCompleteChallengeDefaultsReward(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	user := storetest.SeedUser(t, st, "margaret")
	challenge := storetest.SeedChallenge(t, st, models.Challenge{Requirement: "create_rooms", TargetValue: 2})

	require.NoError(t, svc.CompleteChallenge(ctx, user.ID, challenge.ID))
	require.Equal(t, DefaultXPValues[models.EventChallengeCompleted], mustGetUser(t, st, user.ID).XP)
}

func TestCompleteChallengeUnknownOrClosed(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	user := storetest.SeedUser(t, st, "dennis")
	past := time.Now().Add(-time.Minute)
	expired := storetest.SeedChallenge(t, st, models.Challenge{Requirement: "create_posts", TargetValue: 1, ExpiresAt: &past})

	require.NoError(t, svc.CompleteChallenge(ctx, user.ID, "missing"))
	require.NoError(t, svc.CompleteChallenge(ctx, user.ID, expired.ID))
	require.Zero(t, countRows(t, st, &models.ChallengeProgress{}, "user_id = ?", user.ID))
	require.Zero(t, mustGetUser(t, st, user.ID).XP)
}

func TestChallengeWithMissingBadgeStillPays(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	user := storetest.SeedUser(t, st, "edsger")
	gone := "no-such-badge"
	challenge := storetest.SeedChallenge(t, st, models.Challenge{Requirement: "contribute_fusions", TargetValue: 1, XPReward: 60, BadgeRewardID: &gone})

	_, err := svc.AwardXP(ctx, user.ID, models.EventFusionContributed)
	require.NoError(t, err)
	require.True(t, progressOf(t, svc, user.ID, challenge.ID).Completed)
	require.Equal(t, int64(40+60), mustGetUser(t, st, user.ID).XP)
	require.Zero(t, countRows(t, st, &models.UserBadge{}, "user_id = ?", user.ID))
}
