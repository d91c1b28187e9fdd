package services

import (
	"context"
	"testing"

	"pie-progression/models"
	"pie-progression/store"
	"pie-progression/store/storetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestInfluenceScoreWeights(t *testing.T) {
	require.Zero(t, InfluenceScore(models.InfluenceInputs{}))
	require.Equal(t, int64(10+5+2+3+50+100+25+20), InfluenceScore(models.InfluenceInputs{
		Followers: 1, Posts: 1, LikesReceived: 1, CommentsReceived: 1,
		Badges: 1, Achievements: 1, CompletedChallenges: 1, Level: 1,
	}))
}

func TestUpdateInfluenceScore(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	user := storetest.SeedUser(t, st, "ada")
	fan1 := storetest.SeedUser(t, st, "fan1")
	fan2 := storetest.SeedUser(t, st, "fan2")
	storetest.SeedFollow(t, st, fan1.ID, user.ID)
	storetest.SeedFollow(t, st, fan2.ID, user.ID)
	storetest.SeedFollow(t, st, user.ID, fan1.ID)
	storetest.SeedPost(t, st, user.ID, 3, 4)
	storetest.SeedPost(t, st, user.ID, 7, 1)
	storetest.SeedPost(t, st, fan1.ID, 100, 100)
	badge := storetest.SeedBadge(t, st, "Helper")
	_, err := st.GrantBadge(ctx, user.ID, badge.ID)
	require.NoError(t, err)
	challenge := storetest.SeedChallenge(t, st, models.Challenge{Requirement: "create_posts", TargetValue: 9})
	_, err = st.CompleteChallengeProgress(ctx, user.ID, challenge.ID, 9, challenge.CreatedAt)
	require.NoError(t, err)

	// followers 2, posts 2, likes 10, comments 5, badges 1, level 1
	want := int64(2*10 + 2*5 + 10*2 + 5*3 + 1*50 + 1*25 + 1*20)

	score, err := svc.CalculateInfluenceScore(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, want, score)
	require.Zero(t, mustGetUser(t, st, user.ID).InfluenceScore)

	score, err = svc.UpdateInfluenceScore(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, want, score)
	require.Equal(t, want, mustGetUser(t, st, user.ID).InfluenceScore)

	// inputs are read fresh every time
	storetest.SeedPost(t, st, user.ID, 0, 0)
	score, err = svc.CalculateInfluenceScore(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, want+5, score)
}

func TestInfluenceUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UpdateInfluenceScore(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshInfluenceScores(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		u := storetest.SeedUser(t, st, "user")
		storetest.SeedPost(t, st, u.ID, int64(i), 0)
		ids = append(ids, u.ID)
	}

	updated, err := svc.RefreshInfluenceScores(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 5, updated)

	for _, id := range ids {
		u := mustGetUser(t, st, id)
		require.Positive(t, u.InfluenceScore)
	}
}
