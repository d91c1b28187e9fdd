package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pie-progression/logger"
	"pie-progression/models"
	"pie-progression/services"
	"pie-progression/store"
	"pie-progression/store/storetest"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const adminID = "8f5b7c1e-0000-4000-8000-000000000001"

func setupApp(t *testing.T) (*fiber.App, *store.GormStore) {
	t.Helper()
	st := storetest.Open(t)
	svc := services.NewProgressionService(st, logger.Nop())
	app := fiber.New()
	SetupProgressionRoutes(app, svc, logger.Nop())
	return app, st
}

func do(t *testing.T, app *fiber.App, method, path, userID, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestGetProgress(t *testing.T) {
	app, st := setupApp(t)
	user := storetest.SeedUser(t, st, "ada")
	require.NoError(t, st.DB.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{"xp": 150, "level": 2}).Error)

	status, body := do(t, app, http.MethodGet, "/user/progress", user.ID, "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ada", body["username"])
	require.EqualValues(t, 150, body["xp"])
	require.EqualValues(t, 2, body["level"])
	require.EqualValues(t, 300, body["next_level_xp"])
	progress := body["progress"].(map[string]interface{})
	require.EqualValues(t, 25, progress["percentage"])
}

func TestGetProgressErrors(t *testing.T) {
	app, _ := setupApp(t)

	status, _ := do(t, app, http.MethodGet, "/user/progress", "", "")
	require.Equal(t, http.StatusUnauthorized, status)

	status, body := do(t, app, http.MethodGet, "/user/progress", uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "failed to get progress", body["error"])
	require.NotEmpty(t, body["cause"])
}

func TestLevelsPreview(t *testing.T) {
	app, _ := setupApp(t)

	status, body := do(t, app, http.MethodGet, "/levels/21000", "", "")
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 21, body["level"])
	require.EqualValues(t, 23000, body["next_level_xp"])

	status, _ = do(t, app, http.MethodGet, "/levels/lots", "", "")
	require.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, app, http.MethodGet, "/levels/9223372036854775807", "", "")
	require.Equal(t, http.StatusOK, status)
	require.Positive(t, body["next_level_xp"].(float64))
}

func TestLeaderboardWithoutSeason(t *testing.T) {
	app, _ := setupApp(t)
	status, _ := do(t, app, http.MethodGet, "/leaderboard/current", "", "")
	require.Equal(t, http.StatusNotFound, status)
}

func TestAdminGrantXP(t *testing.T) {
	app, st := setupApp(t)
	user := storetest.SeedUser(t, st, "grace")

	status, _ := do(t, app, http.MethodPost, "/s/admin/xp/grant", "", `{"user_id":"`+user.ID+`","event_type":"post_created"}`)
	require.Equal(t, http.StatusUnauthorized, status)

	status, body := do(t, app, http.MethodPost, "/s/admin/xp/grant", adminID, `{"user_id":"`+user.ID+`","event_type":"post_created"}`)
	require.Equal(t, http.StatusOK, status)
	result := body["result"].(map[string]interface{})
	require.EqualValues(t, 50, result["new_xp"])

	status, body = do(t, app, http.MethodPost, "/s/admin/xp/grant", adminID, `{"user_id":"`+user.ID+`","event_type":"moon_landing"}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "XP award failed", body["error"])

	status, _ = do(t, app, http.MethodPost, "/s/admin/xp/grant", adminID, `{"user_id":"`+user.ID+`","event_type":"post_created","xp":-5}`)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, "/s/admin/xp/grant", adminID, `{"user_id":"not-a-uuid","event_type":"post_created"}`)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, "/s/admin/xp/grant", adminID, `{"user_id":"`+uuid.NewString()+`","event_type":"post_created"}`)
	require.Equal(t, http.StatusNotFound, status)

	status, body = do(t, app, http.MethodPost, "/s/admin/xp/grant", adminID,
		`{"user_id":"`+user.ID+`","event_type":"login_streak","xp":250,"source_id":"s1","source_type":"streak"}`)
	require.Equal(t, http.StatusOK, status)
	result = body["result"].(map[string]interface{})
	require.EqualValues(t, 300, result["new_xp"])
	require.EqualValues(t, 3, result["new_level"])
	require.Equal(t, true, result["leveled_up"])
}

func TestAdminAwardBadge(t *testing.T) {
	app, st := setupApp(t)
	user := storetest.SeedUser(t, st, "linus")
	badge := storetest.SeedBadge(t, st, "Helper")
	payload := `{"user_id":"` + user.ID + `"}`

	status, body := do(t, app, http.MethodPost, "/s/admin/badges/"+badge.ID+"/award", adminID, payload)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["granted"])

	status, body = do(t, app, http.MethodPost, "/s/admin/badges/"+badge.ID+"/award", adminID, payload)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, false, body["granted"])

	status, _ = do(t, app, http.MethodPost, "/s/admin/badges/"+badge.ID+"/award", adminID, `{"user_id":"x"}`)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, "/user/progress/badges", user.ID, "")
	require.Equal(t, http.StatusOK, status)
}

func TestAdminCompleteChallengeAndInfluence(t *testing.T) {
	app, st := setupApp(t)
	user := storetest.SeedUser(t, st, "ken")
	challenge := storetest.SeedChallenge(t, st, models.Challenge{Requirement: "create_posts", TargetValue: 2, XPReward: 80})

	status, _ := do(t, app, http.MethodPost, "/s/admin/challenges/"+challenge.ID+"/complete", adminID, `{"user_id":"`+user.ID+`"}`)
	require.Equal(t, http.StatusOK, status)

	u, err := st.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(80), u.XP)

	status, body := do(t, app, http.MethodPost, "/s/admin/users/"+user.ID+"/influence", adminID, "")
	require.Equal(t, http.StatusOK, status)
	// one completed challenge + level 1
	require.EqualValues(t, 25+20, body["influence_score"])

	status, _ = do(t, app, http.MethodPost, "/s/admin/users/"+uuid.NewString()+"/influence", adminID, "")
	require.Equal(t, http.StatusNotFound, status)
}

func TestMalformedIDs(t *testing.T) {
	app, st := setupApp(t)
	user := storetest.SeedUser(t, st, "barbara")
	payload := `{"user_id":"` + user.ID + `"}`

	status, body := do(t, app, http.MethodGet, "/user/progress", "not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "X-User-ID must be a UUID", body["error"])

	status, _ = do(t, app, http.MethodGet, "/leaderboard/seasons/not-a-uuid", "", "")
	require.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodPost, "/s/admin/users/not-a-uuid/influence", adminID, "")
	require.Equal(t, http.StatusNotFound, status)

	// unknown reward definitions are a no-op, not an error
	status, body = do(t, app, http.MethodPost, "/s/admin/badges/not-a-uuid/award", adminID, payload)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, false, body["granted"])

	status, body = do(t, app, http.MethodPost, "/s/admin/achievements/not-a-uuid/unlock", adminID, payload)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, false, body["granted"])

	status, _ = do(t, app, http.MethodPost, "/s/admin/challenges/not-a-uuid/complete", adminID, payload)
	require.Equal(t, http.StatusOK, status)

	u, err := st.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	require.Zero(t, u.XP)
}
