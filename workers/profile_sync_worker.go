// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pie-progression/logger"
	"pie-progression/models"
	"pie-progression/store"
	"pie-progression/utils"
)

const ProfilesPath = "/api/v1/public/profiles"

// RemoteProfile is the subset of the sync service's profile payload the engine keeps.
type RemoteProfile struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Username   string    `json:"username"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GetProfileChangesResponse is the top-level structure of the sync service response.
type GetProfileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// ProfileSyncWorker mirrors platform users into the users table so XP can be
// awarded to anyone. It never touches xp or level.
type ProfileSyncWorker struct {
	store        store.Store
	interval     time.Duration
	baseURL      string
	serviceToken string
	httpClient   *http.Client
	log          *logger.Logger
	since        time.Time
}

func NewProfileSyncWorker(st store.Store, log *logger.Logger, syncServiceBaseURL, serviceToken string, interval time.Duration) *ProfileSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ProfileSyncWorker{
		store:        st,
		interval:     interval,
		baseURL:      syncServiceBaseURL,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
		log:          log.With("worker", "ProfileSyncWorker"),
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	w.log.Info("starting profile sync worker", "base_url", w.baseURL, "interval", w.interval)
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	// initial backfill from the beginning of time
	if err := w.SyncOnce(ctx); err != nil {
		w.log.Warn("initial profile sync failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.SyncOnce(ctx); err != nil {
				w.log.Error("profile sync batch failed", "error", err)
			}
		case <-ctx.Done():
			w.log.Info("profile sync worker stopped")
			return
		}
	}
}

// SyncOnce pulls every profile changed since the last successful batch and upserts it.
func (w *ProfileSyncWorker) SyncOnce(ctx context.Context) error {
	profiles, err := w.fetch(ctx, w.since)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		return nil
	}

	users := make([]models.User, 0, len(profiles))
	latest := w.since
	for _, p := range profiles {
		id := p.ExternalID
		if id == "" {
			id = p.ID
		}
		if id == "" {
			continue
		}
		users = append(users, models.User{ID: id, Username: p.Username})
		if p.UpdatedAt.After(latest) {
			latest = p.UpdatedAt
		}
	}
	if err := w.store.UpsertUsers(ctx, users); err != nil {
		return fmt.Errorf("upsert %d users: %w", len(users), err)
	}
	w.since = latest
	w.log.Info("profiles synced", "count", len(users), "latest", latest.Format(time.RFC3339))
	return nil
}

func (w *ProfileSyncWorker) fetch(ctx context.Context, since time.Time) ([]RemoteProfile, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid sync service URL %q: %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(ProfilesPath)
	q := endpoint.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("sync service returned %d: %s", resp.StatusCode, string(body))
	}

	var response GetProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode sync service response: %w", err)
	}
	return response.Users, nil
}
