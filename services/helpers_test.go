package services

import (
	"context"
	"sync"
	"testing"

	"pie-progression/logger"
	"pie-progression/models"
	"pie-progression/store"
	"pie-progression/store/storetest"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts ...Option) (*ProgressionService, *store.GormStore) {
	t.Helper()
	st := storetest.Open(t)
	return NewProgressionService(st, logger.Nop(), opts...), st
}

func mustGetUser(t *testing.T, st *store.GormStore, userID string) *models.User {
	t.Helper()
	u, err := st.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return u
}

func countRows(t *testing.T, st *store.GormStore, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, st.DB.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

type recordingPublisher struct {
	mu    sync.Mutex
	notes []models.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n *models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, *n)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.notes)
}

type recordingArchiver struct {
	keys   []string
	bodies [][]byte
}

func (a *recordingArchiver) ArchiveSeason(_ context.Context, key string, body []byte) (string, error) {
	a.keys = append(a.keys, key)
	a.bodies = append(a.bodies, body)
	return "https://cdn.example.test/" + key, nil
}
