package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tms-allocation-api/internal/models"
)

type mockFeedRepo struct {
	records []models.GlobalAssignmentRecord
	err     error
}

func (m *mockFeedRepo) ListAll(_ context.Context) ([]models.GlobalAssignmentRecord, error) {
	return m.records, m.err
}

type mockFeedCache struct {
	snapshot *models.FeedSnapshot
	getErr   error
	setErr   error
	saved    *models.FeedSnapshot
}

func (m *mockFeedCache) GetSnapshot(_ context.Context) (*models.FeedSnapshot, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	return m.snapshot, m.snapshot != nil, nil
}

func (m *mockFeedCache) SetSnapshot(_ context.Context, snapshot *models.FeedSnapshot) error {
	m.saved = snapshot
	return m.setErr
}

func TestFeedRefreshBumpsVersion(t *testing.T) {
	repo := &mockFeedRepo{records: []models.GlobalAssignmentRecord{{ID: "r1", TrainerID: "t1"}}}
	svc := NewFeedService(repo, nil, nil)

	require.NoError(t, svc.Refresh(context.Background()))
	snapshot := svc.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Version)
	require.Len(t, snapshot.Records, 1)

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, uint64(2), svc.Version())
}

func TestFeedRefreshWritesCache(t *testing.T) {
	repo := &mockFeedRepo{records: []models.GlobalAssignmentRecord{{ID: "r1"}}}
	cache := &mockFeedCache{}
	svc := NewFeedService(repo, cache, nil)

	require.NoError(t, svc.Refresh(context.Background()))
	require.NotNil(t, cache.saved)
	assert.Len(t, cache.saved.Records, 1)
}

func TestFeedRefreshFallsBackToCache(t *testing.T) {
	repo := &mockFeedRepo{err: errors.New("db down")}
	cache := &mockFeedCache{snapshot: &models.FeedSnapshot{
		Records: []models.GlobalAssignmentRecord{{ID: "cached"}},
	}}
	svc := NewFeedService(repo, cache, nil)

	require.NoError(t, svc.Refresh(context.Background()))
	snapshot := svc.Snapshot()
	require.Len(t, snapshot.Records, 1)
	assert.Equal(t, "cached", snapshot.Records[0].ID)
}

func TestFeedRefreshErrorsWithoutFallback(t *testing.T) {
	repo := &mockFeedRepo{err: errors.New("db down")}
	svc := NewFeedService(repo, nil, nil)

	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, uint64(0), svc.Version())
}

func TestFeedReplaceNotifiesSubscribers(t *testing.T) {
	svc := NewFeedService(&mockFeedRepo{}, nil, nil)
	versions := svc.Subscribe()

	svc.Replace([]models.GlobalAssignmentRecord{{ID: "pushed"}})
	assert.Equal(t, uint64(1), <-versions)

	// a slow subscriber misses intermediate versions but never blocks
	svc.Replace(nil)
	svc.Replace(nil)
	assert.Equal(t, uint64(2), <-versions)
}

func TestFeedSnapshotIsACopy(t *testing.T) {
	svc := NewFeedService(&mockFeedRepo{}, nil, nil)
	svc.Replace([]models.GlobalAssignmentRecord{{ID: "r1", TrainerID: "t1"}})

	snapshot := svc.Snapshot()
	snapshot.Records[0].TrainerID = "mutated"
	assert.Equal(t, "t1", svc.Snapshot().Records[0].TrainerID)
}
