package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-allocation-api/internal/models"
)

const feedSnapshotKey = "feed:snapshot"

// FeedCacheRepository keeps the last good feed snapshot in Redis so the
// service can keep validating when the database is briefly away.
type FeedCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewFeedCacheRepository constructs a feed cache. A zero ttl keeps
// snapshots until overwritten.
func NewFeedCacheRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *FeedCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedCacheRepository{client: client, ttl: ttl, logger: logger}
}

// GetSnapshot loads the cached snapshot. The second return reports
// whether one was present.
func (r *FeedCacheRepository) GetSnapshot(ctx context.Context) (*models.FeedSnapshot, bool, error) {
	if r.client == nil {
		return nil, false, nil
	}
	raw, err := r.client.Get(ctx, feedSnapshotKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", feedSnapshotKey, err)
	}
	var snapshot models.FeedSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, false, fmt.Errorf("unmarshal feed snapshot: %w", err)
	}
	return &snapshot, true, nil
}

// SetSnapshot stores the snapshot, replacing any earlier one.
func (r *FeedCacheRepository) SetSnapshot(ctx context.Context, snapshot *models.FeedSnapshot) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal feed snapshot: %w", err)
	}
	if err := r.client.Set(ctx, feedSnapshotKey, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", feedSnapshotKey, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *FeedCacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
