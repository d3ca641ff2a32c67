package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tms-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
)

type feedRepository interface {
	ListAll(ctx context.Context) ([]models.GlobalAssignmentRecord, error)
}

type feedCache interface {
	GetSnapshot(ctx context.Context) (*models.FeedSnapshot, bool, error)
	SetSnapshot(ctx context.Context, snapshot *models.FeedSnapshot) error
}

// FeedService owns the in-process copy of the global assignment feed.
// Updates replace the snapshot wholesale and bump a version counter;
// subscribers re-validate their local tables on every bump. The feed
// may be empty right after start-up, which consumers tolerate.
type FeedService struct {
	repo   feedRepository
	cache  feedCache
	logger *zap.Logger

	mu          sync.RWMutex
	records     []models.GlobalAssignmentRecord
	version     uint64
	takenAt     time.Time
	subscribers []chan uint64
}

// NewFeedService constructs the feed holder. The cache is optional.
func NewFeedService(repo feedRepository, cache feedCache, logger *zap.Logger) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{repo: repo, cache: cache, logger: logger}
}

// Refresh reloads the feed from the backing store. On store failure it
// falls back to the cached snapshot when one exists.
func (s *FeedService) Refresh(ctx context.Context) error {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		if s.cache != nil {
			if cached, ok, cacheErr := s.cache.GetSnapshot(ctx); cacheErr == nil && ok {
				s.logger.Warn("feed store unavailable, serving cached snapshot", zap.Error(err))
				s.install(cached.Records)
				return nil
			}
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load global assignment feed")
	}

	snapshot := s.install(records)
	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, snapshot); err != nil {
			s.logger.Warn("failed to cache feed snapshot", zap.Error(err))
		}
	}
	return nil
}

// Replace swaps in an externally pushed feed wholesale.
func (s *FeedService) Replace(records []models.GlobalAssignmentRecord) {
	s.install(records)
}

// Snapshot returns a copy of the current feed and its version.
func (s *FeedService) Snapshot() *models.FeedSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &models.FeedSnapshot{
		Records: append([]models.GlobalAssignmentRecord(nil), s.records...),
		Version: s.version,
		TakenAt: s.takenAt,
	}
}

// Version returns the current feed version without copying records.
func (s *FeedService) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe returns a channel receiving the version of every future
// snapshot installation. Slow subscribers miss intermediate versions
// rather than block the feed.
func (s *FeedService) Subscribe() <-chan uint64 {
	ch := make(chan uint64, 1)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *FeedService) install(records []models.GlobalAssignmentRecord) *models.FeedSnapshot {
	s.mu.Lock()
	s.records = append([]models.GlobalAssignmentRecord(nil), records...)
	s.version++
	s.takenAt = time.Now().UTC()
	snapshot := &models.FeedSnapshot{
		Records: append([]models.GlobalAssignmentRecord(nil), s.records...),
		Version: s.version,
		TakenAt: s.takenAt,
	}
	subscribers := s.subscribers
	version := s.version
	s.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- version:
		default:
		}
	}
	s.logger.Debug("feed snapshot installed",
		zap.Uint64("version", version), zap.Int("records", len(snapshot.Records)))
	return snapshot
}
