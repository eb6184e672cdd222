package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nexus-capture/internal/domain"
)

// HistoryKey is the storage key holding the capture history.
const HistoryKey = "captures"

// HistoryRepository implements domain.HistoryStore as a JSON array under a single key.
//
// Append is a plain read-modify-write cycle with no lock: two overlapping appends can lose one
// of the writes. Captures are human-paced, so the history accepts that.
type HistoryRepository struct {
	store    domain.KeyValueStore
	capacity int
	logger   domain.Logger
}

func NewHistoryRepository(store domain.KeyValueStore, logger domain.Logger) *HistoryRepository {
	return &HistoryRepository{
		store:    store,
		capacity: domain.MaxHistoryEntries,
		logger:   logger,
	}
}

func (r *HistoryRepository) load(ctx context.Context) ([]*domain.Capture, error) {
	data, ok, err := r.store.Get(ctx, HistoryKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}
	var captures []*domain.Capture
	if err := json.Unmarshal(data, &captures); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return captures, nil
}

func (r *HistoryRepository) save(ctx context.Context, captures []*domain.Capture) error {
	data, err := json.Marshal(captures)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := r.store.Set(ctx, HistoryKey, data); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}

// Append inserts capture at the front and evicts the oldest entries beyond capacity.
func (r *HistoryRepository) Append(ctx context.Context, capture *domain.Capture) error {
	captures, err := r.load(ctx)
	if err != nil {
		return err
	}

	next := make([]*domain.Capture, 0, len(captures)+1)
	next = append(next, capture)
	next = append(next, captures...)
	if len(next) > r.capacity {
		r.logger.Debug("History capacity reached, evicting oldest", "evicted", len(next)-r.capacity)
		next = next[:r.capacity]
	}

	return r.save(ctx, next)
}

// List returns the first limit entries in stored order, or all of them when limit <= 0.
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]*domain.Capture, error) {
	captures, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(captures) {
		captures = captures[:limit]
	}
	if captures == nil {
		captures = make([]*domain.Capture, 0)
	}
	return captures, nil
}

// CountSince counts entries whose timestamp is at or after floor. Unparsable timestamps are not counted.
func (r *HistoryRepository) CountSince(ctx context.Context, floor time.Time) (int, error) {
	captures, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, c := range captures {
		at, err := c.CapturedAt()
		if err != nil {
			continue
		}
		if !at.Before(floor) {
			count++
		}
	}
	return count, nil
}

func (r *HistoryRepository) CountByCategory(ctx context.Context, category domain.Category) (int, error) {
	captures, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, c := range captures {
		if c.Category == category {
			count++
		}
	}
	return count, nil
}

func (r *HistoryRepository) FindByID(ctx context.Context, id int64) (*domain.Capture, error) {
	captures, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range captures {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrCaptureNotFound
}

func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	captures, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(captures), nil
}

// Clear drops the whole history.
func (r *HistoryRepository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, HistoryKey); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
