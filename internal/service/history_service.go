package service

import (
	"context"
	"time"

	"nexus-capture/internal/domain"
)

// RecentCaptureLimit is the number of entries shown when no limit is asked for.
const RecentCaptureLimit = 15

type historyService struct {
	history domain.HistoryStore
	logger  domain.Logger
}

func NewHistoryService(history domain.HistoryStore, logger domain.Logger) domain.HistoryService {
	return &historyService{
		history: history,
		logger:  logger,
	}
}

// List returns the newest entries; limit <= 0 means all of them.
func (s *historyService) List(ctx context.Context, limit int) ([]*domain.Capture, error) {
	return s.history.List(ctx, limit)
}

func (s *historyService) Find(ctx context.Context, id int64) (*domain.Capture, error) {
	return s.history.FindByID(ctx, id)
}

// Stats counts captures since local midnight, since seven days before that, in the book category, and overall.
func (s *historyService) Stats(ctx context.Context, now time.Time) (*domain.CaptureStats, error) {
	year, month, day := now.Date()
	todayStart := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	weekStart := todayStart.Add(-7 * 24 * time.Hour)

	today, err := s.history.CountSince(ctx, todayStart)
	if err != nil {
		return nil, err
	}
	week, err := s.history.CountSince(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	book, err := s.history.CountByCategory(ctx, domain.CategoryBook)
	if err != nil {
		return nil, err
	}
	total, err := s.history.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.CaptureStats{
		Today: today,
		Week:  week,
		Book:  book,
		Total: total,
	}, nil
}

func (s *historyService) Clear(ctx context.Context) error {
	if err := s.history.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("History cleared")
	return nil
}
