package service

import (
	"context"

	"nexus-capture/internal/domain"
)

// SyncBatchSize is how many of the newest entries a sync re-sends.
const SyncBatchSize = 50

type syncService struct {
	history domain.HistoryStore
	poster  domain.CapturePoster
	logger  domain.Logger
}

// NewSyncService re-sends history through poster, normally the NEXUS sink.
func NewSyncService(history domain.HistoryStore, poster domain.CapturePoster, logger domain.Logger) domain.SyncService {
	return &syncService{
		history: history,
		poster:  poster,
		logger:  logger,
	}
}

// SyncRecent posts the newest entries one at a time. Individual failures are skipped and only
// successes are counted; a success is any 2xx status, whatever the body.
func (s *syncService) SyncRecent(ctx context.Context, settings domain.Settings) (*domain.SyncReport, error) {
	if settings.AstraPassword == "" {
		return nil, domain.ErrMissingSecret
	}

	captures, err := s.history.List(ctx, SyncBatchSize)
	if err != nil {
		return nil, err
	}

	report := &domain.SyncReport{Attempted: len(captures)}
	for _, capture := range captures {
		if ctx.Err() != nil {
			break
		}
		if err := s.poster.Post(ctx, capture, settings); err != nil {
			s.logger.Debug("Sync skipped capture", "capture_id", capture.ID, "error", err)
			continue
		}
		report.Synced++
	}

	s.logger.Info("History synced", "synced", report.Synced, "attempted", report.Attempted)
	return report, nil
}
