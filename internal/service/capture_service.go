package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nexus-capture/internal/domain"
)

type captureService struct {
	sinks    []domain.Sink
	history  domain.HistoryStore
	observer domain.Observer
	ids      *domain.IDGenerator
	now      func() time.Time
	logger   domain.Logger
}

// NewCaptureService builds the dispatcher. observer may be nil.
func NewCaptureService(
	sinks []domain.Sink,
	history domain.HistoryStore,
	observer domain.Observer,
	logger domain.Logger,
) domain.CaptureService {
	return &captureService{
		sinks:    sinks,
		history:  history,
		observer: observer,
		ids:      &domain.IDGenerator{},
		now:      time.Now,
		logger:   logger,
	}
}

// Dispatch fans the capture out to every ready sink, records it locally and notifies observers.
// Sink failures are reported in the result; only a history failure fails the dispatch.
func (s *captureService) Dispatch(ctx context.Context, input domain.RawInput, settings domain.Settings) (*domain.DispatchResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if input.Category != "" && !input.Category.Valid() {
		s.logger.Warn("Unknown capture category", "category", input.Category)
	}

	now := s.now()
	capture := domain.NewCapture(input, s.ids.Next(now), now)
	result := &domain.DispatchResult{}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, sink := range s.sinks {
		if !sink.Ready(settings) {
			continue
		}
		wg.Add(1)
		go func(sink domain.Sink) {
			defer wg.Done()
			outcome := s.attempt(ctx, sink, capture, settings)
			mu.Lock()
			result.Set(sink.Name(), outcome)
			mu.Unlock()
		}(sink)
	}
	wg.Wait()

	if err := s.history.Append(ctx, capture); err != nil {
		return nil, fmt.Errorf("failed to store capture: %w", err)
	}

	if s.observer != nil {
		if err := s.observer.Notify(ctx, capture, result); err != nil {
			s.logger.Debug("Observer notification failed", "capture_id", capture.ID, "error", err)
		}
	}

	s.logger.Info("Capture dispatched",
		"capture_id", capture.ID,
		"category", capture.Category,
		"nexus_failed", result.NexusResult.Failed(),
		"notion_failed", result.NotionResult.Failed())
	return result, nil
}

// attempt runs one sink, turning errors and panics into a failed outcome.
func (s *captureService) attempt(ctx context.Context, sink domain.Sink, capture *domain.Capture, settings domain.Settings) (outcome *domain.SinkOutcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Sink panicked", "sink", sink.Name(), "panic", r)
			outcome = domain.FailedOutcome(fmt.Sprintf("%s sink panicked: %v", sink.Name(), r))
		}
	}()

	payload, err := sink.Attempt(ctx, capture, settings)
	if err != nil {
		s.logger.Warn("Sink failed", "sink", sink.Name(), "capture_id", capture.ID, "error", err)
		msg := err.Error()
		if msg == "" {
			msg = "unknown error"
		}
		return domain.FailedOutcome(msg)
	}
	return domain.SucceededOutcome(payload)
}
