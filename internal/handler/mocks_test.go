package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"nexus-capture/internal/domain"
)

type mockCaptureService struct {
	mu       sync.Mutex
	result   *domain.DispatchResult
	err      error
	inputs   []domain.RawInput
	settings []domain.Settings
}

func (m *mockCaptureService) Dispatch(ctx context.Context, input domain.RawInput, settings domain.Settings) (*domain.DispatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, input)
	m.settings = append(m.settings, settings)
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.DispatchResult{}, nil
	}
	return m.result, nil
}

type mockTranscriber struct {
	audio  []byte
	result domain.TranscriptionResult
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audio []byte, settings domain.Settings) domain.TranscriptionResult {
	m.audio = audio
	if settings.AstraPassword == "" {
		return domain.TranscriptionResult{OK: false, Error: "transcription requires an API secret"}
	}
	return m.result
}

type mockSettingsRepo struct {
	settings  domain.Settings
	lastPatch *domain.SettingsPatch
	err       error
}

func (m *mockSettingsRepo) Get(ctx context.Context) (domain.Settings, error) {
	return m.settings, m.err
}

func (m *mockSettingsRepo) Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	if m.err != nil {
		return domain.Settings{}, m.err
	}
	m.lastPatch = &patch
	m.settings = m.settings.Apply(patch)
	return m.settings, nil
}

type mockHistoryService struct {
	captures  []*domain.Capture
	stats     *domain.CaptureStats
	lastLimit int
	cleared   bool
}

func (m *mockHistoryService) List(ctx context.Context, limit int) ([]*domain.Capture, error) {
	m.lastLimit = limit
	if limit > 0 && limit < len(m.captures) {
		return m.captures[:limit], nil
	}
	return m.captures, nil
}

func (m *mockHistoryService) Find(ctx context.Context, id int64) (*domain.Capture, error) {
	for _, c := range m.captures {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrCaptureNotFound
}

func (m *mockHistoryService) Stats(ctx context.Context, now time.Time) (*domain.CaptureStats, error) {
	return m.stats, nil
}

func (m *mockHistoryService) Clear(ctx context.Context) error {
	m.cleared = true
	m.captures = nil
	return nil
}

type mockSyncService struct {
	report *domain.SyncReport
}

func (m *mockSyncService) SyncRecent(ctx context.Context, settings domain.Settings) (*domain.SyncReport, error) {
	if settings.AstraPassword == "" {
		return nil, domain.ErrMissingSecret
	}
	return m.report, nil
}

type mockHealthService struct {
	status domain.HealthStatus
}

func (m *mockHealthService) Check(ctx context.Context) domain.HealthStatus {
	return m.status
}

type testDeps struct {
	captures    *mockCaptureService
	transcriber *mockTranscriber
	settings    *mockSettingsRepo
	history     *mockHistoryService
	sync        *mockSyncService
	health      *mockHealthService
	events      EventSource
}

func newTestDeps() *testDeps {
	return &testDeps{
		captures:    &mockCaptureService{},
		transcriber: &mockTranscriber{},
		settings:    &mockSettingsRepo{},
		history:     &mockHistoryService{},
		sync:        &mockSyncService{},
		health:      &mockHealthService{},
		events:      &staticEventSource{},
	}
}

// router builds the full router; secret "" disables auth.
func (d *testDeps) router(secret string) http.Handler {
	logger := NewMockHandlerLogger()
	return NewRouter(
		NewCaptureHandler(d.captures, d.history, d.sync, d.transcriber, d.settings, logger),
		NewMessageHandler(d.captures, d.transcriber, d.settings, logger),
		NewSettingsHandler(d.settings, d.health, logger),
		NewEventsHandler(d.events, logger),
		NewAuthMiddleware(secret, logger).Middleware,
		[]string{"chrome-extension://*", "http://localhost:5173"},
		logger,
	)
}

// staticEventSource replays a fixed list of events and then closes the stream.
type staticEventSource struct {
	events []domain.CaptureEvent
}

func (s *staticEventSource) Subscribe() (<-chan domain.CaptureEvent, func()) {
	ch := make(chan domain.CaptureEvent, len(s.events))
	for _, e := range s.events {
		ch <- e
	}
	close(ch)
	return ch, func() {}
}
