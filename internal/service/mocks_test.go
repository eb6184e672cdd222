package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"nexus-capture/internal/domain"
	"nexus-capture/internal/repository"
)

type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		messages: []string{},
	}
}

func (m *MockLogger) record(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, line)
}

func (m *MockLogger) has(line string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg == line {
			return true
		}
	}
	return false
}

func (m *MockLogger) Info(msg string, args ...interface{}) {
	m.record("INFO: " + msg)
}

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	m.record("ERROR: " + msg + " - " + err.Error())
}

func (m *MockLogger) Debug(msg string, args ...interface{}) {
	m.record("DEBUG: " + msg)
}

func (m *MockLogger) Warn(msg string, args ...interface{}) {
	m.record("WARN: " + msg)
}

// mockSink is a scripted domain.Sink.
type mockSink struct {
	name    string
	ready   bool
	payload json.RawMessage
	err     error
	panics  bool
	before  func()

	mu    sync.Mutex
	calls []*domain.Capture
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Ready(domain.Settings) bool { return m.ready }

func (m *mockSink) Attempt(ctx context.Context, capture *domain.Capture, settings domain.Settings) (json.RawMessage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, capture)
	m.mu.Unlock()

	if m.before != nil {
		m.before()
	}
	if m.panics {
		panic("boom")
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.payload, nil
}

func (m *mockSink) Post(ctx context.Context, capture *domain.Capture, settings domain.Settings) error {
	_, err := m.Attempt(ctx, capture, settings)
	return err
}

func (m *mockSink) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockObserver records notifications.
type mockObserver struct {
	mu       sync.Mutex
	err      error
	panics   bool
	captures []*domain.Capture
	results  []*domain.DispatchResult
}

func (m *mockObserver) Notify(ctx context.Context, capture *domain.Capture, result *domain.DispatchResult) error {
	m.mu.Lock()
	m.captures = append(m.captures, capture)
	m.results = append(m.results, result)
	m.mu.Unlock()
	if m.panics {
		panic("observer boom")
	}
	return m.err
}

func (m *mockObserver) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.captures)
}

// failingHistory fails every append.
type failingHistory struct {
	domain.HistoryStore
}

func (failingHistory) Append(ctx context.Context, capture *domain.Capture) error {
	return errors.New("disk full")
}

func newTestHistory() *repository.HistoryRepository {
	return repository.NewHistoryRepository(repository.NewMemoryStore(), NewMockLogger())
}
