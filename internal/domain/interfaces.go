package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Sink is one remote destination for captures.
type Sink interface {
	// Name is the result slot this sink fills.
	Name() string
	// Ready reports whether the sink should be attempted with these settings.
	Ready(settings Settings) bool
	// Attempt sends the capture and returns the decoded success payload.
	Attempt(ctx context.Context, capture *Capture, settings Settings) (json.RawMessage, error)
}

// CapturePoster re-sends a stored capture; any 2xx reply counts as delivered.
type CapturePoster interface {
	Post(ctx context.Context, capture *Capture, settings Settings) error
}

// Observer is told about every completed dispatch. Implementations may fail; callers ignore the error.
type Observer interface {
	Notify(ctx context.Context, capture *Capture, result *DispatchResult) error
}

// KeyValueStore is the durable storage the core owns: opaque values under named keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// HistoryStore is the bounded, newest-first local log of captures.
type HistoryStore interface {
	Append(ctx context.Context, capture *Capture) error
	List(ctx context.Context, limit int) ([]*Capture, error)
	CountSince(ctx context.Context, floor time.Time) (int, error)
	CountByCategory(ctx context.Context, category Category) (int, error)
	FindByID(ctx context.Context, id int64) (*Capture, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// SettingsRepository persists the settings snapshot.
type SettingsRepository interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, patch SettingsPatch) (Settings, error)
}

// CaptureService is the dispatcher use case.
type CaptureService interface {
	Dispatch(ctx context.Context, input RawInput, settings Settings) (*DispatchResult, error)
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, settings Settings) TranscriptionResult
}

// HistoryService exposes read and maintenance operations over the history.
type HistoryService interface {
	List(ctx context.Context, limit int) ([]*Capture, error)
	Find(ctx context.Context, id int64) (*Capture, error)
	Stats(ctx context.Context, now time.Time) (*CaptureStats, error)
	Clear(ctx context.Context) error
}

// SyncService re-sends recent history to the NEXUS API.
type SyncService interface {
	SyncRecent(ctx context.Context, settings Settings) (*SyncReport, error)
}

// HealthService checks the upstream API.
type HealthService interface {
	Check(ctx context.Context) HealthStatus
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetLogFormat() string
	GetNexusAPIURL() string
	GetNotionAPIURL() string
	GetNotionVersion() string
	GetStorageBackend() string
	GetDataDir() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetSupabaseTable() string
	GetAPISecret() string
	GetAllowedOrigins() []string
	GetObserverWebhookURLs() []string
	GetDefaultSettings() Settings
}
