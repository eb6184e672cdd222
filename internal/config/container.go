package config

import (
	"fmt"

	"nexus-capture/internal/domain"
	"nexus-capture/internal/infra/supabase"
	"nexus-capture/internal/repository"
	"nexus-capture/internal/service"
	"nexus-capture/pkg/logger"
)

// Storage backends selectable with STORAGE_BACKEND.
const (
	StorageSQLite   = "sqlite"
	StorageBolt     = "bolt"
	StorageSupabase = "supabase"
	StorageMemory   = "memory"
)

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	Store          domain.KeyValueStore
	SupabaseClient domain.SupabaseClient

	HistoryRepository  domain.HistoryStore
	SettingsRepository domain.SettingsRepository

	NexusSink   *service.NexusSink
	NotionSink  *service.NotionSink
	Broadcaster *service.Broadcaster
	StreamHub   *service.StreamHub

	CaptureService       domain.CaptureService
	TranscriptionService domain.Transcriber
	HistoryService       domain.HistoryService
	SyncService          domain.SyncService
	HealthService        domain.HealthService
}

// NewContainer creates a new dependency injection container from the environment
func NewContainer() (*Container, error) {
	cfg := NewConfig()
	return NewContainerWithLogger(cfg, logger.NewLogger(cfg.GetLogLevel(), cfg.GetLogFormat()))
}

// NewContainerWithLogger wires every component on top of cfg.
func NewContainerWithLogger(cfg domain.Config, appLogger domain.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: appLogger,
	}

	store, err := c.openStore()
	if err != nil {
		return nil, err
	}
	c.Store = store

	// Repositories
	c.HistoryRepository = repository.NewHistoryRepository(store, appLogger)
	c.SettingsRepository = repository.NewSettingsRepository(store, cfg.GetDefaultSettings(), appLogger)

	// Sinks
	c.NexusSink = service.NewNexusSink(cfg.GetNexusAPIURL(), nil, appLogger)
	c.NotionSink = service.NewNotionSink(cfg.GetNotionAPIURL(), cfg.GetNotionVersion(), nil, appLogger)

	// Observers
	c.StreamHub = service.NewStreamHub(appLogger)
	c.Broadcaster = service.NewBroadcaster(appLogger, c.StreamHub)
	if urls := cfg.GetObserverWebhookURLs(); len(urls) > 0 {
		c.Broadcaster.Register(service.NewWebhookObserver(urls, appLogger))
	}

	// Services
	c.CaptureService = service.NewCaptureService(
		[]domain.Sink{c.NexusSink, c.NotionSink},
		c.HistoryRepository,
		c.Broadcaster,
		appLogger,
	)
	c.TranscriptionService = service.NewTranscriptionService(cfg.GetNexusAPIURL(), nil, appLogger)
	c.HistoryService = service.NewHistoryService(c.HistoryRepository, appLogger)
	c.SyncService = service.NewSyncService(c.HistoryRepository, c.NexusSink, appLogger)
	c.HealthService = service.NewHealthService(cfg.GetNexusAPIURL())

	appLogger.Info("Container initialized",
		"storage_backend", cfg.GetStorageBackend(),
		"nexus_api_url", cfg.GetNexusAPIURL(),
		"webhooks", len(cfg.GetObserverWebhookURLs()))
	return c, nil
}

func (c *Container) openStore() (domain.KeyValueStore, error) {
	switch backend := c.Config.GetStorageBackend(); backend {
	case StorageSQLite:
		store, err := repository.NewSQLiteStore(c.Config.GetDataDir())
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	case StorageBolt:
		store, err := repository.NewBoltStore(c.Config.GetDataDir())
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		return store, nil
	case StorageSupabase:
		client := supabase.NewSupabaseClient(c.Config, c.Logger)
		if err := client.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize supabase: %w", err)
		}
		c.SupabaseClient = client
		return repository.NewSupabaseStore(client, c.Config.GetSupabaseTable(), c.Logger), nil
	case StorageMemory:
		c.Logger.Warn("Using in-memory storage; history is lost on restart")
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Close releases the storage backend
func (c *Container) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}
