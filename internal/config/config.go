package config

import (
	"os"
	"strconv"
	"strings"

	"nexus-capture/internal/domain"
)

const (
	defaultNexusAPIURL   = "https://astra-command-center-sigma.vercel.app"
	defaultNotionAPIURL  = "https://api.notion.com/v1"
	defaultNotionVersion = "2022-06-28"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort          string
	LogLevel            string
	LogFormat           string
	NexusAPIURL         string
	NotionAPIURL        string
	NotionVersion       string
	StorageBackend      string
	DataDir             string
	SupabaseURL         string
	SupabaseKey         string
	SupabaseTable       string
	APISecret           string
	AllowedOrigins      []string
	ObserverWebhookURLs []string
	DefaultSettings     domain.Settings
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:     getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		NexusAPIURL:    strings.TrimRight(getEnvOrDefault("NEXUS_API_URL", defaultNexusAPIURL), "/"),
		NotionAPIURL:   strings.TrimRight(getEnvOrDefault("NOTION_API_URL", defaultNotionAPIURL), "/"),
		NotionVersion:  getEnvOrDefault("NOTION_VERSION", defaultNotionVersion),
		StorageBackend: strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", "sqlite")),
		DataDir:        getEnvOrDefault("DATA_DIR", "./data"),
		SupabaseURL:    getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:    getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		SupabaseTable:  getEnvOrDefault("SUPABASE_TABLE", "capture_storage"),
		APISecret:      getEnvOrDefault("API_SECRET", ""),
		AllowedOrigins: getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{
			"chrome-extension://*",
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		ObserverWebhookURLs: getEnvListOrDefault("OBSERVER_WEBHOOK_URLS", nil),
		DefaultSettings: domain.Settings{
			NexusEnabled:     getEnvBoolPtr("NEXUS_ENABLED"),
			NotionEnabled:    getEnvBoolPtr("NOTION_ENABLED"),
			NotionToken:      getEnvOrDefault("NOTION_TOKEN", ""),
			NotionDatabaseID: getEnvOrDefault("NOTION_DATABASE_ID", ""),
			AstraPassword:    getEnvOrDefault("ASTRA_PASSWORD", ""),
		},
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetLogFormat returns the log output format (text or json)
func (c *AppConfig) GetLogFormat() string {
	return c.LogFormat
}

// GetNexusAPIURL returns the NEXUS API base URL
func (c *AppConfig) GetNexusAPIURL() string {
	return c.NexusAPIURL
}

// GetNotionAPIURL returns the Notion API base URL
func (c *AppConfig) GetNotionAPIURL() string {
	return c.NotionAPIURL
}

// GetNotionVersion returns the Notion-Version header value
func (c *AppConfig) GetNotionVersion() string {
	return c.NotionVersion
}

// GetStorageBackend returns the key/value backend name
func (c *AppConfig) GetStorageBackend() string {
	return c.StorageBackend
}

// GetDataDir returns the directory holding embedded databases
func (c *AppConfig) GetDataDir() string {
	return c.DataDir
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetSupabaseTable returns the table used by the Supabase storage backend
func (c *AppConfig) GetSupabaseTable() string {
	return c.SupabaseTable
}

// GetAPISecret returns the bearer secret protecting the API, empty when open
func (c *AppConfig) GetAPISecret() string {
	return c.APISecret
}

// GetAllowedOrigins returns the CORS origins
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetObserverWebhookURLs returns the URLs notified after each capture
func (c *AppConfig) GetObserverWebhookURLs() []string {
	return c.ObserverWebhookURLs
}

// GetDefaultSettings returns the settings used until the user saves their own
func (c *AppConfig) GetDefaultSettings() domain.Settings {
	return c.DefaultSettings
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvBoolPtr returns nil when the variable is unset or unparsable, so the setting stays "absent".
func getEnvBoolPtr(key string) *bool {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil
	}
	return &b
}
