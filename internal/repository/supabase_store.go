package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nexus-capture/internal/domain"

	"github.com/supabase-community/postgrest-go"
)

// SupabaseStore implements domain.KeyValueStore on a Supabase table with columns (key, value, updated_at).
type SupabaseStore struct {
	supabaseClient domain.SupabaseClient
	table          string
	logger         domain.Logger
}

func NewSupabaseStore(supabaseClient domain.SupabaseClient, table string, logger domain.Logger) *SupabaseStore {
	return &SupabaseStore{
		supabaseClient: supabaseClient,
		table:          table,
		logger:         logger,
	}
}

type kvRow struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (s *SupabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	client := s.supabaseClient.DB()
	if client == nil {
		return nil, false, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From(s.table).
		Select("key,value", "", false).
		Eq("key", key).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}

	var rows []kvRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return []byte(rows[0].Value), true, nil
}

func (s *SupabaseStore) Set(ctx context.Context, key string, value []byte) error {
	client := s.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	row := kvRow{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	// Upsert on the primary key so every write replaces the whole value.
	_, _, err := client.From(s.table).
		Upsert(row, "key", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	s.logger.Debug("Supabase key written", "table", s.table, "key", key, "bytes", len(value))
	return nil
}

func (s *SupabaseStore) Delete(ctx context.Context, key string) error {
	client := s.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	_, _, err := client.From(s.table).
		Delete("minimal", "").
		Eq("key", key).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Close is a no-op; the HTTP client behind Supabase holds no resources that need releasing.
func (s *SupabaseStore) Close() error {
	return nil
}
