package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"nexus-capture/internal/domain"
)

// SettingsKey is the storage key holding the saved settings.
const SettingsKey = "settings"

// SettingsRepository stores the user's own changes under a single key, layered over env defaults.
type SettingsRepository struct {
	store    domain.KeyValueStore
	defaults domain.Settings
	logger   domain.Logger
}

func NewSettingsRepository(store domain.KeyValueStore, defaults domain.Settings, logger domain.Logger) *SettingsRepository {
	return &SettingsRepository{
		store:    store,
		defaults: defaults,
		logger:   logger,
	}
}

// Get returns the defaults overlaid with whatever the user saved.
func (r *SettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	data, ok, err := r.store.Get(ctx, SettingsKey)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if !ok {
		return r.defaults, nil
	}
	var saved domain.SettingsPatch
	if err := json.Unmarshal(data, &saved); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return r.defaults.Apply(saved), nil
}

// Update overlays patch on the saved changes and persists the result.
func (r *SettingsRepository) Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	data, ok, err := r.store.Get(ctx, SettingsKey)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	var saved domain.SettingsPatch
	if ok {
		if err := json.Unmarshal(data, &saved); err != nil {
			return domain.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
		}
	}

	saved = saved.Overlay(patch)
	encoded, err := json.Marshal(saved)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := r.store.Set(ctx, SettingsKey, encoded); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to persist settings: %w", err)
	}
	settings := r.defaults.Apply(saved)
	r.logger.Info("Settings updated",
		"nexus_enabled", settings.IsNexusEnabled(),
		"notion_enabled", settings.IsNotionEnabled(),
		"notion_configured", settings.HasNotionCredentials())

	return settings, nil
}
