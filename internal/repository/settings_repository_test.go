package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"nexus-capture/internal/domain"
)

func TestSettingsRepository_DefaultsWhenUnsaved(t *testing.T) {
	defaults := domain.Settings{NotionToken: "env-token", AstraPassword: "env-secret"}
	repo := NewSettingsRepository(NewMemoryStore(), defaults, nopLogger{})

	settings, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, defaults, settings)
	require.True(t, settings.IsNexusEnabled())
	require.True(t, settings.IsNotionEnabled())
}

func TestSettingsRepository_UpdateOverlaysDefaults(t *testing.T) {
	ctx := context.Background()
	defaults := domain.Settings{NotionToken: "env-token", NotionDatabaseID: "env-db"}
	store := NewMemoryStore()
	repo := NewSettingsRepository(store, defaults, nopLogger{})

	updated, err := repo.Update(ctx, domain.SettingsPatch{
		NexusEnabled:     domain.BoolPtr(false),
		NotionDatabaseID: domain.StringPtr("user-db"),
	})
	require.NoError(t, err)
	require.False(t, updated.IsNexusEnabled())
	require.Equal(t, "env-token", updated.NotionToken)
	require.Equal(t, "user-db", updated.NotionDatabaseID)

	// Only the user's own values are persisted.
	data, ok, err := store.Get(ctx, SettingsKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"nexusEnabled":false,"notionDatabaseId":"user-db"}`, string(data))

	again, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, updated, again)
}

func TestSettingsRepository_UpdateMergesSuccessivePatches(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(NewMemoryStore(), domain.Settings{}, nopLogger{})

	_, err := repo.Update(ctx, domain.SettingsPatch{NotionToken: domain.StringPtr("tok")})
	require.NoError(t, err)
	_, err = repo.Update(ctx, domain.SettingsPatch{NotionEnabled: domain.BoolPtr(false)})
	require.NoError(t, err)

	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok", settings.NotionToken)
	require.False(t, settings.IsNotionEnabled())
	require.True(t, settings.IsNexusEnabled())
}

func TestSettingsRepository_StoreFailure(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Close())
	repo := NewSettingsRepository(store, domain.Settings{}, nopLogger{})

	_, err := repo.Get(context.Background())
	require.ErrorIs(t, err, domain.ErrStoreClosed)

	_, err = repo.Update(context.Background(), domain.SettingsPatch{NotionToken: domain.StringPtr("x")})
	require.ErrorIs(t, err, domain.ErrStoreClosed)
}

func TestSettingsRepository_ClearCredentials(t *testing.T) {
	ctx := context.Background()
	defaults := domain.Settings{NotionToken: "env-token", NotionDatabaseID: "env-db", AstraPassword: "env-secret"}
	store := NewMemoryStore()
	repo := NewSettingsRepository(store, defaults, nopLogger{})

	_, err := repo.Update(ctx, domain.SettingsPatch{AstraPassword: domain.StringPtr("user-secret")})
	require.NoError(t, err)

	cleared, err := repo.Update(ctx, domain.SettingsPatch{
		NotionToken:   domain.StringPtr(""),
		AstraPassword: domain.StringPtr(""),
	})
	require.NoError(t, err)
	require.Empty(t, cleared.NotionToken)
	require.Empty(t, cleared.AstraPassword)
	require.Equal(t, "env-db", cleared.NotionDatabaseID)
	require.False(t, cleared.HasNotionCredentials())

	// The clear survives a reload and still overrides the env defaults.
	again, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, cleared, again)

	data, _, err := store.Get(ctx, SettingsKey)
	require.NoError(t, err)
	require.JSONEq(t, `{"notionToken":"","astraPassword":""}`, string(data))
}
