package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/githarvest/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("HARVEST_REMOTE_TOKEN", "tok")
	t.Setenv("HARVEST_STORE_URL", "mongodb://localhost:27017")
	t.Setenv("HARVEST_REPOSITORIES", "acme/widgets")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://api.github.com/graphql", cfg.RemoteURL)
	assert.Equal(t, "githarvest", cfg.StoreDatabase)
	assert.Equal(t, "entities", cfg.StoreCollection)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 60*time.Second, cfg.RetryInterval)
	assert.Equal(t, 30*time.Minute, cfg.RateLimitInterval)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, time.Duration(0), cfg.Deadline)
	assert.True(t, cfg.CacheNegativeLookups)
	assert.False(t, cfg.RetryShortReturns)
}

func TestLoadParsesRepositoryList(t *testing.T) {
	setRequired(t)
	t.Setenv("HARVEST_REPOSITORIES", "acme/widgets, acme/gadgets ,other/thing")

	cfg, err := config.Load()
	require.NoError(t, err)

	repos := cfg.RepositoryList()
	require.Len(t, repos, 3)
	assert.Equal(t, config.Repository{Owner: "acme", Name: "widgets"}, repos[0])
	assert.Equal(t, config.Repository{Owner: "acme", Name: "gadgets"}, repos[1])
	assert.Equal(t, "other/thing", repos[2].String())
}

func TestLoadRejectsMalformedRepository(t *testing.T) {
	setRequired(t)
	t.Setenv("HARVEST_REPOSITORIES", "not-a-pair")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner/name")
}

func TestLoadRequiresToken(t *testing.T) {
	setRequired(t)
	t.Setenv("HARVEST_REMOTE_TOKEN", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HARVEST_REMOTE_TOKEN")
}

func TestLoadRequiresStoreURL(t *testing.T) {
	setRequired(t)
	t.Setenv("HARVEST_STORE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HARVEST_STORE_URL")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HARVEST_RETRY_ATTEMPTS", "5")
	t.Setenv("HARVEST_RATE_LIMIT_INTERVAL", "10m")
	t.Setenv("HARVEST_CONCURRENCY", "4")
	t.Setenv("HARVEST_RETRY_SHORT_RETURNS", "true")
	t.Setenv("HARVEST_LOG_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, 10*time.Minute, cfg.RateLimitInterval)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.True(t, cfg.RetryShortReturns)
	assert.Equal(t, "debug", cfg.LogLevel)
}
