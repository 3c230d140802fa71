package config_test

import (
	"os"
	"testing"
	"time"

	"dotstrings/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"DATABASE_URL", "NEO4J_URI", "NEO4J_USER", "WORKER_COUNT", "BATCH_SIZE", "LOG_LEVEL", "WATCH_DEBOUNCE", "BASE_LOCALE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, "neo4j", cfg.Neo4jUser)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 500, cfg.BatchSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.WatchDebounce)
	assert.Equal(t, "en", cfg.BaseLocale)
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/strings")
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("WATCH_DEBOUNCE", "1s")
	t.Setenv("BASE_LOCALE", "fr")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/strings", cfg.DatabaseURL)
	assert.Equal(t, 1, cfg.WorkerCount)
	assert.Equal(t, time.Second, cfg.WatchDebounce)
	assert.Equal(t, "fr", cfg.BaseLocale)
}

func TestLoad_InvalidValue(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("WORKER_COUNT", "many")

	_, err := config.Load()
	require.Error(t, err)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
