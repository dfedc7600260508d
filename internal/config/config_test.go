package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestFromLookupDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFromLookupOverrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"CALLBRIDGE_ADDR":              "127.0.0.1:9000",
		"CALLBRIDGE_LOG_LEVEL":         "DEBUG",
		"CALLBRIDGE_LOG_FORMAT":        "json",
		"CALLBRIDGE_METRICS_ENABLED":   "false",
		"CALLBRIDGE_FINISHED_SESSIONS": "16",
		"CALLBRIDGE_SUBSCRIBER_QUEUE":  "8",
		"CALLBRIDGE_SHUTDOWN_TIMEOUT":  "2s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, 16, cfg.FinishedSessions)
	assert.Equal(t, 8, cfg.SubscriberQueue)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
}

func TestFromLookupRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"CALLBRIDGE_LOG_LEVEL":         "loud",
		"CALLBRIDGE_LOG_FORMAT":        "xml",
		"CALLBRIDGE_METRICS_ENABLED":   "maybe",
		"CALLBRIDGE_FINISHED_SESSIONS": "0",
		"CALLBRIDGE_SUBSCRIBER_QUEUE":  "-1",
		"CALLBRIDGE_SHUTDOWN_TIMEOUT":  "soon",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(map[string]string{key: value}))
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CALLBRIDGE_ADDR=:7070\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CALLBRIDGE_ADDR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
}

func TestLoadWithoutEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
