package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filesentry/filesentry/internal/watcher"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "filesentry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	// Given: a minimal config naming only a path
	path := writeConfig(t, `
watches:
  - path: /etc/app/config.yaml
`)

	// When: loaded
	cfg, err := Load(path)
	require.NoError(t, err)

	// Then: defaults fill in strategy, interval, grace and log level
	require.Len(t, cfg.Watches, 1)
	w := cfg.Watches[0]
	assert.Equal(t, StrategyNotify, w.Strategy)
	assert.Equal(t, watcher.DefaultPollInterval, w.PollInterval())
	assert.Equal(t, watcher.DefaultGracePeriod, w.GracePeriod())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FullConfig(t *testing.T) {
	// Given: a fully specified config
	path := writeConfig(t, `
watches:
  - path: /var/lib/app/state.json
    strategy: poll
    poll_interval_ms: 250
    grace_period_ms: 0
logging:
  level: debug
  file: /tmp/filesentry.log
`)

	// When: loaded
	cfg, err := Load(path)
	require.NoError(t, err)

	// Then: every value survives, including the explicit zero grace
	w := cfg.Watches[0]
	assert.Equal(t, StrategyPoll, w.Strategy)
	assert.Equal(t, 250*time.Millisecond, w.PollInterval())
	assert.Equal(t, time.Duration(0), w.GracePeriod())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/filesentry.log", cfg.Logging.File)
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no watches", `logging: {level: info}`},
		{"missing path", "watches:\n  - strategy: poll\n"},
		{"unknown strategy", "watches:\n  - path: /a\n    strategy: inotify\n"},
		{"negative interval", "watches:\n  - path: /a\n    poll_interval_ms: -5\n"},
		{"negative grace", "watches:\n  - path: /a\n    grace_period_ms: -1\n"},
		{"malformed yaml", "watches: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
