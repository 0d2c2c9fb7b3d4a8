package mission

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	var testCases = []struct {
		description string
		mutate      func(c *Config)
		expectErr   bool
	}{
		{description: "defaults", mutate: func(c *Config) {}},
		{description: "fs without url", mutate: func(c *Config) { c.Store.Kind = StoreFS }, expectErr: true},
		{description: "sqlite", mutate: func(c *Config) { c.Store = StoreConfig{Kind: StoreSQLite, URL: "/tmp/mission.db"} }},
		{description: "unknown store", mutate: func(c *Config) { c.Store.Kind = "redis" }, expectErr: true},
		{description: "workers", mutate: func(c *Config) { c.Scheduler.Workers = 0 }, expectErr: true},
		{description: "attempts", mutate: func(c *Config) { c.Executor.MaxAttempts = 0 }, expectErr: true},
	}
	for _, testCase := range testCases {
		config := DefaultConfig()
		testCase.mutate(config)
		err := config.Validate()
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		assert.NoError(t, err, testCase.description)
	}
}

func TestLoadConfig(t *testing.T) {
	location := filepath.Join(t.TempDir(), "mission.yaml")
	require.NoError(t, os.WriteFile(location, []byte(`
scheduler:
  workers: 8
  pollingInterval: 20ms
  policy:
    gated: [draft]
executor:
  timeout: 2s
  maxAttempts: 5
store:
  kind: fs
  url: /tmp/missions
log:
  level: debug
`), 0o644))
	t.Setenv("MISSION_STORE_KIND", "sqlite")

	config, err := LoadConfig(location)
	require.NoError(t, err)
	assert.Equal(t, 8, config.Scheduler.Workers)
	assert.Equal(t, 20*time.Millisecond, config.Scheduler.PollingInterval)
	assert.Equal(t, 3, config.Scheduler.TickRetries)
	require.NotNil(t, config.Scheduler.Policy)
	assert.Equal(t, []string{"draft"}, config.Scheduler.Policy.Gated)
	assert.Equal(t, 2*time.Second, config.Executor.Timeout)
	assert.Equal(t, 5, config.Executor.MaxAttempts)
	assert.Equal(t, StoreSQLite, config.Store.Kind)
	assert.Equal(t, "/tmp/missions", config.Store.URL)
	assert.Equal(t, "debug", config.Log.Level)
	assert.True(t, config.Events.Enabled)
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
