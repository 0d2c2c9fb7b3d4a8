package mission

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/viant/mission/logging"
	"github.com/viant/mission/service/executor"
	"github.com/viant/mission/service/messaging/memory"
	"github.com/viant/mission/service/scheduler"
)

// Store kinds
const (
	StoreMemory = "memory"
	StoreFS     = "fs"
	StoreSQLite = "sqlite"
)

// EnvPrefix prefixes environment overrides, i.e. MISSION_STORE_KIND
const EnvPrefix = "MISSION"

// Config is a serialisable representation of the engine configuration. It can
// be populated from YAML, JSON or environment variables with LoadConfig. The
// zero-value of a nested section inherits its package defaults.
type Config struct {
	Scheduler *scheduler.Config `yaml:"scheduler" mapstructure:"scheduler"`
	Executor  *executor.Config  `yaml:"executor" mapstructure:"executor"`
	Store     StoreConfig       `yaml:"store" mapstructure:"store"`
	Log       LogConfig         `yaml:"log" mapstructure:"log"`
	Events    EventConfig       `yaml:"events" mapstructure:"events"`
	Tracing   TracingConfig     `yaml:"tracing" mapstructure:"tracing"`
}

// StoreConfig selects the repository backend
type StoreConfig struct {
	// Kind is memory, fs or sqlite
	Kind string `yaml:"kind" mapstructure:"kind"`
	// URL is the fs base URL or sqlite database file
	URL string `yaml:"url" mapstructure:"url"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	// Location is a log file, stderr when empty
	Location string `yaml:"location" mapstructure:"location"`
}

// EventConfig configures the approval event queue consumed by Start
type EventConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Queue   memory.Config `yaml:"queue" mapstructure:"queue"`
}

// TracingConfig enables the stdout span exporter
type TracingConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Service string `yaml:"service" mapstructure:"service"`
	Output  string `yaml:"output" mapstructure:"output"`
}

// DefaultConfig returns configuration with package defaults; callers may
// modify it before passing it to WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: scheduler.DefaultConfig(),
		Executor:  executor.DefaultConfig(),
		Store:     StoreConfig{Kind: StoreMemory},
		Log:       LogConfig{Level: logging.LevelInfo},
		Events:    EventConfig{Enabled: true, Queue: memory.DefaultConfig()},
		Tracing:   TracingConfig{Service: "mission"},
	}
}

// Init fills unset sections with defaults
func (c *Config) Init() {
	defaults := DefaultConfig()
	if c.Scheduler == nil {
		c.Scheduler = defaults.Scheduler
	}
	if c.Executor == nil {
		c.Executor = defaults.Executor
	}
	if c.Store.Kind == "" {
		c.Store.Kind = defaults.Store.Kind
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Tracing.Service == "" {
		c.Tracing.Service = defaults.Tracing.Service
	}
}

// Validate returns error describing the first invalid setting or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Scheduler != nil {
		if err := c.Scheduler.Validate(); err != nil {
			return err
		}
	}
	if c.Executor != nil {
		if err := c.Executor.Validate(); err != nil {
			return err
		}
	}
	switch strings.ToLower(c.Store.Kind) {
	case "", StoreMemory:
	case StoreFS, StoreSQLite:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for %v store", c.Store.Kind)
		}
	default:
		return fmt.Errorf("unsupported store.kind %q", c.Store.Kind)
	}
	return nil
}

// LoadConfig reads configuration from the file at location (any viper
// supported format) on top of defaults; MISSION_ prefixed environment
// variables override file values, i.e. MISSION_STORE_KIND=sqlite.
func LoadConfig(location string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	if location != "" {
		v.SetConfigFile(location)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %v: %w", location, err)
		}
	}
	ret := DefaultConfig()
	if err := v.Unmarshal(ret); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	ret.Init()
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// setDefaults registers scalar keys so that environment overrides apply
// without a config file.
func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("scheduler.workers", defaults.Scheduler.Workers)
	v.SetDefault("scheduler.pollingInterval", defaults.Scheduler.PollingInterval)
	v.SetDefault("scheduler.tickRetries", defaults.Scheduler.TickRetries)
	v.SetDefault("executor.timeout", defaults.Executor.Timeout)
	v.SetDefault("executor.maxAttempts", defaults.Executor.MaxAttempts)
	v.SetDefault("executor.backoff", defaults.Executor.Backoff)
	v.SetDefault("executor.baseDelay", defaults.Executor.BaseDelay)
	v.SetDefault("executor.multiplier", defaults.Executor.Multiplier)
	v.SetDefault("executor.maxDelay", defaults.Executor.MaxDelay)
	v.SetDefault("store.kind", defaults.Store.Kind)
	v.SetDefault("store.url", defaults.Store.URL)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.location", defaults.Log.Location)
	v.SetDefault("events.enabled", defaults.Events.Enabled)
	v.SetDefault("events.queue.queueBuffer", defaults.Events.Queue.QueueBuffer)
	v.SetDefault("events.queue.maxRetries", defaults.Events.Queue.MaxRetries)
	v.SetDefault("events.queue.retryDelay", defaults.Events.Queue.RetryDelay)
	v.SetDefault("events.queue.deadLetter", defaults.Events.Queue.DeadLetter)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.service", defaults.Tracing.Service)
	v.SetDefault("tracing.output", defaults.Tracing.Output)
}
