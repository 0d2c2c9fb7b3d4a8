package scheduler

import (
	"fmt"
	"time"

	"github.com/viant/mission/policy"
)

// Config represents scheduler configuration
type Config struct {
	// Workers limits tasks executed in parallel within one tick
	Workers int `yaml:"workers" mapstructure:"workers"`
	// PollingInterval is how often Start scans active missions
	PollingInterval time.Duration `yaml:"pollingInterval" mapstructure:"pollingInterval"`
	// TickRetries is how many times a tick is retried after a concurrency conflict
	TickRetries int `yaml:"tickRetries" mapstructure:"tickRetries"`
	// Policy applies to missions submitted without their own policy
	Policy *policy.Policy `yaml:"policy" mapstructure:"policy"`
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		Workers:         4,
		PollingInterval: 50 * time.Millisecond,
		TickRetries:     3,
	}
}

// Validate checks config
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("scheduler workers must be at least 1")
	}
	if c.PollingInterval <= 0 {
		return fmt.Errorf("scheduler pollingInterval must be positive")
	}
	if c.TickRetries < 0 {
		return fmt.Errorf("scheduler tickRetries must not be negative")
	}
	return nil
}
