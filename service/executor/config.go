package executor

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Backoff strategies; none retries without delay, attempts stay bounded by MaxAttempts
const (
	BackoffExponential = "exponential"
	BackoffFixed       = "fixed"
	BackoffNone        = "none"
)

// Config defines attempt deadline and retry policy
type Config struct {
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAttempts int           `yaml:"maxAttempts" mapstructure:"maxAttempts"`
	Backoff     string        `yaml:"backoff" mapstructure:"backoff"`
	BaseDelay   time.Duration `yaml:"baseDelay" mapstructure:"baseDelay"`
	Multiplier  float64       `yaml:"multiplier" mapstructure:"multiplier"`
	MaxDelay    time.Duration `yaml:"maxDelay" mapstructure:"maxDelay"`
}

// DefaultConfig returns default executor config
func DefaultConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		MaxAttempts: 3,
		Backoff:     BackoffExponential,
		BaseDelay:   200 * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    10 * time.Second,
	}
}

// Validate checks config
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("executor timeout must be positive")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("executor maxAttempts must be at least 1")
	}
	switch strings.ToLower(c.Backoff) {
	case "", BackoffExponential, BackoffFixed, BackoffNone:
	default:
		return fmt.Errorf("unsupported backoff: %v", c.Backoff)
	}
	if c.BaseDelay < 0 || c.MaxDelay < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	return nil
}

// ShouldRetry returns whether another attempt is allowed after attempts
// completed attempts, and the delay before it.
func (c *Config) ShouldRetry(attempts int) (bool, time.Duration) {
	maxAttempts := c.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultConfig().MaxAttempts
	}
	if attempts >= maxAttempts {
		return false, 0
	}
	switch strings.ToLower(c.Backoff) {
	case BackoffNone:
		return true, 0
	case BackoffFixed:
		return true, c.BaseDelay
	}
	mult := c.Multiplier
	if mult <= 1 {
		mult = 2
	}
	exponent := attempts - 1
	if exponent < 0 {
		exponent = 0
	}
	delay := float64(c.BaseDelay) * math.Pow(mult, float64(exponent))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}
	return true, time.Duration(delay)
}
