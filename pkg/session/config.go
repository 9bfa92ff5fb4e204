package session

import (
	"errors"
	"time"
)

// Config holds session manager settings.
type Config struct {
	// Addr is the relay server "host:port".
	Addr string `yaml:"address" json:"address"`

	// ConnectTimeout bounds the connection attempt.
	// Default: 5s
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`

	// RetryDelay is waited after every session, successful or not.
	// Default: 1s
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// DefaultConfig returns the reference timings with no address.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 5 * time.Second,
		RetryDelay:     time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("session: address is required")
	}
	if c.ConnectTimeout <= 0 {
		return errors.New("session: connect timeout must be positive")
	}
	if c.RetryDelay < 0 {
		return errors.New("session: retry delay must not be negative")
	}
	return nil
}
