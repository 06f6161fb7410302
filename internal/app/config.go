package app

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultTickRate     = 60
	DefaultDrainTimeout = 5 * time.Second
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string // hcl files

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// TickRate is the number of host ticks per second.
	TickRate int
	// Duration stops the run after it elapses. Zero runs until cancelled.
	Duration     time.Duration
	ExitWhenIdle bool
	// DrainTimeout bounds how long shutdown waits for pending traces before
	// the player is torn down forcibly.
	DrainTimeout time.Duration

	RelayURL       string
	RelayNamespace string
	OTLPEndpoint   string

	// Search, when set, lists the node kinds matching the pattern instead of
	// running a graph.
	Search string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" && cfg.Search == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.TickRate < 0 {
		return nil, fmt.Errorf("tick rate must not be negative, got %d", cfg.TickRate)
	}
	if cfg.TickRate == 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.Duration < 0 {
		return nil, fmt.Errorf("duration must not be negative, got %s", cfg.Duration)
	}
	if cfg.DrainTimeout < 0 {
		return nil, fmt.Errorf("drain timeout must not be negative, got %s", cfg.DrainTimeout)
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	return &cfg, nil
}

// TickInterval is the wall-clock time between host ticks.
func (c *Config) TickInterval() time.Duration {
	rate := c.TickRate
	if rate <= 0 {
		rate = DefaultTickRate
	}
	return time.Second / time.Duration(rate)
}
