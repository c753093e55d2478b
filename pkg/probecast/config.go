package probecast

import (
	"fmt"

	"github.com/bft-labs/probecast/internal/app"
	"github.com/bft-labs/probecast/internal/domain"
)

// Config contains the client configuration.
type Config struct {
	// ExportDir is where raw data exports are written.
	// Required unless a sink factory is supplied with WithSinkFactory.
	ExportDir string

	// QueueSize is the number of frames that may wait for conversion.
	// Default: 16
	QueueSize int

	// EventBuffer is the capacity of the device event channel.
	// Default: 64
	EventBuffer int
}

// SetDefaults fills zero fields with their defaults.
func (c *Config) SetDefaults() {
	if c.QueueSize == 0 {
		c.QueueSize = app.DefaultQueueSize
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = app.DefaultEventBuffer
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.QueueSize < 0 {
		return fmt.Errorf("%w: queue size must not be negative", domain.ErrInvalidConfig)
	}
	if c.EventBuffer < 0 {
		return fmt.Errorf("%w: event buffer must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}
