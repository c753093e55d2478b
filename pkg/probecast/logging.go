package probecast

import (
	"github.com/rs/zerolog"

	logAdapter "github.com/bft-labs/probecast/internal/adapters/log"
	"github.com/bft-labs/probecast/internal/ports"
)

// NewZerologLogger adapts a zerolog logger for WithLogger.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return logAdapter.NewZerologAdapterWithLogger(logger)
}

// NewNoopLogger returns a logger that discards everything.
func NewNoopLogger() Logger {
	return logAdapter.NewNoopLogger()
}

// Field constructors for custom Logger implementations and handlers.
var (
	String   = ports.String
	Int      = ports.Int
	Int64    = ports.Int64
	Uint64   = ports.Uint64
	Bool     = ports.Bool
	Duration = ports.Duration
	Err      = ports.Err
	Any      = ports.Any
)
