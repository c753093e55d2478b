package ports

import (
	"context"
	"io"
)

// SinkFactory creates named destinations for raw data payloads.
type SinkFactory interface {
	// Create opens a new sink for the given name.
	Create(ctx context.Context, name string) (Sink, error)
}

// Sink is a write stream that only becomes visible once committed.
type Sink interface {
	io.Writer

	// Commit finalizes the sink and returns where the payload now lives.
	Commit() (location string, err error)

	// Abort discards everything written so far. Safe to call after a failed Commit.
	Abort() error
}
