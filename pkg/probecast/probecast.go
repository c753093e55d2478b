package probecast

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/probecast/internal/adapters/decode"
	"github.com/bft-labs/probecast/internal/adapters/fs"
	logAdapter "github.com/bft-labs/probecast/internal/adapters/log"
	"github.com/bft-labs/probecast/internal/app"
	"github.com/bft-labs/probecast/internal/domain"
	"github.com/bft-labs/probecast/internal/ports"
)

// Client drives an imaging device: it converts the frames the device
// streams, runs raw data exports and still captures, and publishes the
// results to its Store. Use New() to create one, then Start().
type Client struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	device    Device
	store     *app.Store
	events    chan domain.Event
	logger    ports.Logger

	listener   *app.ListenerAdapter
	converter  *app.Converter
	rawData    *app.RawDataMachine
	capture    *app.CaptureHelper
	dispatcher *app.Dispatcher

	mu  sync.RWMutex
	ctx context.Context
}

// New creates a client for device and registers itself as the device's
// listener. The client is created in StateStopped; call Start() to begin.
// Returns an error if configuration is invalid.
func New(device Device, cfg Config, opts ...Option) (*Client, error) {
	if device == nil {
		return nil, fmt.Errorf("%w: device is required", domain.ErrInvalidConfig)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.sinks == nil {
		if cfg.ExportDir == "" {
			return nil, fmt.Errorf("%w: export dir is required", domain.ErrInvalidConfig)
		}
		o.sinks = fs.NewSinkFactory(cfg.ExportDir)
	}
	if o.decoder == nil {
		o.decoder = decode.Default()
	}

	var logger ports.Logger
	if o.logger != nil {
		logger = o.logger
	} else {
		logger = logAdapter.NewNoopLogger()
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	store := app.NewStore()
	events := make(chan domain.Event, cfg.EventBuffer)

	listener := app.NewListenerAdapter(events, logger)
	converter := app.NewConverter(o.decoder, cfg.QueueSize, logger)
	rawData := app.NewRawDataMachine(app.RawDataConfig{
		Device:   device,
		Sinks:    o.sinks,
		Catalog:  o.catalog,
		Store:    store,
		Listener: listener,
		Logger:   logger,
		Emitter:  emitter,
	})
	capture := app.NewCaptureHelper(device, store, listener, logger)
	dispatcher := app.NewDispatcher(events, device, converter, rawData, capture, store, logger)

	device.SetListener(listener)

	return &Client{
		config:     cfg,
		opts:       o,
		lifecycle:  app.NewLifecycle(logger, emitter),
		device:     device,
		store:      store,
		events:     events,
		logger:     logger,
		listener:   listener,
		converter:  converter,
		rawData:    rawData,
		capture:    capture,
		dispatcher: dispatcher,
	}, nil
}

// Start runs the conversion worker and the event dispatcher in the
// background. Device notifications posted before Start wait in the event
// channel. The provided context bounds the lifetime of both goroutines.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.ctx = runCtx
	c.lifecycle.SetCancel(cancel)

	c.lifecycle.Go(func() { c.converter.Run(runCtx) })
	c.lifecycle.Go(func() { c.dispatcher.Run(runCtx) })

	return c.lifecycle.TransitionTo(app.StateRunning, "pipeline started")
}

// Stop cancels the pipeline and waits for its goroutines.
// Frames still queued for conversion are dropped. An export or capture still
// waiting on the device is moved to Failed and published, so the next Start
// can begin a new one.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (c *Client) Stop() error {
	c.mu.Lock()

	if !c.lifecycle.CanStop() {
		c.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		c.mu.Unlock()
		return err
	}
	c.lifecycle.Cancel()

	c.mu.Unlock()

	err := c.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	c.rawData.Abandon()
	c.capture.Abandon()
	if dropped := c.listener.Dropped(); dropped > 0 {
		c.logger.Warn("device events dropped during run", ports.Uint64("dropped", dropped))
	}

	if err != nil {
		_ = c.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = c.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (c *Client) Status() State {
	return convertState(c.lifecycle.State())
}

// Store returns the observable state. It is valid before Start and keeps
// its last values after Stop.
func (c *Client) Store() *Store {
	return c.store
}

// StartExport begins a raw data export. Progress and the session are
// published to the Store; the returned session is the Requesting snapshot.
// Fails with a *domain.UsageError wrapping ErrNotRunning when the client is
// not running, or ErrExportInProgress when another export is active.
func (c *Client) StartExport(ctx context.Context, req ExportRequest) (RawDataSession, error) {
	if err := ctx.Err(); err != nil {
		return c.rawData.Session(), err
	}
	runCtx, err := c.running("export")
	if err != nil {
		return c.rawData.Session(), err
	}
	return c.rawData.Start(runCtx, req)
}

// Capture starts a still capture of the frame at timestamp; zero selects
// the latest displayed frame. The outcome is published to Store().Capture.
func (c *Client) Capture(ctx context.Context, timestamp int64) (CaptureSession, error) {
	if err := ctx.Err(); err != nil {
		return c.capture.Session(), err
	}
	runCtx, err := c.running("capture")
	if err != nil {
		return c.capture.Session(), err
	}
	return c.capture.Capture(runCtx, timestamp)
}

// Export returns the current (or last) raw data session.
func (c *Client) Export() RawDataSession {
	return c.rawData.Session()
}

// ListExports returns the most recent catalogued exports, newest first.
// Returns nil when the client has no catalog.
func (c *Client) ListExports(ctx context.Context, limit int) ([]ExportRecord, error) {
	if c.opts.catalog == nil {
		return nil, nil
	}
	return c.opts.catalog.List(ctx, limit)
}

// DroppedEvents returns how many device notifications were lost to a full
// event channel.
func (c *Client) DroppedEvents() uint64 {
	return c.listener.Dropped()
}

// running returns the pipeline context. Device answers are bound to it
// rather than to the caller's context, which usually ends with the call.
func (c *Client) running(op string) (context.Context, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lifecycle.State() != app.StateRunning || c.ctx == nil {
		return nil, &domain.UsageError{Op: op, Err: domain.ErrNotRunning}
	}
	return c.ctx, nil
}
