package app

import (
	"context"
	"sync"

	"github.com/bft-labs/probecast/internal/domain"
	"github.com/bft-labs/probecast/internal/ports"
)

type (
	captureEffect interface{ captureEffect() }

	startCapture   struct{ timestamp int64 }
	finishCapture  struct{ id int }
	publishCapture struct{ session domain.CaptureSession }
)

func (startCapture) captureEffect()   {}
func (finishCapture) captureEffect()  {}
func (publishCapture) captureEffect() {}

// beginCapture opens a capture of the frame at timestamp.
func beginCapture(s domain.CaptureSession, timestamp int64) (domain.CaptureSession, []captureEffect, error) {
	if s.State.Active() {
		return s, nil, &domain.UsageError{Op: "capture", Err: domain.ErrCaptureInProgress}
	}
	next := domain.CaptureSession{Timestamp: timestamp, State: domain.CaptureStarting}
	return next, []captureEffect{
		publishCapture{session: next},
		startCapture{timestamp: timestamp},
	}, nil
}

// stepCapture applies a device answer to s.
func stepCapture(s domain.CaptureSession, ev domain.Event) (domain.CaptureSession, []captureEffect, error) {
	switch ev := ev.(type) {
	case domain.CaptureStartedEvent:
		if s.State != domain.CaptureStarting {
			return s, nil, errUnexpectedInput
		}
		s.ID = ev.ID
		if ev.ID <= 0 {
			s.State = domain.CaptureRejected
			return s, []captureEffect{publishCapture{session: s}}, nil
		}
		s.State = domain.CaptureFinishing
		return s, []captureEffect{
			publishCapture{session: s},
			finishCapture{id: ev.ID},
		}, nil

	case domain.CaptureFinishedEvent:
		if s.State != domain.CaptureFinishing || ev.ID != s.ID {
			return s, nil, errUnexpectedInput
		}
		if ev.OK {
			s.State = domain.CaptureDone
		} else {
			s.State = domain.CaptureFailed
		}
		return s, []captureEffect{publishCapture{session: s}}, nil
	}
	return s, nil, errUnexpectedInput
}

// abandonCapture fails s if it still waits on the device.
func abandonCapture(s domain.CaptureSession) (domain.CaptureSession, []captureEffect, error) {
	if !s.State.Active() {
		return s, nil, errUnexpectedInput
	}
	s.State = domain.CaptureFailed
	return s, []captureEffect{publishCapture{session: s}}, nil
}

// CaptureHelper runs the two-step still capture: start, then finish with the
// ID the device returned. One capture at a time.
type CaptureHelper struct {
	mu      sync.Mutex
	session domain.CaptureSession

	device   ports.Device
	store    *Store
	listener *ListenerAdapter
	logger   ports.Logger
}

// NewCaptureHelper creates an idle capture helper.
func NewCaptureHelper(device ports.Device, store *Store, listener *ListenerAdapter, logger ports.Logger) *CaptureHelper {
	return &CaptureHelper{
		device:   device,
		store:    store,
		listener: listener,
		logger:   logger,
	}
}

// Session returns a snapshot of the current (or last) capture.
func (c *CaptureHelper) Session() domain.CaptureSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Capture starts a capture of the frame at timestamp. Zero selects the latest
// displayed frame. Device answers are delivered while ctx is alive.
func (c *CaptureHelper) Capture(ctx context.Context, timestamp int64) (domain.CaptureSession, error) {
	if timestamp == 0 {
		ts, ok := c.store.LatestTimestamp()
		if !ok {
			return c.Session(), &domain.UsageError{Op: "capture", Err: domain.ErrNoFrame}
		}
		timestamp = ts
	}

	c.mu.Lock()
	next, effects, err := beginCapture(c.session, timestamp)
	if err != nil {
		c.mu.Unlock()
		return next, err
	}
	c.session = next
	c.mu.Unlock()

	c.logger.Info("starting image capture", ports.Int64("timestamp", timestamp))
	c.run(ctx, effects)
	return next, nil
}

// Handle feeds a capture answer from the device.
func (c *CaptureHelper) Handle(ctx context.Context, ev domain.Event) {
	c.mu.Lock()
	next, effects, err := stepCapture(c.session, ev)
	if err != nil {
		c.mu.Unlock()
		c.logger.Debug("dropping capture notification", ports.String("state", next.State.String()))
		return
	}
	c.session = next
	c.mu.Unlock()

	c.run(ctx, effects)
}

// Abandon fails an active capture whose answers will never be delivered.
func (c *CaptureHelper) Abandon() {
	c.mu.Lock()
	next, effects, err := abandonCapture(c.session)
	if err != nil {
		c.mu.Unlock()
		return
	}
	c.session = next
	c.mu.Unlock()

	c.logger.Warn("capture abandoned", ports.Int64("timestamp", next.Timestamp), ports.Int("id", next.ID))
	c.run(context.Background(), effects)
}

func (c *CaptureHelper) run(ctx context.Context, effects []captureEffect) {
	for _, eff := range effects {
		switch eff := eff.(type) {
		case startCapture:
			c.device.StartCapture(eff.timestamp, c.listener.onCaptureStarted(ctx))
		case finishCapture:
			c.device.FinishCapture(eff.id, c.listener.onCaptureFinished(ctx, eff.id))
		case publishCapture:
			c.store.Capture.Publish(eff.session)
			c.logger.Debug("capture",
				ports.Int("id", eff.session.ID),
				ports.String("state", eff.session.State.String()),
			)
		}
	}
}
