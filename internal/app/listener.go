package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/bft-labs/probecast/internal/domain"
	"github.com/bft-labs/probecast/internal/ports"
)

// DefaultEventBuffer is the capacity of the event channel between the
// listener and the dispatcher.
const DefaultEventBuffer = 64

// ListenerAdapter implements ports.Listener. Each callback copies whatever it
// was given, wraps it in a domain.Event and posts it without blocking.
// When the channel is full the event is dropped and counted.
type ListenerAdapter struct {
	events  chan<- domain.Event
	logger  ports.Logger
	dropped atomic.Uint64
}

var _ ports.Listener = (*ListenerAdapter)(nil)

// NewListenerAdapter creates an adapter posting into events.
func NewListenerAdapter(events chan<- domain.Event, logger ports.Logger) *ListenerAdapter {
	return &ListenerAdapter{events: events, logger: logger}
}

// Dropped returns how many events were lost to a full channel.
func (l *ListenerAdapter) Dropped() uint64 {
	return l.dropped.Load()
}

func (l *ListenerAdapter) post(ev domain.Event) {
	select {
	case l.events <- ev:
	default:
		n := l.dropped.Add(1)
		l.logger.Warn("event channel full, dropping event",
			ports.String("kind", fmt.Sprintf("%T", ev)),
			ports.Uint64("dropped_total", n),
		)
	}
}

// deliver posts a completion that must not be lost. It never blocks the
// caller: if the channel is full, a goroutine waits for room or ctx.
// Completions arriving after ctx is done belong to an abandoned session.
func (l *ListenerAdapter) deliver(ctx context.Context, ev domain.Event) {
	if ctx.Err() != nil {
		l.logger.Debug("discarding completion after shutdown",
			ports.String("kind", fmt.Sprintf("%T", ev)),
		)
		return
	}
	select {
	case l.events <- ev:
		return
	default:
	}
	go func() {
		select {
		case l.events <- ev:
		case <-ctx.Done():
			l.logger.Debug("discarding completion after shutdown",
				ports.String("kind", fmt.Sprintf("%T", ev)),
			)
		}
	}()
}

func (l *ListenerAdapter) Error(message string) {
	l.post(domain.ErrorEvent{Message: message})
}

func (l *ListenerAdapter) ConnectionResult(connected bool) {
	l.post(domain.ConnectionEvent{Connected: connected})
}

func (l *ListenerAdapter) DisconnectionResult(disconnected bool) {
	l.post(domain.DisconnectionEvent{Disconnected: disconnected})
}

func (l *ListenerAdapter) InitializationResult(ok bool) {
	l.post(domain.InitializationEvent{OK: ok})
}

func (l *ListenerAdapter) Freeze(frozen bool) {
	l.post(domain.FreezeEvent{Frozen: frozen})
}

// ProcessedImage copies buf before returning; the device may reuse its memory.
func (l *ListenerAdapter) ProcessedImage(buf domain.ImageBuffer) {
	l.post(domain.ImageEvent{Buffer: buf.Clone()})
}

func (l *ListenerAdapter) ButtonPressed(button string, count int) {
	l.post(domain.ButtonEvent{Button: button, Count: count})
}

func (l *ListenerAdapter) RawDataRequestResult(count int) {
	l.post(domain.RawDataRequestEvent{Count: count})
}

func (l *ListenerAdapter) RawDataReadResult(count int, payload []byte) {
	l.post(domain.RawDataReadEvent{Count: count, Payload: copyBytes(payload)})
}

func (l *ListenerAdapter) RawDataProgress(percent int) {
	l.post(domain.RawDataProgressEvent{Percent: percent})
}

func (l *ListenerAdapter) FirmwareVersion(platform, version string) {
	l.post(domain.FirmwareEvent{Platform: platform, Version: version})
}

func (l *ListenerAdapter) ProbeInfo(info string) {
	l.post(domain.ProbeInfoEvent{Info: info})
}

// Completion callbacks handed to ports.Device requests.

func (l *ListenerAdapter) onRequestDone(ctx context.Context) func(int) {
	return func(count int) {
		l.deliver(ctx, domain.RawDataRequestEvent{Count: count})
	}
}

func (l *ListenerAdapter) onReadDone(ctx context.Context) func(int, []byte) {
	return func(count int, payload []byte) {
		l.deliver(ctx, domain.RawDataReadEvent{Count: count, Payload: copyBytes(payload)})
	}
}

func (l *ListenerAdapter) onCaptureStarted(ctx context.Context) func(int) {
	return func(id int) {
		l.deliver(ctx, domain.CaptureStartedEvent{ID: id})
	}
}

func (l *ListenerAdapter) onCaptureFinished(ctx context.Context, id int) func(bool) {
	return func(ok bool) {
		l.deliver(ctx, domain.CaptureFinishedEvent{ID: id, OK: ok})
	}
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
