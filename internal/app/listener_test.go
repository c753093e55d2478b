package app

import (
	"context"
	"testing"

	"github.com/bft-labs/probecast/internal/domain"
)

func TestListener_CopiesImageBuffer(t *testing.T) {
	events := make(chan domain.Event, 1)
	l := NewListenerAdapter(events, nopLogger{})

	data := []byte{9, 9, 1, 2, 3, 4}
	l.ProcessedImage(domain.ImageBuffer{Data: data, Offset: 2, Size: 4, Format: domain.FormatCompressed, Timestamp: 5})
	data[2] = 0 // device reuses its memory after the callback

	ev, ok := nextEvent(t, events).(domain.ImageEvent)
	if !ok {
		t.Fatal("want ImageEvent")
	}
	payload, err := ev.Buffer.Payload()
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}
	if string(payload) != string([]byte{1, 2, 3, 4}) {
		t.Errorf("payload = %v, want [1 2 3 4]", payload)
	}
	if ev.Buffer.Timestamp != 5 {
		t.Errorf("Timestamp = %d, want 5", ev.Buffer.Timestamp)
	}
}

func TestListener_CopiesRawPayload(t *testing.T) {
	events := make(chan domain.Event, 1)
	l := NewListenerAdapter(events, nopLogger{})

	payload := []byte{1, 2, 3}
	l.RawDataReadResult(1, payload)
	payload[0] = 7

	ev := nextEvent(t, events).(domain.RawDataReadEvent)
	if ev.Payload[0] != 1 {
		t.Error("raw payload was not copied")
	}
}

func TestListener_DropsWhenFull(t *testing.T) {
	events := make(chan domain.Event, 1)
	logger := &recordingLogger{}
	l := NewListenerAdapter(events, logger)

	l.Freeze(true)
	l.Freeze(false) // channel full: must return immediately

	if l.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", l.Dropped())
	}
	if len(logger.Warnings()) != 1 {
		t.Errorf("warnings = %v, want one", logger.Warnings())
	}
	if ev := nextEvent(t, events); ev != (domain.FreezeEvent{Frozen: true}) {
		t.Errorf("kept event = %#v, want the first one", ev)
	}
}

func TestListener_CompletionsAreNotDropped(t *testing.T) {
	events := make(chan domain.Event, 1)
	l := NewListenerAdapter(events, nopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l.Freeze(true)
	l.onRequestDone(ctx)(3) // channel full: waits in the background

	if ev := nextEvent(t, events); ev != (domain.FreezeEvent{Frozen: true}) {
		t.Fatalf("first event = %#v", ev)
	}
	if ev := nextEvent(t, events); ev != (domain.RawDataRequestEvent{Count: 3}) {
		t.Errorf("completion = %#v, want RawDataRequestEvent{3}", ev)
	}
	if l.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", l.Dropped())
	}
}

func TestListener_DiscardsCompletionsAfterCancel(t *testing.T) {
	events := make(chan domain.Event, 4)
	l := NewListenerAdapter(events, nopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l.onRequestDone(ctx)(3)
	l.onCaptureStarted(ctx)(5)

	select {
	case ev := <-events:
		t.Errorf("completion after cancel was posted: %#v", ev)
	default:
	}
}

func TestListener_CallbackKinds(t *testing.T) {
	events := make(chan domain.Event, 16)
	l := NewListenerAdapter(events, nopLogger{})

	l.Error("oops")
	l.ConnectionResult(true)
	l.DisconnectionResult(true)
	l.InitializationResult(false)
	l.ButtonPressed("up", 2)
	l.RawDataRequestResult(4)
	l.RawDataProgress(30)
	l.FirmwareVersion("HD", "1.2")
	l.ProbeInfo("L7")

	want := []domain.Event{
		domain.ErrorEvent{Message: "oops"},
		domain.ConnectionEvent{Connected: true},
		domain.DisconnectionEvent{Disconnected: true},
		domain.InitializationEvent{OK: false},
		domain.ButtonEvent{Button: "up", Count: 2},
		domain.RawDataRequestEvent{Count: 4},
		domain.RawDataProgressEvent{Percent: 30},
		domain.FirmwareEvent{Platform: "HD", Version: "1.2"},
		domain.ProbeInfoEvent{Info: "L7"},
	}
	for i, w := range want {
		if got := nextEvent(t, events); got != w {
			t.Errorf("event %d = %#v, want %#v", i, got, w)
		}
	}
}
