package app

import (
	"context"
	"errors"

	"github.com/bft-labs/probecast/internal/domain"
	"github.com/bft-labs/probecast/internal/ports"
)

// FirmwarePlatforms are queried once the device session is initialized.
var FirmwarePlatforms = []string{"V1", "HD", "HD3"}

// Effects produced by route.
type (
	effect interface{ effect() }

	convertImage  struct{ buf domain.ImageBuffer }
	storeError    struct{ message string }
	storeButton   struct{ press domain.ButtonPress }
	storeFrozen   struct{ frozen bool }
	toRawData     struct{ ev domain.Event }
	toCapture     struct{ ev domain.Event }
	queryProbe    struct{}
	queryFirmware struct{ platforms []string }
	logEvent      struct {
		msg    string
		fields []ports.Field
	}
)

func (convertImage) effect()  {}
func (storeError) effect()    {}
func (storeButton) effect()   {}
func (storeFrozen) effect()   {}
func (toRawData) effect()     {}
func (toCapture) effect()     {}
func (queryProbe) effect()    {}
func (queryFirmware) effect() {}
func (logEvent) effect()      {}

// route maps one event to the effects it causes.
func route(ev domain.Event) []effect {
	switch ev := ev.(type) {
	case domain.ImageEvent:
		return []effect{convertImage{buf: ev.Buffer}}
	case domain.ErrorEvent:
		return []effect{
			storeError{message: ev.Message},
			logEvent{msg: "device error", fields: []ports.Field{ports.String("message", ev.Message)}},
		}
	case domain.ConnectionEvent:
		effects := []effect{logEvent{msg: "connection result", fields: []ports.Field{ports.Bool("connected", ev.Connected)}}}
		if ev.Connected {
			effects = append(effects, queryProbe{})
		}
		return effects
	case domain.DisconnectionEvent:
		return []effect{logEvent{msg: "disconnection result", fields: []ports.Field{ports.Bool("disconnected", ev.Disconnected)}}}
	case domain.InitializationEvent:
		effects := []effect{logEvent{msg: "initialization result", fields: []ports.Field{ports.Bool("ok", ev.OK)}}}
		if ev.OK {
			effects = append(effects, queryFirmware{platforms: FirmwarePlatforms})
		}
		return effects
	case domain.FreezeEvent:
		return []effect{
			storeFrozen{frozen: ev.Frozen},
			logEvent{msg: "freeze", fields: []ports.Field{ports.Bool("frozen", ev.Frozen)}},
		}
	case domain.ButtonEvent:
		return []effect{
			storeButton{press: domain.ButtonPress{Button: ev.Button, Count: ev.Count}},
			logEvent{msg: "button pressed", fields: []ports.Field{ports.String("button", ev.Button), ports.Int("count", ev.Count)}},
		}
	case domain.FirmwareEvent:
		version := ev.Version
		if version == "" {
			version = "none"
		}
		return []effect{logEvent{msg: "firmware", fields: []ports.Field{ports.String("platform", ev.Platform), ports.String("version", version)}}}
	case domain.ProbeInfoEvent:
		info := ev.Info
		if info == "" {
			info = "none"
		}
		return []effect{logEvent{msg: "probe info", fields: []ports.Field{ports.String("info", info)}}}
	case domain.RawDataRequestEvent, domain.RawDataReadEvent, domain.RawDataProgressEvent:
		return []effect{toRawData{ev: ev}}
	case domain.CaptureStartedEvent, domain.CaptureFinishedEvent:
		return []effect{toCapture{ev: ev}}
	}
	return nil
}

// Dispatcher consumes device events on a single goroutine and applies their effects.
type Dispatcher struct {
	events    <-chan domain.Event
	device    ports.Device
	converter *Converter
	rawData   *RawDataMachine
	capture   *CaptureHelper
	store     *Store
	logger    ports.Logger
}

// NewDispatcher creates a dispatcher reading from events.
func NewDispatcher(
	events <-chan domain.Event,
	device ports.Device,
	converter *Converter,
	rawData *RawDataMachine,
	capture *CaptureHelper,
	store *Store,
	logger ports.Logger,
) *Dispatcher {
	return &Dispatcher{
		events:    events,
		device:    device,
		converter: converter,
		rawData:   rawData,
		capture:   capture,
		store:     store,
		logger:    logger,
	}
}

// Run dispatches events until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			d.Dispatch(ctx, ev)
		}
	}
}

// Dispatch applies the effects of one event.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.Event) {
	for _, eff := range route(ev) {
		d.apply(ctx, eff)
	}
}

func (d *Dispatcher) apply(ctx context.Context, eff effect) {
	switch eff := eff.(type) {
	case convertImage:
		err := d.converter.Submit(eff.buf, d.onConverted)
		if errors.Is(err, domain.ErrQueueFull) {
			d.logger.Warn("conversion queue full, dropping frame",
				ports.Int64("timestamp", eff.buf.Timestamp),
				ports.Int("pending", d.converter.Pending()),
			)
		}
	case storeError:
		d.store.Error.Publish(eff.message)
	case storeButton:
		d.store.Button.Publish(eff.press)
	case storeFrozen:
		d.store.Frozen.Publish(eff.frozen)
	case toRawData:
		d.rawData.Handle(ctx, eff.ev)
	case toCapture:
		d.capture.Handle(ctx, eff.ev)
	case queryProbe:
		if q, ok := d.device.(ports.InfoQuerier); ok {
			q.QueryProbeInfo()
		}
	case queryFirmware:
		if q, ok := d.device.(ports.InfoQuerier); ok {
			for _, p := range eff.platforms {
				q.QueryFirmwareVersion(p)
			}
		}
	case logEvent:
		d.logger.Info(eff.msg, eff.fields...)
	}
}

// onConverted runs on the converter goroutine.
func (d *Dispatcher) onConverted(img domain.DecodedImage, err error) {
	if err != nil {
		d.logger.Warn("image conversion failed", ports.Err(err))
		d.store.PublishError(err)
		return
	}
	d.store.Image.Publish(img)
}
