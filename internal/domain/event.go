package domain

// Event is a device notification. The concrete types below are the only variants;
// consumers switch on the type.
type Event interface {
	event()
}

// ErrorEvent carries an error message reported by the device.
type ErrorEvent struct {
	Message string
}

// ConnectionEvent is the result of a connection attempt.
type ConnectionEvent struct {
	Connected bool
}

// DisconnectionEvent is the result of a disconnection request.
type DisconnectionEvent struct {
	Disconnected bool
}

// InitializationEvent is the result of the device session initialization.
type InitializationEvent struct {
	OK bool
}

// FreezeEvent reports whether imaging is frozen.
type FreezeEvent struct {
	Frozen bool
}

// ImageEvent carries a processed image. The buffer is owned by the event.
type ImageEvent struct {
	Buffer ImageBuffer
}

// ButtonEvent reports a button on the probe being pressed Count times.
type ButtonEvent struct {
	Button string
	Count  int
}

// RawDataRequestEvent is the device answer to a raw data request.
// Count is the number of frames found; zero or less means none.
type RawDataRequestEvent struct {
	Count int
}

// RawDataReadEvent is the device answer to a raw data read.
// Payload is owned by the event.
type RawDataReadEvent struct {
	Count   int
	Payload []byte
}

// RawDataProgressEvent reports device-side transfer progress in percent.
type RawDataProgressEvent struct {
	Percent int
}

// FirmwareEvent reports a firmware version query result. Version is empty when unknown.
type FirmwareEvent struct {
	Platform string
	Version  string
}

// ProbeInfoEvent reports a probe info query result. Info is empty when unknown.
type ProbeInfoEvent struct {
	Info string
}

// CaptureStartedEvent is the device answer to a capture start. ID <= 0 means rejected.
type CaptureStartedEvent struct {
	ID int
}

// CaptureFinishedEvent is the device answer to a capture finish.
type CaptureFinishedEvent struct {
	ID int
	OK bool
}

func (ErrorEvent) event()           {}
func (ConnectionEvent) event()      {}
func (DisconnectionEvent) event()   {}
func (InitializationEvent) event()  {}
func (FreezeEvent) event()          {}
func (ImageEvent) event()           {}
func (ButtonEvent) event()          {}
func (RawDataRequestEvent) event()  {}
func (RawDataReadEvent) event()     {}
func (RawDataProgressEvent) event() {}
func (FirmwareEvent) event()        {}
func (ProbeInfoEvent) event()       {}
func (CaptureStartedEvent) event()  {}
func (CaptureFinishedEvent) event() {}

// ButtonPress is the observable form of a ButtonEvent.
type ButtonPress struct {
	Button string
	Count  int
}
