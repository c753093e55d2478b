package ports

import "github.com/bft-labs/probecast/internal/domain"

// Device is the imaging device session. Every request is asynchronous: the
// device answers by calling the done function later, from a goroutine it owns.
// Implementations must not call done synchronously while holding their own locks.
type Device interface {
	// SetListener registers the single receiver of device notifications.
	SetListener(l Listener)

	// RequestRawData asks the device to locate buffered raw data in [start, end).
	// done receives the number of frames found; zero or less means none.
	RequestRawData(start, end int64, compress bool, done func(count int))

	// ReadRawData reads the payload located by the last successful request.
	// done receives the frame count (negative on failure) and the payload.
	// The payload may be reused by the device once done returns.
	ReadRawData(done func(count int, payload []byte))

	// StartCapture begins a still capture of the frame at timestamp.
	// done receives the capture ID; zero or less means rejected.
	StartCapture(timestamp int64, done func(id int))

	// FinishCapture completes the capture started under id.
	FinishCapture(id int, done func(ok bool))
}

// InfoQuerier is implemented by devices that answer informational queries.
// Results come back through Listener.FirmwareVersion and Listener.ProbeInfo.
type InfoQuerier interface {
	QueryFirmwareVersion(platform string)
	QueryProbeInfo()
}

// Listener receives device notifications. The device calls it from a
// goroutine the client does not control; every method must return quickly.
// Byte slices are only valid for the duration of the call.
type Listener interface {
	Error(message string)
	ConnectionResult(connected bool)
	DisconnectionResult(disconnected bool)
	InitializationResult(ok bool)
	Freeze(frozen bool)
	ProcessedImage(buf domain.ImageBuffer)
	ButtonPressed(button string, count int)
	RawDataRequestResult(count int)
	RawDataReadResult(count int, payload []byte)
	RawDataProgress(percent int)
	FirmwareVersion(platform, version string)
	ProbeInfo(info string)
}
