package domain

// CaptureState is the lifecycle state of a still capture.
type CaptureState int

const (
	CaptureIdle CaptureState = iota
	CaptureStarting
	CaptureFinishing
	CaptureDone
	CaptureRejected
	CaptureFailed
)

// String returns a human-readable representation of the state.
func (s CaptureState) String() string {
	switch s {
	case CaptureIdle:
		return "Idle"
	case CaptureStarting:
		return "Starting"
	case CaptureFinishing:
		return "Finishing"
	case CaptureDone:
		return "Done"
	case CaptureRejected:
		return "Rejected"
	case CaptureFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Active returns true while the device has not answered the last step.
func (s CaptureState) Active() bool {
	return s == CaptureStarting || s == CaptureFinishing
}

// CaptureSession correlates a capture start with the ID the device returned.
type CaptureSession struct {
	Timestamp int64
	ID        int
	State     CaptureState
}
