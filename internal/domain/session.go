package domain

import "time"

// RawDataState is the lifecycle state of a raw data export.
type RawDataState int

const (
	RawDataIdle RawDataState = iota
	RawDataRequested
	RawDataFound
	RawDataNotFound
	RawDataReading
	RawDataPersisting
	RawDataComplete
	RawDataFailed
)

// String returns a human-readable representation of the state.
func (s RawDataState) String() string {
	switch s {
	case RawDataIdle:
		return "Idle"
	case RawDataRequested:
		return "Requested"
	case RawDataFound:
		return "Found"
	case RawDataNotFound:
		return "NotFound"
	case RawDataReading:
		return "Reading"
	case RawDataPersisting:
		return "Persisting"
	case RawDataComplete:
		return "Complete"
	case RawDataFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal returns true for states that end a session.
func (s RawDataState) Terminal() bool {
	return s == RawDataComplete || s == RawDataFailed || s == RawDataNotFound
}

// Active returns true while a session is in flight.
func (s RawDataState) Active() bool {
	return s != RawDataIdle && !s.Terminal()
}

// Range selects the raw data to export, as device timestamps [Start, End).
// A zero range asks for everything buffered.
type Range struct {
	Start int64
	End   int64
}

// RawDataSession is a snapshot of one raw data export.
type RawDataSession struct {
	ID       string
	Range    Range
	Compress bool
	State    RawDataState

	// Found is the frame count reported by the device once known.
	Found int

	// Size is the payload length once the read completed.
	Size int

	// Destination is the sink name requested by the caller.
	Destination string

	// Location is where the payload was persisted (Complete only).
	Location string

	// Reason explains NotFound and Failed.
	Reason string

	StartedAt  time.Time
	FinishedAt time.Time
}

// Progress is a snapshot of a transfer. Transferred never decreases within one transfer.
type Progress struct {
	Transferred int64
	Total       int64
}

// Percent returns the progress as 0-100.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	pct := int(p.Transferred * 100 / p.Total)
	if pct > 100 {
		return 100
	}
	return pct
}

// Done returns true once everything was transferred.
func (p Progress) Done() bool {
	return p.Total > 0 && p.Transferred >= p.Total
}
