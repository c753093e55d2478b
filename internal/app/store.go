package app

import "github.com/bft-labs/probecast/internal/domain"

// Store is the observable state consumed by the presentation layer.
// The dispatcher, the converter and the raw data machine publish into it
// concurrently; readers poll Load or wait on Changed.
type Store struct {
	// Image is the latest decoded image paired with its timestamp.
	Image *Slot[domain.DecodedImage]

	// Error is the latest error message.
	Error *Slot[string]

	// Progress is the latest transfer progress in percent (0-100).
	Progress *Slot[int]

	// Transfer is the latest byte-level reading of the raw data copy.
	Transfer *Slot[domain.Progress]

	// Session is the latest raw data session snapshot.
	Session *Slot[domain.RawDataSession]

	// Capture is the latest capture session snapshot.
	Capture *Slot[domain.CaptureSession]

	// Button is the latest button press.
	Button *Slot[domain.ButtonPress]

	// Frozen is the latest freeze state.
	Frozen *Slot[bool]

	// any is published after every publish to any other slot.
	any *Slot[struct{}]
}

// NewStore returns a store with every slot empty.
func NewStore() *Store {
	s := &Store{
		Image:    NewSlot[domain.DecodedImage](),
		Error:    NewSlot[string](),
		Progress: NewSlot[int](),
		Transfer: NewSlot[domain.Progress](),
		Session:  NewSlot[domain.RawDataSession](),
		Capture:  NewSlot[domain.CaptureSession](),
		Button:   NewSlot[domain.ButtonPress](),
		Frozen:   NewSlot[bool](),
		any:      NewSlot[struct{}](),
	}
	bump := func() { s.any.Publish(struct{}{}) }
	s.Image.notify = bump
	s.Error.notify = bump
	s.Progress.notify = bump
	s.Transfer.notify = bump
	s.Session.notify = bump
	s.Capture.notify = bump
	s.Button.notify = bump
	s.Frozen.notify = bump
	return s
}

// Changed returns a channel closed by the next publish to any slot.
func (s *Store) Changed() <-chan struct{} {
	return s.any.Changed()
}

// Version counts publishes across all slots.
func (s *Store) Version() uint64 {
	return s.any.Version()
}

// PublishError publishes err's message, ignoring nil.
func (s *Store) PublishError(err error) {
	if err == nil {
		return
	}
	s.Error.Publish(err.Error())
}

// LatestTimestamp returns the timestamp of the latest decoded image.
func (s *Store) LatestTimestamp() (int64, bool) {
	img, ok := s.Image.Load()
	if !ok {
		return 0, false
	}
	return img.Timestamp, true
}
