package ws

import (
	"time"

	"github.com/bft-labs/probecast/internal/app"
	"github.com/bft-labs/probecast/internal/domain"
)

// Snapshot is the JSON view of the store.
type Snapshot struct {
	Frozen   bool          `json:"frozen"`
	Error    string        `json:"error,omitempty"`
	Progress int           `json:"progress"`
	Transfer *TransferView `json:"transfer,omitempty"`
	Image    *ImageView    `json:"image,omitempty"`
	Session  *SessionView  `json:"session,omitempty"`
	Capture  *CaptureView  `json:"capture,omitempty"`
	Button   *ButtonView   `json:"button,omitempty"`
}

type TransferView struct {
	Transferred int64 `json:"transferred"`
	Total       int64 `json:"total"`
}

type ImageView struct {
	Timestamp int64 `json:"timestamp"`
	Width     int   `json:"width"`
	Height    int   `json:"height"`
}

type SessionView struct {
	ID          string     `json:"id"`
	State       string     `json:"state"`
	Start       int64      `json:"start"`
	End         int64      `json:"end"`
	Compress    bool       `json:"compress"`
	Found       int        `json:"found,omitempty"`
	Size        int        `json:"size,omitempty"`
	Destination string     `json:"destination"`
	Location    string     `json:"location,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

type CaptureView struct {
	ID        int    `json:"id"`
	Timestamp int64  `json:"timestamp"`
	State     string `json:"state"`
}

type ButtonView struct {
	Button string `json:"button"`
	Count  int    `json:"count"`
}

// TakeSnapshot reads every slot of st.
func TakeSnapshot(st *app.Store) Snapshot {
	var snap Snapshot

	snap.Frozen, _ = st.Frozen.Load()
	snap.Error, _ = st.Error.Load()
	snap.Progress, _ = st.Progress.Load()

	if p, ok := st.Transfer.Load(); ok {
		snap.Transfer = &TransferView{Transferred: p.Transferred, Total: p.Total}
	}
	if img, ok := st.Image.Load(); ok && !img.Empty() {
		b := img.Image.Bounds()
		snap.Image = &ImageView{Timestamp: img.Timestamp, Width: b.Dx(), Height: b.Dy()}
	}
	if s, ok := st.Session.Load(); ok {
		snap.Session = sessionView(s)
	}
	if c, ok := st.Capture.Load(); ok {
		snap.Capture = &CaptureView{ID: c.ID, Timestamp: c.Timestamp, State: c.State.String()}
	}
	if b, ok := st.Button.Load(); ok {
		snap.Button = &ButtonView{Button: b.Button, Count: b.Count}
	}
	return snap
}

func sessionView(s domain.RawDataSession) *SessionView {
	v := &SessionView{
		ID:          s.ID,
		State:       s.State.String(),
		Start:       s.Range.Start,
		End:         s.Range.End,
		Compress:    s.Compress,
		Found:       s.Found,
		Size:        s.Size,
		Destination: s.Destination,
		Location:    s.Location,
		Reason:      s.Reason,
		StartedAt:   s.StartedAt,
	}
	if !s.FinishedAt.IsZero() {
		finished := s.FinishedAt
		v.FinishedAt = &finished
	}
	return v
}
