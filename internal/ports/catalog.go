package ports

import (
	"context"
	"time"

	"github.com/bft-labs/probecast/internal/domain"
)

// ExportRecord is a completed raw data export as stored in the catalog.
type ExportRecord struct {
	SessionID  string
	Location   string
	Frames     int
	Bytes      int64
	Compressed bool
	RangeStart int64
	RangeEnd   int64
	FinishedAt time.Time
}

// RecordFromSession builds the catalog record of a completed session.
func RecordFromSession(s domain.RawDataSession) ExportRecord {
	return ExportRecord{
		SessionID:  s.ID,
		Location:   s.Location,
		Frames:     s.Found,
		Bytes:      int64(s.Size),
		Compressed: s.Compress,
		RangeStart: s.Range.Start,
		RangeEnd:   s.Range.End,
		FinishedAt: s.FinishedAt,
	}
}

// ExportCatalog keeps the history of completed exports.
type ExportCatalog interface {
	// Record stores a completed export.
	Record(ctx context.Context, rec ExportRecord) error

	// List returns the most recent exports first, at most limit (0 means all).
	List(ctx context.Context, limit int) ([]ExportRecord, error)
}
