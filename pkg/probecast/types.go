package probecast

import (
	"github.com/bft-labs/probecast/internal/app"
	"github.com/bft-labs/probecast/internal/domain"
	"github.com/bft-labs/probecast/internal/ports"
)

// Re-export the types needed to embed the client.
type (
	// Device is the imaging device session the client drives.
	Device = ports.Device

	// Listener receives device notifications; the client registers its own.
	Listener = ports.Listener

	// InfoQuerier is optionally implemented by devices answering info queries.
	InfoQuerier = ports.InfoQuerier

	// ImageDecoder decodes compressed frames.
	ImageDecoder = ports.ImageDecoder

	// SinkFactory creates the destinations of raw data exports.
	SinkFactory = ports.SinkFactory

	// Sink is one export destination.
	Sink = ports.Sink

	// ExportCatalog records completed exports.
	ExportCatalog = ports.ExportCatalog

	// ExportRecord is one catalog entry.
	ExportRecord = ports.ExportRecord

	// Logger is the interface for structured logging.
	Logger = ports.Logger

	// LogField represents a structured log field.
	LogField = ports.Field

	// Store is the observable state.
	Store = app.Store

	// ExportRequest describes a raw data export.
	ExportRequest = app.ExportRequest

	ImageBuffer    = domain.ImageBuffer
	DecodedImage   = domain.DecodedImage
	Range          = domain.Range
	Progress       = domain.Progress
	RawDataSession = domain.RawDataSession
	RawDataState   = domain.RawDataState
	CaptureSession = domain.CaptureSession
	CaptureState   = domain.CaptureState
	ButtonPress    = domain.ButtonPress
)

const (
	FormatUncompressed = domain.FormatUncompressed
	FormatCompressed   = domain.FormatCompressed
)

// Raw data session states.
const (
	RawDataIdle       = domain.RawDataIdle
	RawDataRequested  = domain.RawDataRequested
	RawDataFound      = domain.RawDataFound
	RawDataNotFound   = domain.RawDataNotFound
	RawDataReading    = domain.RawDataReading
	RawDataPersisting = domain.RawDataPersisting
	RawDataComplete   = domain.RawDataComplete
	RawDataFailed     = domain.RawDataFailed
)

// Capture session states.
const (
	CaptureIdle      = domain.CaptureIdle
	CaptureStarting  = domain.CaptureStarting
	CaptureFinishing = domain.CaptureFinishing
	CaptureDone      = domain.CaptureDone
	CaptureRejected  = domain.CaptureRejected
	CaptureFailed    = domain.CaptureFailed
)

// Errors returned by the client; check with errors.Is.
var (
	ErrAlreadyRunning     = domain.ErrAlreadyRunning
	ErrNotRunning         = domain.ErrNotRunning
	ErrShutdownTimeout    = domain.ErrShutdownTimeout
	ErrInvalidConfig      = domain.ErrInvalidConfig
	ErrBadImageData       = domain.ErrBadImageData
	ErrRawDataUnavailable = domain.ErrRawDataUnavailable
	ErrRawDataRead        = domain.ErrRawDataRead
	ErrExportInProgress   = domain.ErrExportInProgress
	ErrCaptureInProgress  = domain.ErrCaptureInProgress
	ErrNoFrame            = domain.ErrNoFrame
	ErrAbandoned          = domain.ErrAbandoned
)

// DefaultExportName is the sink name used when an export has no destination.
var DefaultExportName = app.DefaultExportName
