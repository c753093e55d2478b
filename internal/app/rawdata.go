package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/probecast/internal/domain"
	"github.com/bft-labs/probecast/internal/ports"
)

// exportNameLayout names exports that were started without a destination.
const exportNameLayout = "20060102_150405"

// ExportRequest describes a raw data export.
type ExportRequest struct {
	Range    domain.Range
	Compress bool

	// Destination is the sink name. Empty selects raw_<yyyyMMdd_HHmmss>.tar.
	Destination string
}

// DefaultExportName returns the sink name used for an export started at t.
func DefaultExportName(t time.Time) string {
	return "raw_" + t.Format(exportNameLayout) + ".tar"
}

// ExportEventEmitter is called when an export reaches a terminal state.
type ExportEventEmitter interface {
	OnExportComplete(session domain.RawDataSession)
	OnExportFailed(session domain.RawDataSession, err error)
}

// Inputs driving stepRawData.
type (
	rawInput interface{ rawInput() }

	requestResult struct{ count int }
	readResult    struct {
		count   int
		payload []byte
	}
	deviceProgress struct{ percent int }
	persistResult  struct {
		location string
		err      error
	}
	shutdown struct{}
)

func (requestResult) rawInput()  {}
func (readResult) rawInput()     {}
func (deviceProgress) rawInput() {}
func (persistResult) rawInput()  {}
func (shutdown) rawInput()       {}

// Effects produced by stepRawData, executed by RawDataMachine.
type (
	rawEffect interface{ rawEffect() }

	issueRequest struct {
		rng      domain.Range
		compress bool
	}
	issueRead      struct{}
	persistPayload struct {
		name    string
		payload []byte
	}
	publishSession struct{ session domain.RawDataSession }
	publishPercent struct{ percent int }
	recordExport   struct{ session domain.RawDataSession }
	reportFailure  struct {
		session domain.RawDataSession
		err     error
	}
)

func (issueRequest) rawEffect()   {}
func (issueRead) rawEffect()      {}
func (persistPayload) rawEffect() {}
func (publishSession) rawEffect() {}
func (publishPercent) rawEffect() {}
func (reportFailure) rawEffect()  {}
func (recordExport) rawEffect()   {}

var errUnexpectedInput = errors.New("input not expected in this state")

// startRawData opens a new session, or rejects the request while one is active.
func startRawData(s domain.RawDataSession, req ExportRequest, id string, now time.Time) (domain.RawDataSession, []rawEffect, error) {
	if s.State.Active() {
		return s, nil, &domain.UsageError{Op: "start export", Err: domain.ErrExportInProgress}
	}

	dest := req.Destination
	if dest == "" {
		dest = DefaultExportName(now)
	}
	next := domain.RawDataSession{
		ID:          id,
		Range:       req.Range,
		Compress:    req.Compress,
		State:       domain.RawDataRequested,
		Destination: dest,
		StartedAt:   now,
	}
	return next, []rawEffect{
		publishPercent{percent: 0},
		publishSession{session: next},
		issueRequest{rng: req.Range, compress: req.Compress},
	}, nil
}

// stepRawData advances s by one input. It returns errUnexpectedInput, and s
// unchanged, for inputs the current state does not wait for.
func stepRawData(s domain.RawDataSession, in rawInput, now time.Time) (domain.RawDataSession, []rawEffect, error) {
	switch in := in.(type) {
	case deviceProgress:
		if !s.State.Active() {
			return s, nil, errUnexpectedInput
		}
		return s, []rawEffect{publishPercent{percent: clampPercent(in.percent)}}, nil

	case requestResult:
		if s.State != domain.RawDataRequested {
			return s, nil, errUnexpectedInput
		}
		if in.count <= 0 {
			s.State = domain.RawDataNotFound
			s.Reason = domain.ErrRawDataUnavailable.Error()
			s.FinishedAt = now
			return s, []rawEffect{publishSession{session: s}}, nil
		}
		s.State = domain.RawDataFound
		s.Found = in.count
		found := s
		s.State = domain.RawDataReading
		return s, []rawEffect{
			publishSession{session: found},
			publishSession{session: s},
			issueRead{},
		}, nil

	case readResult:
		if s.State != domain.RawDataReading {
			return s, nil, errUnexpectedInput
		}
		if in.count <= 0 || len(in.payload) == 0 {
			s.State = domain.RawDataFailed
			s.Reason = domain.ErrRawDataRead.Error()
			s.FinishedAt = now
			return s, []rawEffect{
				publishSession{session: s},
				reportFailure{session: s, err: &domain.ProtocolError{Step: "read", Err: domain.ErrRawDataRead}},
			}, nil
		}
		s.State = domain.RawDataPersisting
		s.Size = len(in.payload)
		return s, []rawEffect{
			publishSession{session: s},
			persistPayload{name: s.Destination, payload: in.payload},
		}, nil

	case persistResult:
		if s.State != domain.RawDataPersisting {
			return s, nil, errUnexpectedInput
		}
		s.FinishedAt = now
		if in.err != nil {
			s.State = domain.RawDataFailed
			s.Reason = in.err.Error()
			return s, []rawEffect{
				publishSession{session: s},
				reportFailure{session: s, err: in.err},
			}, nil
		}
		s.State = domain.RawDataComplete
		s.Location = in.location
		return s, []rawEffect{
			publishPercent{percent: 100},
			publishSession{session: s},
			recordExport{session: s},
		}, nil

	case shutdown:
		if !s.State.Active() {
			return s, nil, errUnexpectedInput
		}
		s.State = domain.RawDataFailed
		s.Reason = domain.ErrAbandoned.Error()
		s.FinishedAt = now
		return s, []rawEffect{
			publishSession{session: s},
			reportFailure{session: s, err: domain.ErrAbandoned},
		}, nil
	}
	return s, nil, errUnexpectedInput
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// RawDataMachine runs at most one raw data export at a time.
// Start is called by the user; Handle is called by the dispatcher goroutine,
// which therefore also runs the persist step.
type RawDataMachine struct {
	mu      sync.Mutex
	session domain.RawDataSession

	device   ports.Device
	sinks    ports.SinkFactory
	catalog  ports.ExportCatalog
	store    *Store
	listener *ListenerAdapter
	logger   ports.Logger
	emitter  ExportEventEmitter

	now   func() time.Time
	newID func() string
}

// RawDataConfig wires a RawDataMachine. Catalog and Emitter may be nil.
type RawDataConfig struct {
	Device   ports.Device
	Sinks    ports.SinkFactory
	Catalog  ports.ExportCatalog
	Store    *Store
	Listener *ListenerAdapter
	Logger   ports.Logger
	Emitter  ExportEventEmitter
}

// NewRawDataMachine creates an idle machine.
func NewRawDataMachine(cfg RawDataConfig) *RawDataMachine {
	return &RawDataMachine{
		device:   cfg.Device,
		sinks:    cfg.Sinks,
		catalog:  cfg.Catalog,
		store:    cfg.Store,
		listener: cfg.Listener,
		logger:   cfg.Logger,
		emitter:  cfg.Emitter,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Session returns a snapshot of the current (or last) session.
func (m *RawDataMachine) Session() domain.RawDataSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Active returns true while an export is in flight.
func (m *RawDataMachine) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.State.Active()
}

// Start begins an export. Device answers are delivered while ctx is alive.
// Returns a *domain.UsageError, and changes nothing, if an export is active.
func (m *RawDataMachine) Start(ctx context.Context, req ExportRequest) (domain.RawDataSession, error) {
	m.mu.Lock()
	next, effects, err := startRawData(m.session, req, m.newID(), m.now())
	if err != nil {
		m.mu.Unlock()
		return next, err
	}
	m.session = next
	m.mu.Unlock()

	m.logger.Info("raw data export started",
		ports.String("session", next.ID),
		ports.Int64("start", req.Range.Start),
		ports.Int64("end", req.Range.End),
		ports.Bool("compress", req.Compress),
	)
	m.run(ctx, effects)
	return next, nil
}

// Abandon fails an active export because its device answers will never be
// delivered. It does nothing when no export is active.
func (m *RawDataMachine) Abandon() {
	m.mu.Lock()
	next, effects, err := stepRawData(m.session, shutdown{}, m.now())
	if err != nil {
		m.mu.Unlock()
		return
	}
	m.session = next
	m.mu.Unlock()

	m.run(context.Background(), effects)
}

// Handle feeds a device event to the machine. Events the current state does
// not wait for are dropped.
func (m *RawDataMachine) Handle(ctx context.Context, ev domain.Event) {
	var in rawInput
	switch ev := ev.(type) {
	case domain.RawDataRequestEvent:
		in = requestResult{count: ev.Count}
	case domain.RawDataReadEvent:
		in = readResult{count: ev.Count, payload: ev.Payload}
	case domain.RawDataProgressEvent:
		in = deviceProgress{percent: ev.Percent}
	default:
		return
	}
	m.feed(ctx, in)
}

func (m *RawDataMachine) feed(ctx context.Context, in rawInput) {
	m.mu.Lock()
	next, effects, err := stepRawData(m.session, in, m.now())
	if err != nil {
		state := m.session.State
		m.mu.Unlock()
		m.logger.Debug("dropping raw data notification",
			ports.String("input", fmt.Sprintf("%T", in)),
			ports.String("state", state.String()),
		)
		return
	}
	m.session = next
	m.mu.Unlock()

	m.run(ctx, effects)
}

func (m *RawDataMachine) run(ctx context.Context, effects []rawEffect) {
	for _, eff := range effects {
		switch eff := eff.(type) {
		case issueRequest:
			m.device.RequestRawData(eff.rng.Start, eff.rng.End, eff.compress, m.listener.onRequestDone(ctx))
		case issueRead:
			m.device.ReadRawData(m.listener.onReadDone(ctx))
		case persistPayload:
			location, err := m.persist(ctx, eff.name, eff.payload)
			m.feed(ctx, persistResult{location: location, err: err})
		case publishSession:
			m.store.Session.Publish(eff.session)
			m.logSession(eff.session)
		case publishPercent:
			m.store.Progress.Publish(eff.percent)
		case reportFailure:
			m.store.PublishError(eff.err)
			if m.emitter != nil {
				m.emitter.OnExportFailed(eff.session, eff.err)
			}
		case recordExport:
			m.record(ctx, eff.session)
			if m.emitter != nil {
				m.emitter.OnExportComplete(eff.session)
			}
		}
	}
}

// persist writes payload to a new sink, publishing byte progress per chunk.
func (m *RawDataMachine) persist(ctx context.Context, name string, payload []byte) (string, error) {
	total := int64(len(payload))
	m.store.Transfer.Publish(domain.Progress{Total: total})

	sink, err := m.sinks.Create(ctx, name)
	if err != nil {
		return "", &domain.PersistenceError{Op: "create", Err: err}
	}

	_, err = CopyBuffer(payload, sink, func(copied, total int64) {
		p := domain.Progress{Transferred: copied, Total: total}
		m.store.Transfer.Publish(p)
		m.store.Progress.Publish(p.Percent())
	})
	if err != nil {
		if abortErr := sink.Abort(); abortErr != nil {
			m.logger.Warn("failed to abort sink", ports.String("name", name), ports.Err(abortErr))
		}
		return "", &domain.PersistenceError{Op: "write", Err: err}
	}

	location, err := sink.Commit()
	if err != nil {
		if abortErr := sink.Abort(); abortErr != nil {
			m.logger.Warn("failed to abort sink", ports.String("name", name), ports.Err(abortErr))
		}
		return "", &domain.PersistenceError{Op: "commit", Err: err}
	}
	return location, nil
}

func (m *RawDataMachine) record(ctx context.Context, s domain.RawDataSession) {
	if m.catalog == nil {
		return
	}
	if err := m.catalog.Record(ctx, ports.RecordFromSession(s)); err != nil {
		m.logger.Error("failed to record export", ports.String("session", s.ID), ports.Err(err))
	}
}

func (m *RawDataMachine) logSession(s domain.RawDataSession) {
	fields := []ports.Field{
		ports.String("session", s.ID),
		ports.String("state", s.State.String()),
	}
	switch s.State {
	case domain.RawDataFound:
		m.logger.Info("found raw data", append(fields, ports.Int("frames", s.Found))...)
	case domain.RawDataPersisting:
		m.logger.Info("saving raw data", append(fields, ports.Int("bytes", s.Size))...)
	case domain.RawDataComplete:
		m.logger.Info("saved raw data", append(fields, ports.String("location", s.Location))...)
	case domain.RawDataNotFound:
		m.logger.Warn("raw data not found", append(fields, ports.String("reason", s.Reason))...)
	case domain.RawDataFailed:
		m.logger.Error("raw data export failed", append(fields, ports.String("reason", s.Reason))...)
	default:
		m.logger.Debug("raw data session", fields...)
	}
}
