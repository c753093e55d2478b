package app

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/probecast/internal/domain"
	"github.com/bft-labs/probecast/internal/ports"
)

// nopLogger implements ports.Logger for testing.
type nopLogger struct{}

func (nopLogger) Debug(msg string, fields ...ports.Field) {}
func (nopLogger) Info(msg string, fields ...ports.Field)  {}
func (nopLogger) Warn(msg string, fields ...ports.Field)  {}
func (nopLogger) Error(msg string, fields ...ports.Field) {}

// recordingLogger keeps the messages logged at warn level and above.
type recordingLogger struct {
	nopLogger
	mu       sync.Mutex
	warnings []string
}

func (l *recordingLogger) Warn(msg string, fields ...ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *recordingLogger) Error(msg string, fields ...ports.Field) {
	l.Warn(msg, fields...)
}

func (l *recordingLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.warnings...)
}

type rawRequest struct {
	start, end int64
	compress   bool
}

// fakeDevice records requests and keeps the latest completion of each kind
// so tests decide when, and with what, the device answers.
type fakeDevice struct {
	mu       sync.Mutex
	listener ports.Listener

	requests    []rawRequest
	requestDone func(int)
	reads       int
	readDone    func(int, []byte)

	captureStarts []int64
	startDone     func(int)
	finishIDs     []int
	finishDone    func(bool)
}

func (d *fakeDevice) SetListener(l ports.Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listener = l
}

func (d *fakeDevice) RequestRawData(start, end int64, compress bool, done func(int)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, rawRequest{start, end, compress})
	d.requestDone = done
}

func (d *fakeDevice) ReadRawData(done func(int, []byte)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	d.readDone = done
}

func (d *fakeDevice) StartCapture(timestamp int64, done func(int)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.captureStarts = append(d.captureStarts, timestamp)
	d.startDone = done
}

func (d *fakeDevice) FinishCapture(id int, done func(bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finishIDs = append(d.finishIDs, id)
	d.finishDone = done
}

func (d *fakeDevice) Requests() []rawRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]rawRequest{}, d.requests...)
}

func (d *fakeDevice) Reads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads
}

func (d *fakeDevice) AnswerRequest(count int) {
	d.mu.Lock()
	done := d.requestDone
	d.mu.Unlock()
	done(count)
}

func (d *fakeDevice) AnswerRead(count int, payload []byte) {
	d.mu.Lock()
	done := d.readDone
	d.mu.Unlock()
	done(count, payload)
}

func (d *fakeDevice) AnswerStart(id int) {
	d.mu.Lock()
	done := d.startDone
	d.mu.Unlock()
	done(id)
}

func (d *fakeDevice) AnswerFinish(ok bool) {
	d.mu.Lock()
	done := d.finishDone
	d.mu.Unlock()
	done(ok)
}

func (d *fakeDevice) CaptureStarts() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int64{}, d.captureStarts...)
}

func (d *fakeDevice) FinishIDs() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int{}, d.finishIDs...)
}

// queryingDevice also answers informational queries.
type queryingDevice struct {
	*fakeDevice
	qmu       sync.Mutex
	probe     int
	firmwares []string
}

func (d *queryingDevice) QueryProbeInfo() {
	d.qmu.Lock()
	defer d.qmu.Unlock()
	d.probe++
}

func (d *queryingDevice) QueryFirmwareVersion(platform string) {
	d.qmu.Lock()
	defer d.qmu.Unlock()
	d.firmwares = append(d.firmwares, platform)
}

// memSink keeps written bytes in memory.
type memSink struct {
	name      string
	buf       bytes.Buffer
	writes    int
	failAfter int
	commitErr error
	committed bool
	aborted   bool
}

func (s *memSink) Write(p []byte) (int, error) {
	if s.failAfter > 0 && s.writes >= s.failAfter {
		return 0, errors.New("disk full")
	}
	s.writes++
	return s.buf.Write(p)
}

func (s *memSink) Commit() (string, error) {
	if s.commitErr != nil {
		return "", s.commitErr
	}
	s.committed = true
	return "mem://" + s.name, nil
}

func (s *memSink) Abort() error {
	s.aborted = true
	return nil
}

type memSinks struct {
	mu        sync.Mutex
	sinks     []*memSink
	createErr error
	failAfter int
	commitErr error
}

func (f *memSinks) Create(ctx context.Context, name string) (ports.Sink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	s := &memSink{name: name, failAfter: f.failAfter, commitErr: f.commitErr}
	f.sinks = append(f.sinks, s)
	return s, nil
}

func (f *memSinks) Sinks() []*memSink {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*memSink{}, f.sinks...)
}

type memCatalog struct {
	mu      sync.Mutex
	records []ports.ExportRecord
}

func (c *memCatalog) Record(ctx context.Context, rec ports.ExportRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	return nil
}

func (c *memCatalog) List(ctx context.Context, limit int) ([]ports.ExportRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ports.ExportRecord{}, c.records...), nil
}

// nextEvent receives one event or fails the test.
func nextEvent(t *testing.T, events <-chan domain.Event) domain.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}
