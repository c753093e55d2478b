// Package dirsource implements ports.Device on top of two directories so the
// pipeline can run without hardware. Image files written into the watch
// directory become processed images; files in the raw directory are the
// buffered raw data, packaged as a tar archive when read.
package dirsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/probecast/internal/domain"
	"github.com/bft-labs/probecast/internal/ports"
)

// FreezeFile toggles the freeze state: creating it in the watch directory
// freezes imaging, removing it resumes.
const FreezeFile = ".freeze"

// rgbaName matches uncompressed frames named <anything>_<width>x<height>.rgba.
var rgbaName = regexp.MustCompile(`_(\d+)x(\d+)\.rgba$`)

// Config holds the device configuration.
type Config struct {
	// WatchDir is watched for new image files.
	WatchDir string

	// RawDir holds the files returned by raw data reads.
	RawDir string

	// DebounceDelay is how long a file must stay unchanged before it is read.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// ProbeInfo is reported on probe info queries.
	ProbeInfo string

	// Firmware maps platforms to the versions reported on firmware queries.
	Firmware map[string]string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
		ProbeInfo:     "dirsource simulated probe",
	}
}

// Device is a directory-backed ports.Device.
type Device struct {
	cfg    Config
	logger ports.Logger

	mu        sync.Mutex
	listener  ports.Listener
	located   []string
	compress  bool
	captureID int
	pending   map[string]*time.Timer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var (
	_ ports.Device      = (*Device)(nil)
	_ ports.InfoQuerier = (*Device)(nil)
)

// New creates a device. Call SetListener, then Start.
func New(cfg Config, logger ports.Logger) *Device {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Device{
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string]*time.Timer),
	}
}

// SetListener registers the notification receiver.
func (d *Device) SetListener(l ports.Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listener = l
}

func (d *Device) notify(fn func(l ports.Listener)) {
	d.mu.Lock()
	l := d.listener
	d.mu.Unlock()
	if l != nil {
		fn(l)
	}
}

// Start begins watching WatchDir and reports a successful connection and
// initialization, like a real device session would.
func (d *Device) Start(ctx context.Context) error {
	if d.cfg.WatchDir == "" {
		return fmt.Errorf("dirsource: watch directory not configured")
	}
	if err := os.MkdirAll(d.cfg.WatchDir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("dirsource: create watcher: %w", err)
	}
	if err := watcher.Add(d.cfg.WatchDir); err != nil {
		watcher.Close()
		return fmt.Errorf("dirsource: watch %s: %w", d.cfg.WatchDir, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	d.wg.Add(1)
	go d.watchLoop(watchCtx, watcher)

	d.logger.Info("dirsource device started",
		ports.String("watch_dir", d.cfg.WatchDir),
		ports.String("raw_dir", d.cfg.RawDir),
	)
	d.notify(func(l ports.Listener) {
		l.ConnectionResult(true)
		l.InitializationResult(true)
	})
	return nil
}

// Stop ends the watch loop and reports the disconnection.
func (d *Device) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	for name, t := range d.pending {
		t.Stop()
		delete(d.pending, name)
	}
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	d.wg.Wait()
	d.notify(func(l ports.Listener) { l.DisconnectionResult(true) })
}

func (d *Device) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer d.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			d.handleFSEvent(ctx, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.logger.Error("dirsource: watcher error", ports.Err(err))
			d.notify(func(l ports.Listener) { l.Error("watcher error: " + err.Error()) })
		}
	}
}

func (d *Device) handleFSEvent(ctx context.Context, event fsnotify.Event) {
	name := filepath.Base(event.Name)

	if name == FreezeFile {
		switch {
		case event.Op&fsnotify.Create != 0:
			d.notify(func(l ports.Listener) { l.Freeze(true) })
		case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
			d.notify(func(l ports.Listener) { l.Freeze(false) })
		}
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !isImageFile(name) {
		return
	}
	d.debounce(ctx, event.Name)
}

// debounce delays reading path until writes to it settle.
func (d *Device) debounce(ctx context.Context, path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.pending[path]; ok {
		t.Stop()
	}
	d.pending[path] = time.AfterFunc(d.cfg.DebounceDelay, func() {
		d.mu.Lock()
		delete(d.pending, path)
		d.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		d.emitImage(path)
	})
}

func (d *Device) emitImage(path string) {
	buf, err := loadImage(path)
	if err != nil {
		d.logger.Warn("dirsource: skipping image", ports.String("path", path), ports.Err(err))
		d.notify(func(l ports.Listener) { l.Error(err.Error()) })
		return
	}
	d.logger.Debug("dirsource: new image",
		ports.String("path", path),
		ports.String("format", buf.Format.String()),
		ports.Int("bytes", len(buf.Data)),
	)
	d.notify(func(l ports.Listener) { l.ProcessedImage(buf) })
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".rgba":
		return !strings.HasPrefix(name, ".")
	}
	return false
}

// loadImage reads path into a buffer. Files named *_WxH.rgba are raw RGBA
// pixels; everything else is handed to the decoder.
func loadImage(path string) (domain.ImageBuffer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.ImageBuffer{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ImageBuffer{}, err
	}

	buf := domain.ImageBuffer{
		Data:      data,
		Size:      len(data),
		Format:    domain.FormatCompressed,
		Timestamp: info.ModTime().UnixNano(),
	}

	if strings.EqualFold(filepath.Ext(path), ".rgba") {
		m := rgbaName.FindStringSubmatch(strings.ToLower(filepath.Base(path)))
		if m == nil {
			return domain.ImageBuffer{}, fmt.Errorf("%s: raw frames must be named <name>_<w>x<h>.rgba", filepath.Base(path))
		}
		buf.Width, _ = strconv.Atoi(m[1])
		buf.Height, _ = strconv.Atoi(m[2])
		buf.Format = domain.FormatUncompressed
	}
	return buf, nil
}

// RequestRawData locates the raw files modified within [start, end).
// A zero range selects every file.
func (d *Device) RequestRawData(start, end int64, compress bool, done func(count int)) {
	go func() {
		files, err := d.locate(start, end)
		if err != nil {
			d.logger.Warn("dirsource: raw data request failed", ports.Err(err))
		}

		d.mu.Lock()
		d.located = files
		d.compress = compress
		d.mu.Unlock()

		done(len(files))
	}()
}

func (d *Device) locate(start, end int64) ([]string, error) {
	if d.cfg.RawDir == "" {
		return nil, fmt.Errorf("raw directory not configured")
	}
	entries, err := os.ReadDir(d.cfg.RawDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		ts := info.ModTime().UnixNano()
		if (start != 0 && ts < start) || (end != 0 && ts >= end) {
			continue
		}
		files = append(files, filepath.Join(d.cfg.RawDir, e.Name()))
	}
	return files, nil
}

// ReadRawData packages the files located by the last request.
func (d *Device) ReadRawData(done func(count int, payload []byte)) {
	d.mu.Lock()
	files := append([]string(nil), d.located...)
	compress := d.compress
	d.mu.Unlock()

	go func() {
		if len(files) == 0 {
			done(-1, nil)
			return
		}
		payload, err := packageFiles(files, compress, func(percent int) {
			d.notify(func(l ports.Listener) { l.RawDataProgress(percent) })
		})
		if err != nil {
			d.logger.Error("dirsource: raw data read failed", ports.Err(err))
			done(-1, nil)
			return
		}
		done(len(files), payload)
	}()
}

// StartCapture acknowledges captures with increasing IDs. A non-positive
// timestamp is rejected.
func (d *Device) StartCapture(timestamp int64, done func(id int)) {
	id := 0
	if timestamp > 0 {
		d.mu.Lock()
		d.captureID++
		id = d.captureID
		d.mu.Unlock()
	}
	go done(id)
}

// FinishCapture succeeds for the most recently started capture.
func (d *Device) FinishCapture(id int, done func(ok bool)) {
	d.mu.Lock()
	ok := id > 0 && id == d.captureID
	d.mu.Unlock()
	go done(ok)
}

// QueryFirmwareVersion reports the configured version for platform.
func (d *Device) QueryFirmwareVersion(platform string) {
	version := d.cfg.Firmware[platform]
	go d.notify(func(l ports.Listener) { l.FirmwareVersion(platform, version) })
}

// QueryProbeInfo reports the configured probe info.
func (d *Device) QueryProbeInfo() {
	go d.notify(func(l ports.Listener) { l.ProbeInfo(d.cfg.ProbeInfo) })
}
