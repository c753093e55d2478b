package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/probecast/internal/ports"
)

// SinkFactory implements ports.SinkFactory with files in one directory.
type SinkFactory struct {
	dir string
}

var _ ports.SinkFactory = (*SinkFactory)(nil)

// NewSinkFactory creates a factory writing exports into dir.
func NewSinkFactory(dir string) *SinkFactory {
	return &SinkFactory{dir: dir}
}

// Dir returns the export directory.
func (f *SinkFactory) Dir() string {
	return f.dir
}

// Create opens a temp file next to the final path. Nothing appears under
// name until Commit renames it into place.
func (f *SinkFactory) Create(ctx context.Context, name string) (ports.Sink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := filepath.Base(name)
	if base != name || base == "." || base == ".." || strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("invalid export name %q", name)
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(f.dir, "."+base+".*.tmp")
	if err != nil {
		return nil, err
	}

	return &fileSink{
		file: tmp,
		path: filepath.Join(f.dir, base),
	}, nil
}

type fileSink struct {
	file *os.File
	path string
	done bool
}

func (s *fileSink) Write(p []byte) (int, error) {
	if s.done {
		return 0, os.ErrClosed
	}
	return s.file.Write(p)
}

// Commit flushes the temp file and atomically renames it to its final path.
func (s *fileSink) Commit() (string, error) {
	if s.done {
		return "", os.ErrClosed
	}
	if err := s.file.Sync(); err != nil {
		return "", err
	}
	if err := s.file.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(s.file.Name(), s.path); err != nil {
		return "", err
	}
	s.done = true

	if abs, err := filepath.Abs(s.path); err == nil {
		return abs, nil
	}
	return s.path, nil
}

// Abort removes the temp file. It is a no-op after a successful Commit.
func (s *fileSink) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	_ = s.file.Close()
	if err := os.Remove(s.file.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
