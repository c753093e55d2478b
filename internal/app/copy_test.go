package app

import (
	"bytes"
	"errors"
	"testing"
)

type failingWriter struct {
	failAfter int
	writes    int
	buf       bytes.Buffer
}

var errDiskFull = errors.New("disk full")

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.writes >= w.failAfter {
		return 0, errDiskFull
	}
	w.writes++
	return w.buf.Write(p)
}

func TestCopyBufferSize_Progress(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		chunkSize int
		wantCalls int
	}{
		{"empty", 0, 4, 0},
		{"smaller than chunk", 3, 4, 1},
		{"exact multiple", 16, 4, 4},
		{"partial last chunk", 1000, 64, 16},
		{"default chunk", 10000, CopyChunkSize, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := bytes.Repeat([]byte{0xab}, tt.size)
			var dst bytes.Buffer
			var readings [][2]int64

			n, err := CopyBufferSize(src, &dst, tt.chunkSize, func(copied, total int64) {
				readings = append(readings, [2]int64{copied, total})
			})
			if err != nil {
				t.Fatalf("CopyBufferSize() error = %v", err)
			}
			if n != int64(tt.size) {
				t.Errorf("copied %d bytes, want %d", n, tt.size)
			}
			if !bytes.Equal(dst.Bytes(), src) {
				t.Error("destination does not match source")
			}
			if len(readings) != tt.wantCalls {
				t.Fatalf("got %d progress calls, want %d", len(readings), tt.wantCalls)
			}

			var last int64
			for i, r := range readings {
				if r[0] < last {
					t.Errorf("progress %d went backwards: %d < %d", i, r[0], last)
				}
				if r[1] != int64(tt.size) {
					t.Errorf("progress %d total = %d, want %d", i, r[1], tt.size)
				}
				last = r[0]
			}
			if tt.wantCalls > 0 && last != int64(tt.size) {
				t.Errorf("last progress = %d, want %d", last, tt.size)
			}
		})
	}
}

func TestCopyBuffer_NilProgress(t *testing.T) {
	src := make([]byte, 3*CopyChunkSize+1)
	var dst bytes.Buffer

	n, err := CopyBuffer(src, &dst, nil)
	if err != nil {
		t.Fatalf("CopyBuffer() error = %v", err)
	}
	if n != int64(len(src)) {
		t.Errorf("copied %d bytes, want %d", n, len(src))
	}
}

func TestCopyBuffer_SinkFailure(t *testing.T) {
	src := make([]byte, 3*CopyChunkSize)
	w := &failingWriter{failAfter: 1}
	calls := 0

	n, err := CopyBuffer(src, w, func(copied, total int64) { calls++ })
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("CopyBuffer() error = %v, want %v", err, errDiskFull)
	}
	if n != CopyChunkSize {
		t.Errorf("copied %d bytes before failure, want %d", n, CopyChunkSize)
	}
	if calls != 1 {
		t.Errorf("got %d progress calls, want 1", calls)
	}
	// Not transactional: the first chunk stays written.
	if w.buf.Len() != CopyChunkSize {
		t.Errorf("sink holds %d bytes, want %d", w.buf.Len(), CopyChunkSize)
	}
}

func TestCopyBufferSize_InvalidChunk(t *testing.T) {
	if _, err := CopyBufferSize([]byte{1}, &bytes.Buffer{}, 0, nil); err == nil {
		t.Error("CopyBufferSize() with zero chunk size should fail")
	}
}
