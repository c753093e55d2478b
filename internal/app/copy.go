package app

import (
	"fmt"
	"io"
)

// CopyChunkSize is the number of bytes written to the sink per step.
const CopyChunkSize = 4 * 1024

// ProgressFunc receives the bytes copied so far and the total to copy.
type ProgressFunc func(copied, total int64)

// CopyBuffer writes src to dst in CopyChunkSize chunks, calling onProgress
// (if not nil) after each chunk. Returns the number of bytes copied.
// Chunks already written are not rolled back on failure.
func CopyBuffer(src []byte, dst io.Writer, onProgress ProgressFunc) (int64, error) {
	return CopyBufferSize(src, dst, CopyChunkSize, onProgress)
}

// CopyBufferSize is CopyBuffer with an explicit chunk size.
func CopyBufferSize(src []byte, dst io.Writer, chunkSize int, onProgress ProgressFunc) (int64, error) {
	if chunkSize <= 0 {
		return 0, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	total := int64(len(src))
	var copied int64
	for copied < total {
		n := int64(chunkSize)
		if remaining := total - copied; remaining < n {
			n = remaining
		}
		written, err := dst.Write(src[copied : copied+n])
		copied += int64(written)
		if err != nil {
			return copied, err
		}
		if int64(written) != n {
			return copied, io.ErrShortWrite
		}
		if onProgress != nil {
			onProgress(copied, total)
		}
	}
	return copied, nil
}
