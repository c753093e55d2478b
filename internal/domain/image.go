package domain

import (
	"fmt"
	"image"
)

// BytesPerPixel is the pixel size of uncompressed images (8 bits per channel, RGBA order).
const BytesPerPixel = 4

// Format tells how the pixels of an ImageBuffer are encoded.
type Format int

const (
	// FormatUncompressed is a raw width x height grid of RGBA pixels.
	FormatUncompressed Format = iota
	// FormatCompressed is an encoded still image (JPEG, PNG) handed to a decoder.
	FormatCompressed
)

// String returns a human-readable representation of the format.
func (f Format) String() string {
	switch f {
	case FormatUncompressed:
		return "uncompressed"
	case FormatCompressed:
		return "compressed"
	default:
		return "unknown"
	}
}

// ImageBuffer is a processed image as delivered by the device.
type ImageBuffer struct {
	// Data holds the payload. The usable bytes are Data[Offset:Offset+Size].
	Data []byte

	// Offset is where the image starts inside Data.
	Offset int

	// Size is the declared payload size. Zero means "everything after Offset".
	Size int

	Format Format
	Width  int
	Height int

	// Timestamp is the capture time reported by the device, in nanoseconds.
	Timestamp int64
}

// Payload returns the usable bytes of the buffer.
// It fails instead of reading past the end of Data.
func (b ImageBuffer) Payload() ([]byte, error) {
	if b.Offset < 0 || b.Size < 0 {
		return nil, fmt.Errorf("negative offset %d or size %d", b.Offset, b.Size)
	}
	if b.Offset > len(b.Data) {
		return nil, fmt.Errorf("offset %d past buffer of %d bytes", b.Offset, len(b.Data))
	}
	if b.Size == 0 {
		return b.Data[b.Offset:], nil
	}
	if b.Size > len(b.Data)-b.Offset {
		return nil, fmt.Errorf("declared size %d exceeds buffer of %d bytes", b.Size, len(b.Data)-b.Offset)
	}
	return b.Data[b.Offset : b.Offset+b.Size], nil
}

// Validate checks the buffer invariants for its format.
func (b ImageBuffer) Validate() error {
	payload, err := b.Payload()
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return fmt.Errorf("empty payload")
	}
	if b.Format == FormatUncompressed {
		if b.Width <= 0 || b.Height <= 0 {
			return fmt.Errorf("invalid dimensions %dx%d", b.Width, b.Height)
		}
		if need := b.Width * b.Height * BytesPerPixel; need > len(payload) {
			return fmt.Errorf("%dx%d pixels need %d bytes, payload has %d", b.Width, b.Height, need, len(payload))
		}
	}
	return nil
}

// Clone returns a copy of the buffer that owns its bytes.
// Only the usable region is copied when it can be resolved.
func (b ImageBuffer) Clone() ImageBuffer {
	c := b
	if payload, err := b.Payload(); err == nil {
		c.Data = append([]byte(nil), payload...)
		c.Offset = 0
		c.Size = len(c.Data)
		return c
	}
	c.Data = append([]byte(nil), b.Data...)
	return c
}

// DecodedImage is a display-ready image and the timestamp of the frame it came from.
// Image and timestamp are always published together.
type DecodedImage struct {
	Image     image.Image
	Timestamp int64
}

// Empty returns true if no image was decoded.
func (d DecodedImage) Empty() bool {
	return d.Image == nil
}
