package app

import (
	"context"
	"fmt"
	"image"

	"github.com/bft-labs/probecast/internal/domain"
	"github.com/bft-labs/probecast/internal/ports"
)

// DefaultQueueSize is the number of frames that may wait for conversion.
const DefaultQueueSize = 16

// ConvertFunc receives the result of one conversion.
// err is always a *domain.ConversionError when not nil.
type ConvertFunc func(img domain.DecodedImage, err error)

type conversionTask struct {
	buf  domain.ImageBuffer
	done ConvertFunc
}

// Converter decodes image buffers on a single goroutine, one at a time, in
// submission order. Submissions never block: a full queue rejects the frame.
type Converter struct {
	decoder ports.ImageDecoder
	logger  ports.Logger
	tasks   chan conversionTask
}

// NewConverter creates a converter. queueSize <= 0 selects DefaultQueueSize.
func NewConverter(decoder ports.ImageDecoder, queueSize int, logger ports.Logger) *Converter {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Converter{
		decoder: decoder,
		logger:  logger,
		tasks:   make(chan conversionTask, queueSize),
	}
}

// Submit queues buf for conversion; done is called from the converter goroutine.
// The converter takes ownership of buf.Data: the caller must not modify it afterwards.
// Returns domain.ErrQueueFull if the queue has no room.
func (c *Converter) Submit(buf domain.ImageBuffer, done ConvertFunc) error {
	select {
	case c.tasks <- conversionTask{buf: buf, done: done}:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Pending returns the number of queued conversions.
func (c *Converter) Pending() int {
	return len(c.tasks)
}

// Run converts queued buffers until ctx is canceled.
// Frames still queued at cancellation are dropped.
func (c *Converter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := c.Pending(); n > 0 {
				c.logger.Debug("dropping queued conversions", ports.Int("frames", n))
			}
			return
		case task := <-c.tasks:
			img, err := Convert(c.decoder, task.buf)
			if task.done != nil {
				task.done(img, err)
			}
		}
	}
}

// Convert turns buf into a display-ready image. Compressed payloads go through
// decoder; uncompressed payloads are copied into an RGBA image of Width x Height.
// Every failure is reported as a *domain.ConversionError.
func Convert(decoder ports.ImageDecoder, buf domain.ImageBuffer) (img domain.DecodedImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			img = domain.DecodedImage{}
			err = badImage(fmt.Errorf("decoder panic: %v", r))
		}
	}()

	if err := buf.Validate(); err != nil {
		return domain.DecodedImage{}, badImage(err)
	}
	payload, _ := buf.Payload()

	var out image.Image
	switch buf.Format {
	case domain.FormatCompressed:
		if decoder == nil {
			return domain.DecodedImage{}, badImage(fmt.Errorf("no decoder for compressed images"))
		}
		out, err = decoder.Decode(payload)
		if err != nil {
			return domain.DecodedImage{}, badImage(err)
		}
	case domain.FormatUncompressed:
		rgba := image.NewRGBA(image.Rect(0, 0, buf.Width, buf.Height))
		copy(rgba.Pix, payload[:len(rgba.Pix)])
		out = rgba
	default:
		return domain.DecodedImage{}, badImage(fmt.Errorf("unknown format %d", buf.Format))
	}

	if out == nil {
		return domain.DecodedImage{}, badImage(nil)
	}
	return domain.DecodedImage{Image: out, Timestamp: buf.Timestamp}, nil
}

func badImage(cause error) error {
	if cause == nil {
		cause = domain.ErrBadImageData
	}
	return &domain.ConversionError{Reason: domain.ErrBadImageData.Error(), Err: cause}
}
