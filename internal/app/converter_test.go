package app

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/probecast/internal/domain"
)

// fakeDecoder returns a 1x1 image, or err. block delays the first decode until released.
type fakeDecoder struct {
	mu     sync.Mutex
	err    error
	panics bool
	nilImg bool
	block  chan struct{}
	seen   [][]byte
}

func (d *fakeDecoder) Decode(data []byte) (image.Image, error) {
	d.mu.Lock()
	d.seen = append(d.seen, append([]byte(nil), data...))
	block := d.block
	d.block = nil
	d.mu.Unlock()

	if block != nil {
		<-block
	}
	if d.panics {
		panic("corrupt stream")
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.nilImg {
		return nil, nil
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (d *fakeDecoder) Seen() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte{}, d.seen...)
}

func rgbaBuffer(w, h int, ts int64) domain.ImageBuffer {
	data := make([]byte, w*h*domain.BytesPerPixel)
	for i := range data {
		data[i] = byte(i)
	}
	return domain.ImageBuffer{
		Data:      data,
		Size:      len(data),
		Format:    domain.FormatUncompressed,
		Width:     w,
		Height:    h,
		Timestamp: ts,
	}
}

func TestConvert_Uncompressed(t *testing.T) {
	withTrailing := func(w, h, extra int) domain.ImageBuffer {
		buf := rgbaBuffer(w, h, 77)
		for i := 0; i < extra; i++ {
			buf.Data = append(buf.Data, 0xFF)
		}
		buf.Size = len(buf.Data)
		return buf
	}
	withOffset := func(w, h, offset int) domain.ImageBuffer {
		buf := rgbaBuffer(w, h, 77)
		buf.Data = append(make([]byte, offset), buf.Data...)
		buf.Offset = offset
		return buf
	}

	tests := []struct {
		name string
		buf  domain.ImageBuffer
		w, h int
	}{
		{"1x1", rgbaBuffer(1, 1, 77), 1, 1},
		{"3x2", rgbaBuffer(3, 2, 77), 3, 2},
		{"1x7", rgbaBuffer(1, 7, 77), 1, 7},
		{"16x9", rgbaBuffer(16, 9, 77), 16, 9},
		{"trailing bytes", withTrailing(3, 2, 5), 3, 2},
		{"offset payload", withOffset(2, 3, 4), 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(nil, tt.buf)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if got.Timestamp != 77 {
				t.Errorf("Timestamp = %d, want 77", got.Timestamp)
			}
			b := got.Image.Bounds()
			if b.Dx() != tt.w || b.Dy() != tt.h {
				t.Fatalf("bounds = %v, want %dx%d", b, tt.w, tt.h)
			}
			rgba, ok := got.Image.(*image.RGBA)
			if !ok {
				t.Fatalf("image type = %T, want *image.RGBA", got.Image)
			}
			if want := tt.w * tt.h * domain.BytesPerPixel; len(rgba.Pix) != want {
				t.Fatalf("len(Pix) = %d, want %d", len(rgba.Pix), want)
			}
			for i, v := range rgba.Pix {
				if v != byte(i) {
					t.Fatalf("Pix[%d] = %d, want %d", i, v, byte(i))
				}
			}
		})
	}
}

func TestConvert_CompressedUsesPayloadRegion(t *testing.T) {
	dec := &fakeDecoder{}
	buf := domain.ImageBuffer{
		Data:   []byte{0, 0, 'j', 'p', 'g', 9},
		Offset: 2,
		Size:   3,
		Format: domain.FormatCompressed,
	}

	if _, err := Convert(dec, buf); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	seen := dec.Seen()
	if len(seen) != 1 || string(seen[0]) != "jpg" {
		t.Errorf("decoder saw %q, want [jpg]", seen)
	}
}

func TestConvert_Failures(t *testing.T) {
	tests := []struct {
		name    string
		decoder *fakeDecoder
		buf     domain.ImageBuffer
	}{
		{
			name: "size past end of data",
			buf:  domain.ImageBuffer{Data: make([]byte, 10), Offset: 4, Size: 8, Format: domain.FormatCompressed},
		},
		{
			name: "pixels do not fit",
			buf:  domain.ImageBuffer{Data: make([]byte, 15), Format: domain.FormatUncompressed, Width: 2, Height: 2},
		},
		{
			name: "zero dimensions",
			buf:  domain.ImageBuffer{Data: make([]byte, 16), Format: domain.FormatUncompressed},
		},
		{
			name: "empty payload",
			buf:  domain.ImageBuffer{Format: domain.FormatCompressed},
		},
		{
			name:    "decoder error",
			decoder: &fakeDecoder{err: errors.New("not a jpeg")},
			buf:     domain.ImageBuffer{Data: []byte{1}, Format: domain.FormatCompressed},
		},
		{
			name:    "decoder returns nothing",
			decoder: &fakeDecoder{nilImg: true},
			buf:     domain.ImageBuffer{Data: []byte{1}, Format: domain.FormatCompressed},
		},
		{
			name:    "decoder panics",
			decoder: &fakeDecoder{panics: true},
			buf:     domain.ImageBuffer{Data: []byte{1}, Format: domain.FormatCompressed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := tt.decoder
			if dec == nil {
				dec = &fakeDecoder{}
			}
			got, err := Convert(dec, tt.buf)

			var convErr *domain.ConversionError
			if !errors.As(err, &convErr) {
				t.Fatalf("Convert() error = %v, want *ConversionError", err)
			}
			if convErr.Reason != "bad image data" {
				t.Errorf("Reason = %q, want bad image data", convErr.Reason)
			}
			if !got.Empty() {
				t.Error("failed conversion should not produce an image")
			}
		})
	}
}

func TestConverter_FIFO(t *testing.T) {
	release := make(chan struct{})
	dec := &fakeDecoder{block: release}
	c := NewConverter(dec, 0, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	var mu sync.Mutex
	var order []int64
	done := make(chan struct{}, 3)
	record := func(img domain.DecodedImage, err error) {
		if err != nil {
			t.Errorf("conversion error = %v", err)
		}
		mu.Lock()
		order = append(order, img.Timestamp)
		mu.Unlock()
		done <- struct{}{}
	}

	// The first decode blocks; the later ones must still wait their turn.
	for ts := int64(1); ts <= 3; ts++ {
		buf := domain.ImageBuffer{Data: []byte{byte(ts)}, Format: domain.FormatCompressed, Timestamp: ts}
		if err := c.Submit(buf, record); err != nil {
			t.Fatalf("Submit(%d) error = %v", ts, err)
		}
	}
	time.Sleep(10 * time.Millisecond)
	close(release)

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for conversions")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, ts := range order {
		if ts != int64(i+1) {
			t.Fatalf("completion order = %v, want [1 2 3]", order)
		}
	}
}

func TestConverter_SubmitNeverBlocks(t *testing.T) {
	c := NewConverter(&fakeDecoder{}, 2, nopLogger{})

	buf := rgbaBuffer(1, 1, 0)
	for i := 0; i < 2; i++ {
		if err := c.Submit(buf, nil); err != nil {
			t.Fatalf("Submit(%d) error = %v", i, err)
		}
	}
	if err := c.Submit(buf, nil); !errors.Is(err, domain.ErrQueueFull) {
		t.Errorf("Submit() on full queue = %v, want ErrQueueFull", err)
	}
	if c.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", c.Pending())
	}
}

func TestConverter_StopsOnCancel(t *testing.T) {
	c := NewConverter(&fakeDecoder{}, 1, nopLogger{})
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
