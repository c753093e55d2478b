package decode

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encoded(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestStd_Decode(t *testing.T) {
	for _, format := range []string{"png", "jpeg"} {
		t.Run(format, func(t *testing.T) {
			img, err := Std{}.Decode(encoded(t, format))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
				t.Errorf("bounds = %v, want 4x3", b)
			}
		})
	}
}

func TestStd_DecodeGarbage(t *testing.T) {
	tests := map[string][]byte{
		"empty":     nil,
		"garbage":   []byte("definitely not an image"),
		"truncated": encoded(t, "png")[:20],
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := (Std{}).Decode(data); err == nil {
				t.Error("Decode() should fail")
			}
		})
	}
}
