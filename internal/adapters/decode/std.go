// Package decode provides ports.ImageDecoder implementations.
package decode

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/bft-labs/probecast/internal/ports"
)

// Std decodes JPEG, PNG and GIF with the image package.
type Std struct{}

var _ ports.ImageDecoder = Std{}

// Decode decodes data, sniffing the format from its header.
func (Std) Decode(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode %s: empty image", format)
	}
	return img, nil
}
