//go:build gocv

package decode

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/bft-labs/probecast/internal/ports"
)

// OpenCV decodes images with OpenCV through gocv. It handles every format
// the linked OpenCV build supports.
type OpenCV struct{}

var _ ports.ImageDecoder = OpenCV{}

// Decode decodes data into an RGBA image.
func (OpenCV) Decode(data []byte) (image.Image, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decode image: empty result")
	}
	return mat.ToImage()
}

// Default returns the decoder used when none is configured.
func Default() ports.ImageDecoder {
	return OpenCV{}
}
