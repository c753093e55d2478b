//go:build !gocv

package decode

import "github.com/bft-labs/probecast/internal/ports"

// Default returns the decoder used when none is configured.
func Default() ports.ImageDecoder {
	return Std{}
}
