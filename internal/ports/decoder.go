package ports

import "image"

// ImageDecoder turns an encoded still image (JPEG, PNG, ...) into pixels.
// Decode must not retain data after it returns.
type ImageDecoder interface {
	Decode(data []byte) (image.Image, error)
}
