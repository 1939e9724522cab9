package imageio

import (
	"errors"
	"fmt"
)

// ErrTooManyPixels is returned when an image header declares more than MaxPixels pixels.
var ErrTooManyPixels = errors.New("image exceeds pixel limit")

// DecodeError reports that a path could not be read as an image.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports that an image could not be written to a path.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode image %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
