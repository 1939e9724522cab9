// Package filter implements the primitive image operations shared by every style:
// smoothing, edge extraction, thresholding, color quantization, color-space gains,
// sharpening, compositing and the finishing effects (glow, halftone, vignette).
//
// Primitives never modify their inputs; each returns a freshly allocated buffer.
package filter

import (
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/stylizer/internal/raster"
	"github.com/disintegration/gift"
)

var (
	// ErrShapeMismatch is returned when two buffers combined pixel-wise differ in size.
	ErrShapeMismatch = errors.New("buffer dimensions differ")
	// ErrChannelMismatch is returned when a buffer has the wrong channel count or color space.
	ErrChannelMismatch = errors.New("buffer channel layout differs")
	// ErrInvalidParams is returned for out-of-range primitive parameters.
	ErrInvalidParams = errors.New("invalid filter parameters")
)

func checkImage(img *raster.Image) error {
	if img.Empty() {
		return fmt.Errorf("%w: empty buffer", ErrShapeMismatch)
	}
	if len(img.Pix) != img.Width*img.Height*img.Channels {
		return fmt.Errorf("%w: pixel slice holds %d bytes, want %d", ErrShapeMismatch, len(img.Pix), img.Width*img.Height*img.Channels)
	}
	return nil
}

func requireSpace(img *raster.Image, space raster.ColorSpace) error {
	if err := checkImage(img); err != nil {
		return err
	}
	if img.Space != space || img.Channels != space.Channels() {
		return fmt.Errorf("%w: expected %s buffer, got %s with %d channels", ErrChannelMismatch, space, img.Space, img.Channels)
	}
	return nil
}

func requireEightBit(img *raster.Image) error {
	if err := checkImage(img); err != nil {
		return err
	}
	if img.Space != raster.RGB && img.Space != raster.Gray {
		return fmt.Errorf("%w: expected rgb or gray buffer, got %s", ErrChannelMismatch, img.Space)
	}
	return nil
}

// checkPair validates that two buffers can be combined pixel by pixel.
func checkPair(a, b *raster.Image) error {
	if err := checkImage(a); err != nil {
		return err
	}
	if err := checkImage(b); err != nil {
		return err
	}
	if !raster.SameSize(a, b) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch, a.Width, a.Height, b.Width, b.Height)
	}
	if a.Channels != b.Channels || a.Space != b.Space {
		return fmt.Errorf("%w: %s/%d vs %s/%d", ErrChannelMismatch, a.Space, a.Channels, b.Space, b.Channels)
	}
	return nil
}

// applyGift runs a gift filter chain over an RGB or gray buffer.
func applyGift(img *raster.Image, filters ...gift.Filter) (*raster.Image, error) {
	if err := requireEightBit(img); err != nil {
		return nil, err
	}
	g := gift.New(filters...)

	if img.Space == raster.Gray {
		src, err := img.ToGray()
		if err != nil {
			return nil, err
		}
		dst := image.NewGray(g.Bounds(src.Bounds()))
		g.Draw(dst, src)
		return raster.FromGray(dst), nil
	}

	src, err := img.ToNRGBA()
	if err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return raster.FromNRGBA(dst), nil
}
