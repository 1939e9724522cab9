package filter

import (
	"fmt"

	"github.com/MeKo-Tech/stylizer/internal/raster"
)

// And combines a color buffer with a mask by bitwise AND. The mask may be a
// gray buffer (applied to every channel) or a buffer of the same shape.
func And(img, mask *raster.Image) (*raster.Image, error) {
	if err := requireEightBit(img); err != nil {
		return nil, err
	}
	if err := requireEightBit(mask); err != nil {
		return nil, err
	}
	if !raster.SameSize(img, mask) {
		return nil, fmt.Errorf("%w: %dx%d vs mask %dx%d", ErrShapeMismatch, img.Width, img.Height, mask.Width, mask.Height)
	}

	dst := img.Clone()
	switch {
	case mask.Channels == img.Channels:
		for i := range dst.Pix {
			dst.Pix[i] &= mask.Pix[i]
		}
	case mask.Channels == 1:
		ch := img.Channels
		for i, m := range mask.Pix {
			for c := 0; c < ch; c++ {
				dst.Pix[i*ch+c] &= m
			}
		}
	default:
		return nil, fmt.Errorf("%w: mask has %d channels, image %d", ErrChannelMismatch, mask.Channels, img.Channels)
	}
	return dst, nil
}

// AddWeighted computes round(a*alpha + b*beta + gamma) per channel, saturated to [0,255].
func AddWeighted(a *raster.Image, alpha float64, b *raster.Image, beta, gamma float64) (*raster.Image, error) {
	if err := checkPair(a, b); err != nil {
		return nil, err
	}
	dst := raster.New(a.Width, a.Height, a.Space)
	for i := range dst.Pix {
		dst.Pix[i] = raster.ClampF(float64(a.Pix[i])*alpha + float64(b.Pix[i])*beta + gamma)
	}
	return dst, nil
}

// Divide computes round(a*scale/b) per channel, saturated to [0,255].
// Where b is zero the result is zero.
func Divide(a, b *raster.Image, scale float64) (*raster.Image, error) {
	if err := checkPair(a, b); err != nil {
		return nil, err
	}
	dst := raster.New(a.Width, a.Height, a.Space)
	for i := range dst.Pix {
		if b.Pix[i] == 0 {
			continue
		}
		dst.Pix[i] = raster.ClampF(float64(a.Pix[i]) * scale / float64(b.Pix[i]))
	}
	return dst, nil
}

// Dodge produces the pencil-sketch "color dodge" of a gray buffer: the
// buffer divided by the inverse of its own blurred inverse, scaled by 256.
func Dodge(gray *raster.Image, sigma float64) (*raster.Image, error) {
	if err := requireSpace(gray, raster.Gray); err != nil {
		return nil, err
	}
	inv, err := Invert(gray)
	if err != nil {
		return nil, err
	}
	blurred, err := GaussianBlur(inv, sigma)
	if err != nil {
		return nil, err
	}
	back, err := Invert(blurred)
	if err != nil {
		return nil, err
	}
	return Divide(gray, back, 256)
}
