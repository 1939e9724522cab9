package filter

import (
	"github.com/MeKo-Tech/stylizer/internal/raster"
)

// Invert returns 255 - v for every channel of an RGB or gray buffer.
func Invert(img *raster.Image) (*raster.Image, error) {
	if err := requireEightBit(img); err != nil {
		return nil, err
	}
	dst := img.Clone()
	for i, v := range dst.Pix {
		dst.Pix[i] = 255 - v
	}
	return dst, nil
}

// Threshold sets gray pixels strictly above cutoff to 255 and the rest to 0.
func Threshold(gray *raster.Image, cutoff uint8) (*raster.Image, error) {
	if err := requireSpace(gray, raster.Gray); err != nil {
		return nil, err
	}
	dst := raster.NewGray(gray.Width, gray.Height)
	for i, v := range gray.Pix {
		if v > cutoff {
			dst.Pix[i] = 255
		}
	}
	return dst, nil
}

// EqualizeHist spreads the gray histogram over the full range using its
// cumulative distribution. The darkest occupied level maps to 0 and the
// brightest to 255; a single-level image is returned unchanged.
func EqualizeHist(gray *raster.Image) (*raster.Image, error) {
	if err := requireSpace(gray, raster.Gray); err != nil {
		return nil, err
	}

	var hist [256]int
	for _, v := range gray.Pix {
		hist[v]++
	}
	total := len(gray.Pix)

	first := 0
	for first < 255 && hist[first] == 0 {
		first++
	}
	if hist[first] == total {
		return gray.Clone(), nil
	}

	var lut [256]uint8
	scale := 255.0 / float64(total-hist[first])
	sum := 0
	for i := first + 1; i < 256; i++ {
		sum += hist[i]
		lut[i] = raster.ClampF(float64(sum) * scale)
	}

	dst := raster.NewGray(gray.Width, gray.Height)
	for i, v := range gray.Pix {
		dst.Pix[i] = lut[v]
	}
	return dst, nil
}
