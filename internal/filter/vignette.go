package filter

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/stylizer/internal/raster"
)

// Vignette darkens the borders with a separable Gaussian falloff whose sigma is
// half the image extent on each axis. Each pixel becomes v*mask + v*floor,
// where mask is 1 at the center; values are clamped to 255 and truncated.
func Vignette(img *raster.Image, floor float64) (*raster.Image, error) {
	if err := requireEightBit(img); err != nil {
		return nil, err
	}
	if floor < 0 {
		return nil, fmt.Errorf("%w: vignette floor must be non-negative", ErrInvalidParams)
	}
	kx := falloff(img.Width)
	ky := falloff(img.Height)

	dst := raster.New(img.Width, img.Height, img.Space)
	ch := img.Channels
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			gain := ky[y]*kx[x] + floor
			o := img.Offset(x, y)
			for c := 0; c < ch; c++ {
				v := float64(img.Pix[o+c]) * gain
				if v >= 255 {
					dst.Pix[o+c] = 255
				} else {
					dst.Pix[o+c] = uint8(v)
				}
			}
		}
	}
	return dst, nil
}

// falloff returns a Gaussian of n taps with sigma n/2, normalized so its peak is 1.
func falloff(n int) []float64 {
	k := make([]float64, n)
	sigma := float64(n) / 2
	center := float64(n-1) / 2
	peak := 0.0
	for i := range k {
		d := float64(i) - center
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		peak = max(peak, k[i])
	}
	for i := range k {
		k[i] /= peak
	}
	return k
}
