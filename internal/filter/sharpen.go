package filter

import (
	"github.com/MeKo-Tech/stylizer/internal/raster"
	"github.com/disintegration/gift"
)

// Kernel is a 3x3 convolution kernel in row-major order.
type Kernel [9]float32

var (
	// KernelMild boosts the center against its four direct neighbors.
	KernelMild = Kernel{
		0, -1, 0,
		-1, 5, -1,
		0, -1, 0,
	}
	// KernelStrong boosts the center against all eight neighbors.
	KernelStrong = Kernel{
		-1, -1, -1,
		-1, 9, -1,
		-1, -1, -1,
	}
)

// Convolve applies a 3x3 kernel to every channel, saturating the result.
func Convolve(img *raster.Image, k Kernel) (*raster.Image, error) {
	return applyGift(img, gift.Convolution(k[:], false, false, false, 0))
}

// Sharpen convolves img with k and blends the result back over the input:
// weight 1 replaces the input entirely, 0.3 keeps 70% of the original.
func Sharpen(img *raster.Image, k Kernel, weight float64) (*raster.Image, error) {
	sharp, err := Convolve(img, k)
	if err != nil {
		return nil, err
	}
	if weight >= 1 {
		return sharp, nil
	}
	return AddWeighted(img, 1-weight, sharp, weight, 0)
}
