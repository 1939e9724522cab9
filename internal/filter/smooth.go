package filter

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/stylizer/internal/raster"
	"github.com/disintegration/gift"
)

// BilateralParams configures edge-preserving smoothing.
type BilateralParams struct {
	Diameter   int     // neighborhood diameter in pixels; <= 0 derives it from SigmaSpace
	SigmaColor float64 // color-domain falloff
	SigmaSpace float64 // spatial falloff
}

// Bilateral averages every pixel with its neighbors inside a disc of the
// configured diameter, weighting each neighbor by spatial distance and by the
// L1 color distance to the center pixel. Borders are mirrored without
// repeating the edge pixel.
func Bilateral(img *raster.Image, p BilateralParams) (*raster.Image, error) {
	if err := requireEightBit(img); err != nil {
		return nil, err
	}
	if p.SigmaColor <= 0 || p.SigmaSpace <= 0 {
		return nil, fmt.Errorf("%w: bilateral sigmas must be positive", ErrInvalidParams)
	}

	radius := p.Diameter / 2
	if p.Diameter <= 0 {
		radius = int(math.Round(p.SigmaSpace * 1.5))
	}
	if radius < 1 {
		return img.Clone(), nil
	}

	ch := img.Channels
	padded, pw := padReflect(img, radius)

	// Spatial kernel restricted to the disc.
	type tap struct {
		offset int
		weight float64
	}
	spaceCoeff := -0.5 / (p.SigmaSpace * p.SigmaSpace)
	var taps []tap
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r > float64(radius) {
				continue
			}
			taps = append(taps, tap{
				offset: (dy*pw + dx) * ch,
				weight: math.Exp(r * r * spaceCoeff),
			})
		}
	}

	// Color weights indexed by the summed absolute channel difference.
	colorCoeff := -0.5 / (p.SigmaColor * p.SigmaColor)
	colorLUT := make([]float64, 255*ch+1)
	for d := range colorLUT {
		colorLUT[d] = math.Exp(float64(d*d) * colorCoeff)
	}

	dst := raster.New(img.Width, img.Height, img.Space)
	var sum [3]float64
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			center := ((y+radius)*pw + (x + radius)) * ch
			var wsum float64
			sum = [3]float64{}
			for _, t := range taps {
				n := center + t.offset
				dist := 0
				for c := 0; c < ch; c++ {
					d := int(padded[n+c]) - int(padded[center+c])
					if d < 0 {
						d = -d
					}
					dist += d
				}
				w := t.weight * colorLUT[dist]
				wsum += w
				for c := 0; c < ch; c++ {
					sum[c] += w * float64(padded[n+c])
				}
			}
			o := dst.Offset(x, y)
			for c := 0; c < ch; c++ {
				dst.Pix[o+c] = raster.ClampF(sum[c] / wsum)
			}
		}
	}
	return dst, nil
}

// BilateralN applies Bilateral passes times, feeding each result into the next pass.
func BilateralN(img *raster.Image, p BilateralParams, passes int) (*raster.Image, error) {
	if passes < 1 {
		passes = 1
	}
	out := img
	for i := 0; i < passes; i++ {
		next, err := Bilateral(out, p)
		if err != nil {
			return nil, fmt.Errorf("bilateral pass %d: %w", i+1, err)
		}
		out = next
	}
	return out, nil
}

// padReflect copies img into a buffer with a mirrored border of the given width
// (reflect-101: the edge pixel itself is not repeated). It returns the padded
// pixels and the padded row width in pixels.
func padReflect(img *raster.Image, border int) ([]uint8, int) {
	ch := img.Channels
	pw := img.Width + 2*border
	ph := img.Height + 2*border
	out := make([]uint8, pw*ph*ch)
	for y := 0; y < ph; y++ {
		sy := reflect101(y-border, img.Height)
		for x := 0; x < pw; x++ {
			sx := reflect101(x-border, img.Width)
			copy(out[(y*pw+x)*ch:(y*pw+x+1)*ch], img.Pix[img.Offset(sx, sy):img.Offset(sx, sy)+ch])
		}
	}
	return out, pw
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// GaussianBlur blurs with a Gaussian of the given sigma.
func GaussianBlur(img *raster.Image, sigma float64) (*raster.Image, error) {
	if sigma <= 0 {
		return nil, fmt.Errorf("%w: gaussian sigma must be positive", ErrInvalidParams)
	}
	return applyGift(img, gift.GaussianBlur(float32(sigma)))
}

// SigmaForKernel returns the sigma conventionally implied by an odd Gaussian
// kernel size when no explicit sigma is given.
func SigmaForKernel(ksize int) float64 {
	return 0.3*(float64(ksize-1)*0.5-1) + 0.8
}

// MedianBlur replaces each channel value with the median of its ksize x ksize neighborhood.
func MedianBlur(img *raster.Image, ksize int) (*raster.Image, error) {
	if ksize < 1 || ksize%2 == 0 {
		return nil, fmt.Errorf("%w: median kernel size must be odd and positive, got %d", ErrInvalidParams, ksize)
	}
	return applyGift(img, gift.Median(ksize, false))
}
