package filter

import (
	"fmt"

	"github.com/MeKo-Tech/stylizer/internal/raster"
)

// GlowParams configures the bloom applied to bright regions.
type GlowParams struct {
	Cutoff uint8   // luminance above which a pixel glows
	Sigma  float64 // blur radius of the glow mask
	Weight float64 // share of the glow in the final blend
}

// DefaultGlow is the bloom used by the anime style.
var DefaultGlow = GlowParams{Cutoff: 220, Sigma: SigmaForKernel(5), Weight: 0.1}

// Glow thresholds the luminance of img, blurs the highlight mask and blends it
// back over the image.
func Glow(img *raster.Image, p GlowParams) (*raster.Image, error) {
	if err := requireSpace(img, raster.RGB); err != nil {
		return nil, err
	}
	if p.Sigma <= 0 || p.Weight < 0 || p.Weight > 1 {
		return nil, fmt.Errorf("%w: glow sigma %.2f weight %.2f", ErrInvalidParams, p.Sigma, p.Weight)
	}
	gray, err := Grayscale(img)
	if err != nil {
		return nil, err
	}
	mask, err := Threshold(gray, p.Cutoff)
	if err != nil {
		return nil, err
	}
	if mask, err = GaussianBlur(mask, p.Sigma); err != nil {
		return nil, err
	}
	glow, err := Broadcast(mask)
	if err != nil {
		return nil, err
	}
	return AddWeighted(img, 1-p.Weight, glow, p.Weight, 0)
}

// HalftoneParams configures the highlight dot pattern.
type HalftoneParams struct {
	Cutoff  uint8 // luminance above which a grid point receives a dot
	Spacing int   // grid stride in pixels
	Radius  int   // dot radius in pixels
}

// DefaultHalftone is the dot pattern used by the comic style.
var DefaultHalftone = HalftoneParams{Cutoff: 200, Spacing: 10, Radius: 2}

// Halftone stamps white dots on a regular grid wherever the luminance of the
// input exceeds the cutoff. The highlight test always reads the input, so
// stamped dots never trigger further dots.
func Halftone(img *raster.Image, p HalftoneParams) (*raster.Image, error) {
	if err := requireSpace(img, raster.RGB); err != nil {
		return nil, err
	}
	if p.Spacing < 1 || p.Radius < 0 {
		return nil, fmt.Errorf("%w: halftone spacing %d radius %d", ErrInvalidParams, p.Spacing, p.Radius)
	}
	gray, err := Grayscale(img)
	if err != nil {
		return nil, err
	}
	dst := img.Clone()
	for y := 0; y < img.Height; y += p.Spacing {
		for x := 0; x < img.Width; x += p.Spacing {
			if gray.Pix[y*gray.Width+x] > p.Cutoff {
				raster.StampDisc(dst, x, y, p.Radius, 255)
			}
		}
	}
	return dst, nil
}
