package imageio

import (
	"image"

	"github.com/MeKo-Tech/stylizer/internal/raster"
	"github.com/disintegration/gift"
)

// DefaultMaxDimension bounds the longer side of every working buffer.
const DefaultMaxDimension = 1920

// BoundedSize returns the dimensions ResizeBounded produces for a width x height input.
// The shorter side is truncated, never rounded up.
func BoundedSize(width, height, maxDimension int) (int, int) {
	if maxDimension <= 0 || max(width, height) <= maxDimension {
		return width, height
	}
	if width >= height {
		return maxDimension, max(1, height*maxDimension/width)
	}
	return max(1, width*maxDimension/height), maxDimension
}

// ResizeBounded shrinks img so that its longer side equals maxDimension, keeping
// the aspect ratio. Images already within bounds are returned as-is; it never upsamples.
// Downscaling uses box resampling, which averages the covered source area.
func ResizeBounded(img *raster.Image, maxDimension int) *raster.Image {
	if img.Empty() {
		return img
	}
	w, h := BoundedSize(img.Width, img.Height, maxDimension)
	if w == img.Width && h == img.Height {
		return img
	}

	g := gift.New(gift.Resize(w, h, gift.BoxResampling))

	if img.Space == raster.Gray {
		src, err := img.ToGray()
		if err != nil {
			return img
		}
		dst := image.NewGray(g.Bounds(src.Bounds()))
		g.Draw(dst, src)
		return raster.FromGray(dst)
	}

	src, err := img.ToNRGBA()
	if err != nil {
		return img
	}
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return raster.FromNRGBA(dst)
}
