// Package imageio decodes, bounds and encodes the images processed by the style pipelines.
package imageio

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/MeKo-Tech/stylizer/internal/raster"

	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Load decodes the file at path into an RGB buffer.
func Load(path string) (*raster.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer file.Close()

	img, err := Decode(bufio.NewReader(file))
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return img, nil
}

// MaxPixels caps the pixel count Decode accepts. The header is checked before
// any pixel data is decoded.
var MaxPixels = 64 << 20

// Decode reads any registered raster format into an RGB buffer.
func Decode(r io.Reader) (*raster.Image, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has empty bounds %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width > MaxPixels/cfg.Height {
		return nil, fmt.Errorf("%w: %dx%d, limit %d", ErrTooManyPixels, cfg.Width, cfg.Height, MaxPixels)
	}

	src, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("image has empty bounds %v", b)
	}
	return raster.FromImage(src), nil
}
