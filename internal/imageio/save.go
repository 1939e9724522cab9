package imageio

import (
	"bufio"
	"fmt"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/stylizer/internal/raster"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format names an output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// JPEGQuality is used for every JPEG written.
const JPEGQuality = 95

// FormatFromPath infers the output encoding from the path's extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg", "jpe":
		return FormatJPEG, nil
	case "gif":
		return FormatGIF, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	case "":
		return "", fmt.Errorf("output path %q has no extension", path)
	default:
		return "", fmt.Errorf("unsupported output format %q", ext)
	}
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img *raster.Image, format Format) error {
	if img.Empty() {
		return fmt.Errorf("image is empty")
	}
	src, err := img.ToImage()
	if err != nil {
		return err
	}

	switch format {
	case FormatPNG:
		return png.Encode(w, src)
	case FormatJPEG:
		return jpeg.Encode(w, src, &jpeg.Options{Quality: JPEGQuality})
	case FormatGIF:
		return gif.Encode(w, src, nil)
	case FormatBMP:
		return bmp.Encode(w, src)
	case FormatTIFF:
		return tiff.Encode(w, src, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// Save encodes img to path, choosing the format from the extension.
// The image is written to a temporary file next to path and renamed into
// place, so a failed encode never leaves a partial file at path.
func Save(img *raster.Image, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return &EncodeError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &EncodeError{Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()        // nolint:errcheck
		os.Remove(tmpPath) // nolint:errcheck // best effort cleanup
	}

	bw := bufio.NewWriter(tmp)
	if err := Encode(bw, img, format); err != nil {
		cleanup()
		return &EncodeError{Path: path, Err: err}
	}
	if err := bw.Flush(); err != nil {
		cleanup()
		return &EncodeError{Path: path, Err: err}
	}
	if err := tmp.Chmod(0o644); err != nil {
		cleanup()
		return &EncodeError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath) // nolint:errcheck
		return &EncodeError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // nolint:errcheck
		return &EncodeError{Path: path, Err: err}
	}
	return nil
}
