package imageio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/stylizer/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"landscape", 3000, 2000, 1920, 1920, 1280},
		{"truncates shorter side", 3000, 2001, 1920, 1920, 1280},
		{"truncates portrait", 1001, 3000, 1920, 640, 1920},
		{"portrait", 1000, 4000, 1920, 480, 1920},
		{"within bounds", 800, 600, 1920, 800, 600},
		{"exactly bound", 1920, 1080, 1920, 1920, 1080},
		{"thin strip keeps one pixel", 10000, 2, 1920, 1920, 1},
		{"no bound", 5000, 5000, 0, 5000, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := BoundedSize(tt.w, tt.h, tt.max)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestResizeBounded(t *testing.T) {
	img := raster.Filled(300, 200, raster.RGB, 10, 200, 90)
	out := ResizeBounded(img, 192)
	assert.Equal(t, 192, out.Width)
	assert.Equal(t, 128, out.Height)
	assert.Equal(t, []uint8{10, 200, 90}, out.Pix[:3])

	small := raster.Filled(50, 40, raster.RGB, 1, 2, 3)
	assert.Same(t, small, ResizeBounded(small, 192))

	gray := ResizeBounded(raster.Filled(400, 100, raster.Gray, 60), 100)
	assert.Equal(t, raster.Gray, gray.Space)
	assert.Equal(t, 100, gray.Width)
	assert.Equal(t, 25, gray.Height)
}

func TestSaveLoadPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	img := raster.New(3, 2, raster.RGB)
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 13)
	}
	require.NoError(t, Save(img, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, got.Pix)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestSaveOtherFormats(t *testing.T) {
	dir := t.TempDir()
	img := raster.Filled(8, 8, raster.RGB, 40, 80, 160)
	for _, name := range []string{"a.jpg", "b.jpeg", "c.bmp", "d.tiff", "e.gif"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(img, path), name)
		back, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, 8, back.Width, name)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	var de *DecodeError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	garbage := filepath.Join(t.TempDir(), "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not an image"), 0o644))
	_, err = Load(garbage)
	require.True(t, errors.As(err, &de))
	assert.Equal(t, garbage, de.Path)
}

func TestLoadPixelLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	require.NoError(t, Save(raster.Filled(20, 20, raster.RGB, 9, 9, 9), path))

	prev := MaxPixels
	t.Cleanup(func() { MaxPixels = prev })

	MaxPixels = 20 * 20
	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Width)

	MaxPixels = 20*20 - 1
	_, err = Load(path)
	var de *DecodeError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.ErrorIs(t, err, ErrTooManyPixels)
}

func TestSaveErrors(t *testing.T) {
	img := raster.Filled(2, 2, raster.RGB, 1, 2, 3)
	var ee *EncodeError

	err := Save(img, filepath.Join(t.TempDir(), "out.xyz"))
	require.True(t, errors.As(err, &ee), "got %v", err)

	err = Save(img, filepath.Join(t.TempDir(), "no-such-dir", "out.png"))
	require.True(t, errors.As(err, &ee), "got %v", err)

	_, err = FormatFromPath("noext")
	assert.Error(t, err)
}
