package sample

import (
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/stylizer/internal/imageio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	p := DefaultParams()
	p.Width, p.Height = 128, 96
	return p
}

func TestLandscapeLayout(t *testing.T) {
	img, err := Landscape(testParams())
	require.NoError(t, err)
	require.Equal(t, 128, img.Width)
	require.Equal(t, 96, img.Height)
	require.Equal(t, 3, img.Channels)

	sky := img.RGBAt(0, 0)
	assert.Greater(t, sky.B, sky.R, "sky should be blue")

	sun := img.RGBAt(96, 24)
	assert.GreaterOrEqual(t, sun.R, uint8(240))

	for x := 0; x < img.Width; x++ {
		c := img.RGBAt(x, img.Height-1)
		assert.Greater(t, c.G, c.R, "x=%d", x)
		assert.Greater(t, c.G, c.B, "x=%d", x)
	}
}

func TestLandscapeDeterministic(t *testing.T) {
	a, err := Landscape(testParams())
	require.NoError(t, err)
	b, err := Landscape(testParams())
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)

	p := testParams()
	p.Seed = 42
	c, err := Landscape(p)
	require.NoError(t, err)
	assert.NotEqual(t, a.Pix, c.Pix)
}

func TestLandscapeInvalidSize(t *testing.T) {
	_, err := Landscape(Params{Width: 0, Height: 10})
	require.Error(t, err)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.png")
	require.NoError(t, Write(path, testParams()))

	img, err := imageio.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Width)
}
