package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/stylizer/internal/imageio"
	"github.com/MeKo-Tech/stylizer/internal/raster"
	"github.com/MeKo-Tech/stylizer/internal/style"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScene saves a small photo-like test image: a sky gradient, a dark
// ground band and a bright square, which gives every style edges, highlights
// and several color regions to work on.
func writeScene(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := raster.New(w, h, raster.RGB)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := img.Offset(x, y)
			switch {
			case x > w/4 && x < w/2 && y > h/4 && y < h/2:
				img.Pix[o], img.Pix[o+1], img.Pix[o+2] = 250, 245, 230
			case y > h*2/3:
				img.Pix[o], img.Pix[o+1], img.Pix[o+2] = 40, uint8(90+x%40), 30
			default:
				img.Pix[o], img.Pix[o+1], img.Pix[o+2] = uint8(80+y), uint8(120+y), 220
			}
		}
	}
	path := filepath.Join(dir, "scene.png")
	require.NoError(t, imageio.Save(img, path))
	return path
}

func TestAllStylesPreserveDimensions(t *testing.T) {
	dir := t.TempDir()
	in := writeScene(t, dir, 64, 48)
	runner := NewRunner(Options{})

	for _, name := range style.Names() {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(dir, name+".png")
			res, err := runner.RunNamed(context.Background(), name, in, out)
			require.NoError(t, err)
			assert.Equal(t, 64, res.Width)
			assert.Equal(t, 48, res.Height)
			assert.Len(t, res.Stages, len(mustLookup(t, name).Steps))

			got, err := imageio.Load(out)
			require.NoError(t, err)
			assert.Equal(t, 64, got.Width)
			assert.Equal(t, 48, got.Height)
			assert.Equal(t, 3, got.Channels)
		})
	}
}

func TestPerStyleFunctions(t *testing.T) {
	dir := t.TempDir()
	in := writeScene(t, dir, 32, 24)
	funcs := map[string]func(string, string) bool{
		"pencil":    PencilSketch,
		"oil":       OilPainting,
		"cartoon2d": Cartoon2D,
		"cartoon3d": Cartoon3D,
		"comic":     Comic,
		"anime":     Anime,
	}
	for name, fn := range funcs {
		out := filepath.Join(dir, "fn-"+name+".png")
		assert.True(t, fn(in, out), name)
		assert.FileExists(t, out)
	}
}

func TestPencilChannelsEqual(t *testing.T) {
	dir := t.TempDir()
	in := writeScene(t, dir, 40, 30)
	out := filepath.Join(dir, "pencil.png")
	require.True(t, PencilSketch(in, out))

	img, err := imageio.Load(out)
	require.NoError(t, err)
	for i := 0; i < len(img.Pix); i += 3 {
		require.Equal(t, img.Pix[i], img.Pix[i+1])
		require.Equal(t, img.Pix[i], img.Pix[i+2])
	}
}

func TestLargeInputIsBounded(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "large.png")
	require.NoError(t, imageio.Save(raster.Filled(3000, 2000, raster.RGB, 120, 130, 140), in))

	res, err := NewRunner(Options{}).RunNamed(context.Background(), style.Pencil, in, filepath.Join(dir, "out.png"))
	require.NoError(t, err)
	assert.Equal(t, 1920, res.Width)
	assert.Equal(t, 1280, res.Height)
}

func TestComicSolidColor(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "solid.png")
	require.NoError(t, imageio.Save(raster.Filled(30, 30, raster.RGB, 200, 80, 40), in))
	out := filepath.Join(dir, "comic.png")
	require.True(t, Comic(in, out))

	img, err := imageio.Load(out)
	require.NoError(t, err)
	for i := 0; i < len(img.Pix); i += 3 {
		assert.InDelta(t, 220, float64(img.Pix[i]), 1)
		assert.InDelta(t, 55, float64(img.Pix[i+1]), 1)
		assert.InDelta(t, 0, float64(img.Pix[i+2]), 1)
	}
}

func TestDeterministic(t *testing.T) {
	dir := t.TempDir()
	in := writeScene(t, dir, 32, 24)
	runner := NewRunner(Options{})
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	_, err := runner.RunNamed(context.Background(), style.Comic, in, a)
	require.NoError(t, err)
	_, err = runner.RunNamed(context.Background(), style.Comic, in, b)
	require.NoError(t, err)

	ab, err := os.ReadFile(a)
	require.NoError(t, err)
	bb, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, ab, bb)
}

func TestFailuresReturnFalse(t *testing.T) {
	dir := t.TempDir()
	in := writeScene(t, dir, 16, 16)
	runner := NewRunner(Options{})

	t.Run("missing input", func(t *testing.T) {
		out := filepath.Join(dir, "missing-out.png")
		assert.False(t, runner.Transform(style.Oil, filepath.Join(dir, "nope.jpg"), out))
		assert.NoFileExists(t, out)

		_, err := runner.RunNamed(context.Background(), style.Oil, filepath.Join(dir, "nope.jpg"), out)
		var de *imageio.DecodeError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("unwritable output", func(t *testing.T) {
		out := filepath.Join(dir, "no-such-dir", "out.png")
		assert.False(t, runner.Transform(style.Pencil, in, out))
		assert.NoFileExists(t, out)

		_, err := runner.RunNamed(context.Background(), style.Pencil, in, out)
		var ee *imageio.EncodeError
		assert.True(t, errors.As(err, &ee))
	})

	t.Run("unknown style", func(t *testing.T) {
		_, err := runner.RunNamed(context.Background(), "mosaic", in, filepath.Join(dir, "x.png"))
		assert.True(t, errors.Is(err, ErrUnknownStyle))
		assert.False(t, runner.Transform("mosaic", in, filepath.Join(dir, "x.png")))
	})

	t.Run("failing stage writes nothing", func(t *testing.T) {
		reg := style.NewRegistry()
		require.NoError(t, reg.Register(style.Style{
			Name:  "broken",
			Steps: []style.Step{style.Smooth{Diameter: 5, SigmaColor: 20, SigmaSpace: 20}, style.Median{Size: 4}},
		}))
		r := NewRunner(Options{Registry: reg})
		out := filepath.Join(dir, "broken.png")

		_, err := r.RunNamed(context.Background(), "broken", in, out)
		var se *StageError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "median", se.Stage)
		assert.Equal(t, 1, se.Index)
		assert.False(t, r.Transform("broken", in, out))
		assert.NoFileExists(t, out)
	})

	t.Run("gray result rejected", func(t *testing.T) {
		reg := style.NewRegistry()
		require.NoError(t, reg.Register(style.Style{Name: "mono", Steps: []style.Step{style.Grayscale{}}}))
		_, err := NewRunner(Options{Registry: reg}).RunNamed(context.Background(), "mono", in, filepath.Join(dir, "mono.png"))
		var se *StageError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "finalize", se.Stage)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := runner.RunNamed(ctx, style.Anime, in, filepath.Join(dir, "c.png"))
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestStageCapture(t *testing.T) {
	dir := t.TempDir()
	in := writeScene(t, dir, 24, 16)
	stages := filepath.Join(dir, "stages")
	r := NewRunner(Options{StageDir: stages})

	_, err := r.RunNamed(context.Background(), "Pencil Sketch", in, filepath.Join(dir, "out.png"))
	require.NoError(t, err)
	for _, name := range []string{"00_grayscale.png", "01_dodge.png", "02_equalize.png", "03_broadcast.png"} {
		assert.FileExists(t, filepath.Join(stages, style.Pencil, name))
	}
}

func mustLookup(t *testing.T, name string) style.Style {
	t.Helper()
	s, ok := style.Lookup(name)
	require.True(t, ok)
	return s
}
