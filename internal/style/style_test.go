package style

import (
	"testing"

	"github.com/MeKo-Tech/stylizer/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinStageOrder(t *testing.T) {
	tests := []struct {
		name string
		ops  []string
	}{
		{Pencil, []string{"grayscale", "dodge", "equalize", "broadcast"}},
		{Oil, []string{"smooth", "scale_hsv", "median", "canny_mask", "blend"}},
		{Cartoon2D, []string{"smooth", "quantize", "adaptive_mask", "composite", "scale_hsv"}},
		{Cartoon3D, []string{"smooth", "canny_mask", "composite", "scale_hsv", "sharpen", "vignette"}},
		{Comic, []string{"smooth", "quantize", "canny_mask", "composite", "scale_hsv", "halftone", "sharpen"}},
		{Anime, []string{"smooth", "canny_mask", "composite", "scale_hsv", "glow", "posterize_chroma", "sharpen"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := Lookup(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.ops, s.Ops())
		})
	}
}

func TestLookupByLabel(t *testing.T) {
	for _, label := range []string{"Comic Style", "comic", "COMIC", "Pencil Sketch", "2D Cartoon", "3d-cartoon", "anime_style"} {
		_, ok := Lookup(label)
		assert.True(t, ok, label)
	}
	s, ok := Lookup("Oil Painting")
	require.True(t, ok)
	assert.Equal(t, Oil, s.Name)

	_, ok = Lookup("mosaic")
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"anime", "cartoon2d", "cartoon3d", "comic", "oil", "pencil"}, Names())
}

func TestBuiltinsAreIndependentCopies(t *testing.T) {
	a := Builtins()
	a[0].Steps[0] = Equalize{}
	b := Builtins()
	assert.Equal(t, "grayscale", b[0].Steps[0].Op())
}

func TestRegisterRejectsConflicts(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Style{Name: "Comic-Style", Steps: []Step{Grayscale{}, Broadcast{}}})
	assert.Error(t, err)

	err = r.Register(Style{Name: "empty"})
	assert.Error(t, err)

	require.NoError(t, r.Register(Style{Name: "mono", Steps: []Step{Grayscale{}, Broadcast{}}}))
	s, ok := r.Lookup("MONO")
	require.True(t, ok)
	assert.Equal(t, "mono", s.Label)
}

func TestDecode(t *testing.T) {
	raw := []any{
		map[string]any{
			"name":  "ink",
			"label": "Ink Wash",
			"steps": []any{
				map[string]any{"op": "smooth", "diameter": 5, "sigma_color": "40", "sigma_space": 40.0},
				map[string]any{"op": "canny_mask", "from": "source", "low": 30, "high": 90, "dilate": 1, "invert": true},
				map[string]any{"op": "composite"},
				map[string]any{"op": "sharpen", "kernel": "strong", "weight": 0.5},
			},
		},
	}
	styles, err := DecodeAll(raw)
	require.NoError(t, err)
	require.Len(t, styles, 1)

	s := styles[0]
	assert.Equal(t, "Ink Wash", s.Label)
	assert.Equal(t, []string{"smooth", "canny_mask", "composite", "sharpen"}, s.Ops())
	assert.Equal(t, Smooth{Diameter: 5, SigmaColor: 40, SigmaSpace: 40}, s.Steps[0])
	assert.Equal(t, CannyMask{From: FromSource, Low: 30, High: 90, Dilate: 1, Invert: true}, s.Steps[1])

	r := NewRegistry()
	require.NoError(t, r.RegisterAll(raw))
	_, ok := r.Lookup("ink wash")
	assert.True(t, ok)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"missing name", Spec{Steps: []map[string]any{{"op": "grayscale"}}}},
		{"no steps", Spec{Name: "x"}},
		{"unknown op", Spec{Name: "x", Steps: []map[string]any{{"op": "sparkle"}}}},
		{"unknown field", Spec{Name: "x", Steps: []map[string]any{{"op": "median", "radius": 3}}}},
		{"bad type", Spec{Name: "x", Steps: []map[string]any{{"op": "median", "size": map[string]any{"n": 1}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestStepsOnCanvas(t *testing.T) {
	src := raster.Filled(12, 12, raster.RGB, 180, 90, 40)

	t.Run("composite needs mask", func(t *testing.T) {
		c := NewCanvas(src)
		assert.Error(t, Composite{}.Apply(c))
	})

	t.Run("mask from source survives work changes", func(t *testing.T) {
		c := NewCanvas(src)
		require.NoError(t, Grayscale{}.Apply(c))
		require.NoError(t, CannyMask{From: FromSource, Low: 50, High: 150, Invert: true}.Apply(c))
		require.NoError(t, Broadcast{}.Apply(c))
		require.NoError(t, Composite{}.Apply(c))
		assert.Equal(t, 3, c.Work.Channels)
		assert.Equal(t, []uint8{180, 90, 40}, src.Pix[:3], "source must not change")
	})

	t.Run("unknown target", func(t *testing.T) {
		c := NewCanvas(src)
		assert.Error(t, CannyMask{From: "elsewhere", Low: 1, High: 2}.Apply(c))
	})

	t.Run("unknown kernel", func(t *testing.T) {
		c := NewCanvas(src)
		assert.Error(t, Sharpen{Kernel: "blurry"}.Apply(c))
	})

	t.Run("unit gains keep colors", func(t *testing.T) {
		c := NewCanvas(src)
		require.NoError(t, ScaleHSV{Saturation: 1, Value: 1}.Apply(c))
		for i := range src.Pix {
			assert.InDelta(t, float64(src.Pix[i]), float64(c.Work.Pix[i]), 1)
		}
	})

	t.Run("zero value gain blacks out", func(t *testing.T) {
		c := NewCanvas(src)
		require.NoError(t, ScaleHSV{Saturation: 1, Value: 0}.Apply(c))
		assert.Equal(t, make([]uint8, len(src.Pix)), c.Work.Pix)
	})

	t.Run("empty kernel is rejected", func(t *testing.T) {
		c := NewCanvas(src)
		assert.Error(t, Sharpen{Weight: 1}.Apply(c))
	})
}

func TestDecodeDefaults(t *testing.T) {
	decode := func(t *testing.T, step map[string]any) Step {
		t.Helper()
		s, err := Decode(Spec{Name: "x", Steps: []map[string]any{step}})
		require.NoError(t, err)
		require.Len(t, s.Steps, 1)
		return s.Steps[0]
	}

	t.Run("omitted fields take defaults", func(t *testing.T) {
		assert.Equal(t, Halftone{Cutoff: 200, Spacing: 10, Radius: 2}, decode(t, map[string]any{"op": "halftone"}))
		assert.Equal(t, Sharpen{Kernel: "mild", Weight: 1}, decode(t, map[string]any{"op": "sharpen"}))
		assert.Equal(t, ScaleHSV{Saturation: 1.2, Value: 1}, decode(t, map[string]any{"op": "scale_hsv", "saturation": 1.2}))
		assert.Equal(t, kmeans(6), decode(t, map[string]any{"op": "quantize", "k": 6}))
	})

	t.Run("explicit zeros survive", func(t *testing.T) {
		assert.Equal(t, ScaleHSV{Saturation: 0, Value: 1}, decode(t, map[string]any{"op": "scale_hsv", "saturation": 0}))
		assert.Equal(t, Halftone{Cutoff: 0, Spacing: 10, Radius: 2}, decode(t, map[string]any{"op": "halftone", "cutoff": 0}))

		q, ok := decode(t, map[string]any{"op": "quantize", "k": 4, "seed": 0, "epsilon": 0}).(Quantize)
		require.True(t, ok)
		assert.Equal(t, int64(0), q.Seed)
		assert.Equal(t, 0.0, q.Epsilon)
		assert.Equal(t, 20, q.MaxIter)
	})

	t.Run("decoders do not share state", func(t *testing.T) {
		decode(t, map[string]any{"op": "glow", "cutoff": 10})
		g, ok := decode(t, map[string]any{"op": "glow"}).(Glow)
		require.True(t, ok)
		assert.Equal(t, uint8(220), g.Cutoff)
	})
}
