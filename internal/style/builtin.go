package style

import "github.com/MeKo-Tech/stylizer/internal/filter"

// Style is a named, ordered list of steps.
type Style struct {
	Name        string
	Label       string
	Description string
	Steps       []Step
}

// Ops lists the operation names of the style's steps in order.
func (s Style) Ops() []string {
	ops := make([]string, len(s.Steps))
	for i, st := range s.Steps {
		ops[i] = st.Op()
	}
	return ops
}

// Names of the built-in styles.
const (
	Pencil    = "pencil"
	Oil       = "oil"
	Cartoon2D = "cartoon2d"
	Cartoon3D = "cartoon3d"
	Comic     = "comic"
	Anime     = "anime"
)

// kmeans returns a Quantize step with the default clustering criteria.
func kmeans(k int) Quantize {
	p := filter.DefaultKMeans(k)
	return Quantize{K: p.K, MaxIter: p.MaxIter, Epsilon: p.Epsilon, Attempts: p.Attempts, Seed: p.Seed}
}

// Builtins returns fresh copies of the six built-in styles in display order.
func Builtins() []Style {
	return []Style{
		{
			Name:        Pencil,
			Label:       "Pencil Sketch",
			Description: "Graphite sketch from a color-dodged grayscale with equalized contrast",
			Steps: []Step{
				Grayscale{},
				Dodge{Sigma: filter.SigmaForKernel(21)},
				Equalize{},
				Broadcast{},
			},
		},
		{
			Name:        Oil,
			Label:       "Oil Painting",
			Description: "Heavily smoothed, saturated strokes with a faint edge overlay",
			Steps: []Step{
				Smooth{Diameter: 9, SigmaColor: 90, SigmaSpace: 90, Passes: 3},
				ScaleHSV{Saturation: 1.3, Value: 1},
				Median{Size: 5},
				CannyMask{From: FromWork, Low: 50, High: 150},
				Blend{Weight: 0.05},
			},
		},
		{
			Name:        Cartoon2D,
			Label:       "2D Cartoon",
			Description: "Flat quantized colors with adaptive ink outlines",
			Steps: []Step{
				Smooth{Diameter: 9, SigmaColor: 75, SigmaSpace: 75},
				kmeans(9),
				AdaptiveMask{From: FromSource, MedianSize: 7, BlockSize: 9, C: 2},
				Composite{},
				ScaleHSV{Saturation: 1.4, Value: 1},
			},
		},
		{
			Name:        Cartoon3D,
			Label:       "3D Cartoon",
			Description: "Smooth shading with bold outlines, sharpened detail and a vignette",
			Steps: []Step{
				Smooth{Diameter: 9, SigmaColor: 80, SigmaSpace: 80},
				CannyMask{From: FromSource, Low: 50, High: 150, Dilate: 1, Invert: true},
				Composite{},
				ScaleHSV{Saturation: 1.3, Value: 1.15},
				Sharpen{Kernel: "strong", Weight: 0.3},
				Vignette{Floor: 0.3},
			},
		},
		{
			Name:        Comic,
			Label:       "Comic Style",
			Description: "Posterized print colors, heavy ink lines and halftone highlights",
			Steps: []Step{
				Smooth{Diameter: 9, SigmaColor: 100, SigmaSpace: 100},
				kmeans(12),
				CannyMask{From: FromSource, Low: 100, High: 200, Dilate: 1, Invert: true},
				Composite{},
				ScaleHSV{Saturation: 1.5, Value: 1.1},
				Halftone{Cutoff: 200, Spacing: 10, Radius: 2},
				Sharpen{Kernel: "mild", Weight: 1},
			},
		},
		{
			Name:        Anime,
			Label:       "Anime Style",
			Description: "Very smooth cel shading, fine outlines, glowing highlights and flattened chroma",
			Steps: []Step{
				Smooth{Diameter: 9, SigmaColor: 90, SigmaSpace: 90, Passes: 4},
				CannyMask{From: FromSource, Low: 80, High: 120, Dilate: 1, Invert: true},
				Composite{},
				ScaleHSV{Saturation: 1.6, Value: 1.2},
				Glow{Cutoff: 220, Sigma: filter.SigmaForKernel(5), Weight: 0.1},
				PosterizeChroma{Bucket: 16},
				Sharpen{Kernel: "mild", Weight: 1},
			},
		},
	}
}
