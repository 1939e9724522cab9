package style

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/stylizer/internal/filter"
)

// Step is one stage of a style pipeline.
type Step interface {
	// Op names the operation, e.g. "smooth". It doubles as the stage name in logs and errors.
	Op() string
	// Apply transforms the canvas in place.
	Apply(c *Canvas) error
}

// Smooth applies edge-preserving bilateral smoothing Passes times to the working buffer.
type Smooth struct {
	Diameter   int     `mapstructure:"diameter"`
	SigmaColor float64 `mapstructure:"sigma_color"`
	SigmaSpace float64 `mapstructure:"sigma_space"`
	Passes     int     `mapstructure:"passes"`
}

func (s Smooth) Op() string { return "smooth" }

func (s Smooth) Apply(c *Canvas) error {
	out, err := filter.BilateralN(c.Work, filter.BilateralParams{
		Diameter:   s.Diameter,
		SigmaColor: s.SigmaColor,
		SigmaSpace: s.SigmaSpace,
	}, s.Passes)
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// Quantize reduces the working buffer to K colors with k-means.
type Quantize struct {
	K        int     `mapstructure:"k"`
	MaxIter  int     `mapstructure:"max_iter"`
	Epsilon  float64 `mapstructure:"epsilon"`
	Attempts int     `mapstructure:"attempts"`
	Seed     int64   `mapstructure:"seed"`
}

func (s Quantize) Op() string { return "quantize" }

func (s Quantize) Apply(c *Canvas) error {
	out, err := filter.Quantize(c.Work, filter.KMeansParams{
		K:        s.K,
		MaxIter:  s.MaxIter,
		Epsilon:  s.Epsilon,
		Attempts: s.Attempts,
		Seed:     s.Seed,
	})
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// CannyMask extracts Canny edges from the chosen buffer into the canvas mask.
type CannyMask struct {
	From   Target  `mapstructure:"from"`
	Low    float64 `mapstructure:"low"`
	High   float64 `mapstructure:"high"`
	Dilate int     `mapstructure:"dilate"`
	Invert bool    `mapstructure:"invert"`
}

func (s CannyMask) Op() string { return "canny_mask" }

func (s CannyMask) Apply(c *Canvas) error {
	src, err := c.read(s.From)
	if err != nil {
		return err
	}
	mask, err := filter.EdgeMask(src, filter.EdgeParams{
		Low:    s.Low,
		High:   s.High,
		Dilate: s.Dilate,
		Invert: s.Invert,
	})
	if err != nil {
		return err
	}
	c.Mask = mask
	return nil
}

// AdaptiveMask builds an outline mask by median-blurring the luminance of the
// chosen buffer and thresholding it against its local mean.
type AdaptiveMask struct {
	From       Target  `mapstructure:"from"`
	MedianSize int     `mapstructure:"median_size"`
	BlockSize  int     `mapstructure:"block_size"`
	C          float64 `mapstructure:"c"`
}

func (s AdaptiveMask) Op() string { return "adaptive_mask" }

func (s AdaptiveMask) Apply(c *Canvas) error {
	src, err := c.read(s.From)
	if err != nil {
		return err
	}
	gray, err := filter.Grayscale(src)
	if err != nil {
		return err
	}
	if s.MedianSize > 1 {
		if gray, err = filter.MedianBlur(gray, s.MedianSize); err != nil {
			return err
		}
	}
	edges, err := filter.AdaptiveThresholdMean(gray, s.BlockSize, s.C)
	if err != nil {
		return err
	}
	mask, err := filter.Broadcast(edges)
	if err != nil {
		return err
	}
	c.Mask = mask
	return nil
}

// Composite ANDs the canvas mask into the working buffer, drawing black outlines.
type Composite struct{}

func (Composite) Op() string { return "composite" }

func (Composite) Apply(c *Canvas) error {
	mask, err := c.mask()
	if err != nil {
		return err
	}
	out, err := filter.And(c.Work, mask)
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// Blend mixes the canvas mask over the working buffer at the given weight.
type Blend struct {
	Weight float64 `mapstructure:"weight"`
}

func (s Blend) Op() string { return "blend" }

func (s Blend) Apply(c *Canvas) error {
	mask, err := c.mask()
	if err != nil {
		return err
	}
	out, err := filter.AddWeighted(c.Work, 1-s.Weight, mask, s.Weight, 0)
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// ScaleHSV multiplies saturation and value by their gains.
type ScaleHSV struct {
	Saturation float64 `mapstructure:"saturation"`
	Value      float64 `mapstructure:"value"`
}

func (s ScaleHSV) Op() string { return "scale_hsv" }

func (s ScaleHSV) Apply(c *Canvas) error {
	out, err := filter.ScaleHSV(c.Work, s.Saturation, s.Value)
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// Median median-blurs the working buffer.
type Median struct {
	Size int `mapstructure:"size"`
}

func (s Median) Op() string { return "median" }

func (s Median) Apply(c *Canvas) error {
	out, err := filter.MedianBlur(c.Work, s.Size)
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// Sharpen convolves the working buffer with a named 3x3 kernel ("mild" or
// "strong") and blends it in at Weight. Weight 1 replaces the buffer.
type Sharpen struct {
	Kernel string  `mapstructure:"kernel"`
	Weight float64 `mapstructure:"weight"`
}

func (s Sharpen) Op() string { return "sharpen" }

func (s Sharpen) Apply(c *Canvas) error {
	var k filter.Kernel
	switch strings.ToLower(s.Kernel) {
	case "mild":
		k = filter.KernelMild
	case "strong":
		k = filter.KernelStrong
	default:
		return fmt.Errorf("unknown sharpen kernel %q", s.Kernel)
	}
	out, err := filter.Sharpen(c.Work, k, s.Weight)
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// Vignette darkens the borders; Floor is the brightness share kept everywhere.
type Vignette struct {
	Floor float64 `mapstructure:"floor"`
}

func (s Vignette) Op() string { return "vignette" }

func (s Vignette) Apply(c *Canvas) error {
	out, err := filter.Vignette(c.Work, s.Floor)
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// Halftone stamps a white dot grid into highlights.
type Halftone struct {
	Cutoff  uint8 `mapstructure:"cutoff"`
	Spacing int   `mapstructure:"spacing"`
	Radius  int   `mapstructure:"radius"`
}

func (s Halftone) Op() string { return "halftone" }

func (s Halftone) Apply(c *Canvas) error {
	out, err := filter.Halftone(c.Work, filter.HalftoneParams{Cutoff: s.Cutoff, Spacing: s.Spacing, Radius: s.Radius})
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// Glow blooms highlights above Cutoff.
type Glow struct {
	Cutoff uint8   `mapstructure:"cutoff"`
	Sigma  float64 `mapstructure:"sigma"`
	Weight float64 `mapstructure:"weight"`
}

func (s Glow) Op() string { return "glow" }

func (s Glow) Apply(c *Canvas) error {
	out, err := filter.Glow(c.Work, filter.GlowParams{Cutoff: s.Cutoff, Sigma: s.Sigma, Weight: s.Weight})
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// PosterizeChroma quantizes the Lab chroma channels to multiples of Bucket.
type PosterizeChroma struct {
	Bucket int `mapstructure:"bucket"`
}

func (s PosterizeChroma) Op() string { return "posterize_chroma" }

func (s PosterizeChroma) Apply(c *Canvas) error {
	out, err := filter.PosterizeChroma(c.Work, s.Bucket)
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// Grayscale converts the working buffer to a single luminance channel.
type Grayscale struct{}

func (Grayscale) Op() string { return "grayscale" }

func (Grayscale) Apply(c *Canvas) error {
	out, err := filter.Grayscale(c.Work)
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// Dodge applies the pencil-sketch color dodge to a gray working buffer.
type Dodge struct {
	Sigma float64 `mapstructure:"sigma"`
}

func (s Dodge) Op() string { return "dodge" }

func (s Dodge) Apply(c *Canvas) error {
	out, err := filter.Dodge(c.Work, s.Sigma)
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// Equalize equalizes the histogram of a gray working buffer.
type Equalize struct{}

func (Equalize) Op() string { return "equalize" }

func (Equalize) Apply(c *Canvas) error {
	out, err := filter.EqualizeHist(c.Work)
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}

// Broadcast expands a gray working buffer back to three channels.
type Broadcast struct{}

func (Broadcast) Op() string { return "broadcast" }

func (Broadcast) Apply(c *Canvas) error {
	out, err := filter.Broadcast(c.Work)
	if err != nil {
		return err
	}
	c.Work = out
	return nil
}
