package filter

import (
	"fmt"

	"github.com/MeKo-Tech/stylizer/internal/raster"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// ToHSV converts an RGB buffer into HSV planes (H in degrees, S and V in [0,1]).
func ToHSV(img *raster.Image) (*raster.Planes, error) {
	if err := requireSpace(img, raster.RGB); err != nil {
		return nil, err
	}
	p := raster.NewPlanes(img.Width, img.Height, raster.HSV)
	for i := 0; i < img.Width*img.Height; i++ {
		h, s, v := rgbAt(img, i).Hsv()
		p.C[0][i], p.C[1][i], p.C[2][i] = h, s, v
	}
	return p, nil
}

// FromHSV converts HSV planes back into an RGB buffer.
func FromHSV(p *raster.Planes) (*raster.Image, error) {
	if p == nil || p.Space != raster.HSV {
		return nil, fmt.Errorf("%w: expected hsv planes", ErrChannelMismatch)
	}
	dst := raster.New(p.Width, p.Height, raster.RGB)
	for i := 0; i < p.Width*p.Height; i++ {
		setRGB(dst, i, colorful.Hsv(p.C[0][i], p.C[1][i], p.C[2][i]))
	}
	return dst, nil
}

// ScaleHSV multiplies saturation and value by the given gains, clipping both to
// their maximum. Hue is preserved.
func ScaleHSV(img *raster.Image, satGain, valGain float64) (*raster.Image, error) {
	if satGain < 0 || valGain < 0 {
		return nil, fmt.Errorf("%w: hsv gains must be non-negative", ErrInvalidParams)
	}
	p, err := ToHSV(img)
	if err != nil {
		return nil, err
	}
	for i := range p.C[1] {
		p.C[1][i] = min(p.C[1][i]*satGain, 1)
		p.C[2][i] = min(p.C[2][i]*valGain, 1)
	}
	return FromHSV(p)
}

// ToLab converts an RGB buffer into CIE L*a*b* planes (D65).
func ToLab(img *raster.Image) (*raster.Planes, error) {
	if err := requireSpace(img, raster.RGB); err != nil {
		return nil, err
	}
	p := raster.NewPlanes(img.Width, img.Height, raster.Lab)
	for i := 0; i < img.Width*img.Height; i++ {
		l, a, b := rgbAt(img, i).Lab()
		p.C[0][i], p.C[1][i], p.C[2][i] = l, a, b
	}
	return p, nil
}

// FromLab converts L*a*b* planes back into an RGB buffer, clamping out-of-gamut colors.
func FromLab(p *raster.Planes) (*raster.Image, error) {
	if p == nil || p.Space != raster.Lab {
		return nil, fmt.Errorf("%w: expected lab planes", ErrChannelMismatch)
	}
	dst := raster.New(p.Width, p.Height, raster.RGB)
	for i := 0; i < p.Width*p.Height; i++ {
		setRGB(dst, i, colorful.Lab(p.C[0][i], p.C[1][i], p.C[2][i]).Clamped())
	}
	return dst, nil
}

// PosterizeChroma quantizes the a and b chroma channels of an RGB buffer in
// their 8-bit encoding (a*100+128) down to multiples of bucket. Lightness is
// left untouched.
func PosterizeChroma(img *raster.Image, bucket int) (*raster.Image, error) {
	if bucket < 1 || bucket > 255 {
		return nil, fmt.Errorf("%w: chroma bucket must be in [1,255], got %d", ErrInvalidParams, bucket)
	}
	p, err := ToLab(img)
	if err != nil {
		return nil, err
	}
	for _, plane := range p.C[1:] {
		for i, v := range plane {
			q := int(raster.ClampF(v*100+128)) / bucket * bucket
			plane[i] = (float64(q) - 128) / 100
		}
	}
	return FromLab(p)
}

func rgbAt(img *raster.Image, i int) colorful.Color {
	o := i * 3
	return colorful.Color{
		R: float64(img.Pix[o]) / 255,
		G: float64(img.Pix[o+1]) / 255,
		B: float64(img.Pix[o+2]) / 255,
	}
}

func setRGB(img *raster.Image, i int, c colorful.Color) {
	o := i * 3
	img.Pix[o], img.Pix[o+1], img.Pix[o+2] = c.Clamped().RGB255()
}
