// Package raster holds the 8-bit pixel buffers that flow through the style pipelines.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// ColorSpace tags how the channels of a buffer are to be interpreted.
type ColorSpace int

const (
	RGB ColorSpace = iota
	Gray
	HSV
	Lab
)

func (cs ColorSpace) String() string {
	switch cs {
	case RGB:
		return "rgb"
	case Gray:
		return "gray"
	case HSV:
		return "hsv"
	case Lab:
		return "lab"
	default:
		return fmt.Sprintf("colorspace(%d)", int(cs))
	}
}

// Channels returns the channel count a buffer in this color space carries.
func (cs ColorSpace) Channels() int {
	if cs == Gray {
		return 1
	}
	return 3
}

// Image is a row-major, channel-interleaved 8-bit buffer.
type Image struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int
	Space    ColorSpace
}

// New allocates a zeroed buffer.
func New(width, height int, space ColorSpace) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	ch := space.Channels()
	return &Image{
		Pix:      make([]uint8, width*height*ch),
		Width:    width,
		Height:   height,
		Channels: ch,
		Space:    space,
	}
}

// NewGray allocates a zeroed single-channel buffer.
func NewGray(width, height int) *Image {
	return New(width, height, Gray)
}

// Filled allocates a buffer where every pixel holds the given channel values.
func Filled(width, height int, space ColorSpace, values ...uint8) *Image {
	img := New(width, height, space)
	if len(values) != img.Channels {
		return img
	}
	for i := 0; i < len(img.Pix); i += img.Channels {
		copy(img.Pix[i:i+img.Channels], values)
	}
	return img
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	if m == nil {
		return nil
	}
	dst := &Image{
		Pix:      make([]uint8, len(m.Pix)),
		Width:    m.Width,
		Height:   m.Height,
		Channels: m.Channels,
		Space:    m.Space,
	}
	copy(dst.Pix, m.Pix)
	return dst
}

// Bounds returns the image rectangle anchored at the origin.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Offset returns the index of the first channel of pixel (x, y).
func (m *Image) Offset(x, y int) int {
	return (y*m.Width + x) * m.Channels
}

// Empty reports whether the buffer has no pixels.
func (m *Image) Empty() bool {
	return m == nil || m.Width <= 0 || m.Height <= 0
}

// SameSize reports whether both buffers have the same dimensions.
func SameSize(a, b *Image) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Width == b.Width && a.Height == b.Height
}

// SameShape reports whether both buffers have equal dimensions, channel count and color space.
func SameShape(a, b *Image) bool {
	return SameSize(a, b) && a.Channels == b.Channels && a.Space == b.Space
}

// FromImage converts any decoded image into an RGB buffer.
// Alpha is discarded; the straight (non-premultiplied) color is kept.
func FromImage(src image.Image) *Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	nrgba, ok := src.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), src, b.Min, draw.Src)
	}
	return FromNRGBA(nrgba)
}

// FromNRGBA copies the RGB channels of an origin-anchored NRGBA image.
func FromNRGBA(src *image.NRGBA) *Image {
	b := src.Bounds()
	dst := New(b.Dx(), b.Dy(), RGB)
	for y := 0; y < dst.Height; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		o := dst.Offset(0, y)
		for x := 0; x < dst.Width; x++ {
			dst.Pix[o] = row[x*4]
			dst.Pix[o+1] = row[x*4+1]
			dst.Pix[o+2] = row[x*4+2]
			o += 3
		}
	}
	return dst
}

// FromGray copies a stdlib gray image into a single-channel buffer.
func FromGray(src *image.Gray) *Image {
	b := src.Bounds()
	dst := NewGray(b.Dx(), b.Dy())
	for y := 0; y < dst.Height; y++ {
		copy(dst.Pix[y*dst.Width:(y+1)*dst.Width], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return dst
}

// ToNRGBA renders the buffer as an opaque stdlib image.
// Gray buffers are replicated across RGB; HSV and Lab buffers are rejected.
func (m *Image) ToNRGBA() (*image.NRGBA, error) {
	dst := image.NewNRGBA(m.Bounds())
	switch m.Space {
	case RGB:
		for i, j := 0, 0; i < len(m.Pix); i, j = i+3, j+4 {
			dst.Pix[j] = m.Pix[i]
			dst.Pix[j+1] = m.Pix[i+1]
			dst.Pix[j+2] = m.Pix[i+2]
			dst.Pix[j+3] = 255
		}
	case Gray:
		for i, j := 0, 0; i < len(m.Pix); i, j = i+1, j+4 {
			v := m.Pix[i]
			dst.Pix[j] = v
			dst.Pix[j+1] = v
			dst.Pix[j+2] = v
			dst.Pix[j+3] = 255
		}
	default:
		return nil, fmt.Errorf("cannot render %s buffer directly", m.Space)
	}
	return dst, nil
}

// ToGray exposes a single-channel buffer as a stdlib gray image sharing the same pixels.
func (m *Image) ToGray() (*image.Gray, error) {
	if m.Space != Gray {
		return nil, fmt.Errorf("expected gray buffer, got %s", m.Space)
	}
	return &image.Gray{Pix: m.Pix, Stride: m.Width, Rect: m.Bounds()}, nil
}

// ToImage returns a stdlib view suitable for encoding.
func (m *Image) ToImage() (image.Image, error) {
	if m.Space == Gray {
		return m.ToGray()
	}
	return m.ToNRGBA()
}

// RGBAt returns the first three channels at (x, y).
func (m *Image) RGBAt(x, y int) color.RGBA {
	o := m.Offset(x, y)
	if m.Channels == 1 {
		v := m.Pix[o]
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}
	return color.RGBA{R: m.Pix[o], G: m.Pix[o+1], B: m.Pix[o+2], A: 255}
}

// ClampU8 clamps an int value to the uint8 range [0, 255].
func ClampU8(x int) uint8 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}

// ClampF rounds and clamps a float value to the uint8 range.
func ClampF(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Planes is a float64 planar buffer used for color-space round trips.
// HSV planes hold H in degrees [0,360) and S, V in [0,1]; Lab planes hold
// L in [0,1] and a, b scaled by 1/100.
type Planes struct {
	C      [3][]float64
	Width  int
	Height int
	Space  ColorSpace
}

// NewPlanes allocates zeroed planes.
func NewPlanes(width, height int, space ColorSpace) *Planes {
	p := &Planes{Width: width, Height: height, Space: space}
	for i := range p.C {
		p.C[i] = make([]float64, width*height)
	}
	return p
}
