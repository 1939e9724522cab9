// Package sample renders deterministic photo-like landscapes used as inputs
// for demos and tests.
package sample

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/stylizer/internal/filter"
	"github.com/MeKo-Tech/stylizer/internal/imageio"
	"github.com/MeKo-Tech/stylizer/internal/raster"
	"github.com/aquilax/go-perlin"
)

// Params controls the generated scene.
type Params struct {
	Width  int
	Height int
	Seed   int64
	// Scale is the noise wavelength in pixels for the hill texture.
	Scale float64
	// Soften is the sigma of the final blur; 0 disables it.
	Soften float64
}

// DefaultParams returns a 640x480 scene.
func DefaultParams() Params {
	return Params{Width: 640, Height: 480, Seed: 1, Scale: 24, Soften: 0.6}
}

type rgb struct{ r, g, b float64 }

var (
	skyTop     = rgb{70, 130, 200}
	skyHorizon = rgb{190, 215, 240}
	sunCore    = rgb{255, 240, 200}
	farHill    = rgb{90, 120, 140}
	nearHill   = rgb{60, 120, 50}
)

// Landscape renders a sky gradient with a sun, a distant ridge and a textured
// foreground hill.
func Landscape(p Params) (*raster.Image, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("invalid sample size %dx%d", p.Width, p.Height)
	}
	if p.Scale <= 0 {
		p.Scale = DefaultParams().Scale
	}

	// alpha: persistence, beta: lacunarity, n: octaves
	ridge := perlin.NewPerlin(2.0, 2.0, 3, p.Seed)
	grain := perlin.NewPerlin(1.5, 2.0, 4, p.Seed+1)

	w, h := float64(p.Width), float64(p.Height)
	sunX, sunY := 0.75*w, 0.25*h
	sunR := 0.08 * math.Min(w, h)

	img := raster.New(p.Width, p.Height, raster.RGB)
	for x := 0; x < p.Width; x++ {
		fx := float64(x)
		farTop := h * (0.55 + 0.1*ridge.Noise1D(fx/(p.Scale*6)))
		nearTop := h * (0.72 + 0.08*ridge.Noise1D(fx/(p.Scale*4)+17.3))

		for y := 0; y < p.Height; y++ {
			fy := float64(y)
			var c rgb
			switch {
			case fy >= nearTop:
				n := (grain.Noise2D(fx/p.Scale, fy/p.Scale) + 1) / 2
				c = scale(nearHill, 0.8+0.4*n)
			case fy >= farTop:
				// Haze towards the ridge line.
				t := (fy - farTop) / math.Max(nearTop-farTop, 1)
				c = mix(skyHorizon, farHill, 0.6+0.4*t)
			default:
				c = mix(skyTop, skyHorizon, fy/h)
				d := math.Hypot(fx-sunX, fy-sunY)
				if d <= sunR {
					c = sunCore
				} else if halo := sunR * 2.5; d < halo {
					c = mix(c, sunCore, math.Pow(1-(d-sunR)/(halo-sunR), 2))
				}
			}
			o := img.Offset(x, y)
			img.Pix[o] = raster.ClampF(c.r)
			img.Pix[o+1] = raster.ClampF(c.g)
			img.Pix[o+2] = raster.ClampF(c.b)
		}
	}

	if p.Soften > 0 {
		return filter.GaussianBlur(img, p.Soften)
	}
	return img, nil
}

// Write renders a landscape and saves it to path.
func Write(path string, p Params) error {
	img, err := Landscape(p)
	if err != nil {
		return err
	}
	return imageio.Save(img, path)
}

func mix(a, b rgb, t float64) rgb {
	return rgb{a.r + (b.r-a.r)*t, a.g + (b.g-a.g)*t, a.b + (b.b-a.b)*t}
}

func scale(c rgb, k float64) rgb {
	return rgb{c.r * k, c.g * k, c.b * k}
}
