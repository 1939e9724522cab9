package filter

import (
	"fmt"

	"github.com/MeKo-Tech/stylizer/internal/raster"
	"github.com/disintegration/gift"
)

// Grayscale converts an RGB buffer to luminance (0.299 R + 0.587 G + 0.114 B).
// A gray buffer is returned as a copy.
func Grayscale(img *raster.Image) (*raster.Image, error) {
	if err := requireEightBit(img); err != nil {
		return nil, err
	}
	if img.Space == raster.Gray {
		return img.Clone(), nil
	}
	dst := raster.NewGray(img.Width, img.Height)
	for i, j := 0, 0; j < len(dst.Pix); i, j = i+3, j+1 {
		dst.Pix[j] = raster.ClampF(0.299*float64(img.Pix[i]) + 0.587*float64(img.Pix[i+1]) + 0.114*float64(img.Pix[i+2]))
	}
	return dst, nil
}

// Broadcast replicates a gray buffer into three identical RGB channels.
func Broadcast(gray *raster.Image) (*raster.Image, error) {
	if err := requireSpace(gray, raster.Gray); err != nil {
		return nil, err
	}
	dst := raster.New(gray.Width, gray.Height, raster.RGB)
	for i, v := range gray.Pix {
		dst.Pix[i*3] = v
		dst.Pix[i*3+1] = v
		dst.Pix[i*3+2] = v
	}
	return dst, nil
}

// EdgeParams configures edge-mask extraction.
type EdgeParams struct {
	Low, High float64 // hysteresis thresholds on the L1 gradient magnitude
	Dilate    int     // 3x3 dilation passes applied to the edge map
	Invert    bool    // emit 0 on edges and 255 elsewhere
}

// Canny detects edges in a gray buffer: 3x3 Sobel gradients, L1 magnitude,
// non-maximum suppression along the quantized gradient direction, then
// hysteresis tracking from pixels above high through 8-connected pixels above
// low. Edge pixels are 255, everything else 0.
func Canny(gray *raster.Image, low, high float64) (*raster.Image, error) {
	if err := requireSpace(gray, raster.Gray); err != nil {
		return nil, err
	}
	if low < 0 || high < 0 {
		return nil, fmt.Errorf("%w: canny thresholds must be non-negative", ErrInvalidParams)
	}
	if low > high {
		low, high = high, low
	}

	w, h := gray.Width, gray.Height
	at := func(x, y int) int {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return int(gray.Pix[y*w+x])
	}

	dx := make([]int, w*h)
	dy := make([]int, w*h)
	mag := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			i := y*w + x
			dx[i], dy[i] = gx, gy
			mag[i] = abs(gx) + abs(gy)
		}
	}
	magAt := func(x, y int) int {
		if x < 0 || x >= w || y < 0 || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		tan22 = 0.41421356 // tan(22.5°)
		tan67 = 2.41421356 // tan(67.5°)
	)
	const (
		notEdge uint8 = iota
		weak
		strong
	)
	state := make([]uint8, w*h)
	var stack []int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if float64(m) <= low {
				continue
			}
			ax, ay := float64(abs(dx[i])), float64(abs(dy[i]))
			var isMax bool
			switch {
			case ay < ax*tan22:
				isMax = m > magAt(x-1, y) && m >= magAt(x+1, y)
			case ay > ax*tan67:
				isMax = m > magAt(x, y-1) && m >= magAt(x, y+1)
			default:
				s := 1
				if (dx[i] < 0) != (dy[i] < 0) {
					s = -1
				}
				isMax = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
			}
			if !isMax {
				continue
			}
			if float64(m) > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				n := ny*w + nx
				if state[n] == weak {
					state[n] = strong
					stack = append(stack, n)
				}
			}
		}
	}

	dst := raster.NewGray(w, h)
	for i, s := range state {
		if s == strong {
			dst.Pix[i] = 255
		}
	}
	return dst, nil
}

// Dilate grows the bright regions of a gray buffer with a 3x3 maximum filter.
func Dilate(gray *raster.Image, iterations int) (*raster.Image, error) {
	if err := requireSpace(gray, raster.Gray); err != nil {
		return nil, err
	}
	out := gray.Clone()
	for i := 0; i < iterations; i++ {
		next, err := applyGift(out, gift.Maximum(3, false))
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// EdgeMask runs Canny over the luminance of img, dilates and optionally
// inverts the result, then broadcasts it to three channels. With Invert set
// the mask is suitable for AND-ing dark outlines into a color buffer.
func EdgeMask(img *raster.Image, p EdgeParams) (*raster.Image, error) {
	gray, err := Grayscale(img)
	if err != nil {
		return nil, err
	}
	edges, err := Canny(gray, p.Low, p.High)
	if err != nil {
		return nil, err
	}
	if p.Dilate > 0 {
		if edges, err = Dilate(edges, p.Dilate); err != nil {
			return nil, err
		}
	}
	if p.Invert {
		if edges, err = Invert(edges); err != nil {
			return nil, err
		}
	}
	return Broadcast(edges)
}

// AdaptiveThresholdMean binarizes a gray buffer against its local mean:
// a pixel becomes 255 when it is brighter than the mean of its block x block
// neighborhood minus c, otherwise 0.
func AdaptiveThresholdMean(gray *raster.Image, block int, c float64) (*raster.Image, error) {
	if err := requireSpace(gray, raster.Gray); err != nil {
		return nil, err
	}
	if block < 3 || block%2 == 0 {
		return nil, fmt.Errorf("%w: adaptive block size must be odd and >= 3, got %d", ErrInvalidParams, block)
	}
	mean, err := applyGift(gray, gift.Mean(block, false))
	if err != nil {
		return nil, err
	}
	dst := raster.NewGray(gray.Width, gray.Height)
	for i, v := range gray.Pix {
		if float64(v) > float64(mean.Pix[i])-c {
			dst.Pix[i] = 255
		}
	}
	return dst, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
