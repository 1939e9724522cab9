// Package style describes each rendering style as an ordered list of filter
// steps. A generic executor (see internal/pipeline) applies the steps to a
// Canvas; adding a style means adding a record, not code.
package style

import (
	"fmt"

	"github.com/MeKo-Tech/stylizer/internal/raster"
)

// Canvas carries the buffers a style works on.
type Canvas struct {
	// Source is the bounded input image; steps read it but never replace it.
	Source *raster.Image
	// Work is the buffer being stylized. It starts as a copy of Source.
	Work *raster.Image
	// Mask holds the most recent edge or threshold mask, broadcast to three channels.
	Mask *raster.Image
}

// NewCanvas prepares a canvas for src.
func NewCanvas(src *raster.Image) *Canvas {
	return &Canvas{Source: src, Work: src.Clone()}
}

// Target selects which canvas buffer a mask step reads.
type Target string

const (
	FromSource Target = "source"
	FromWork   Target = "work"
)

func (c *Canvas) read(t Target) (*raster.Image, error) {
	switch t {
	case FromSource:
		return c.Source, nil
	case FromWork, "":
		return c.Work, nil
	default:
		return nil, fmt.Errorf("unknown buffer %q (want %q or %q)", t, FromSource, FromWork)
	}
}

func (c *Canvas) mask() (*raster.Image, error) {
	if c.Mask == nil {
		return nil, fmt.Errorf("no mask on canvas; add a canny_mask or adaptive_mask step first")
	}
	return c.Mask, nil
}
