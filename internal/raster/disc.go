package raster

// StampDisc fills a disc of the given radius centred on pixel (cx, cy) with value
// in every channel. Pixels outside the image are skipped.
// The disc covers offsets with dx²+dy² <= r(r+1), which reproduces the
// integer midpoint circle for small radii (r=2 gives a 5x5 block minus corners).
func StampDisc(img *Image, cx, cy, radius int, value uint8) {
	if img == nil || radius < 0 {
		return
	}
	minX := max(cx-radius, 0)
	maxX := min(cx+radius, img.Width-1)
	minY := max(cy-radius, 0)
	maxY := min(cy+radius, img.Height-1)

	r2 := radius * (radius + 1)
	for y := minY; y <= maxY; y++ {
		dy := y - cy
		for x := minX; x <= maxX; x++ {
			dx := x - cx
			if dx*dx+dy*dy > r2 {
				continue
			}
			o := img.Offset(x, y)
			for c := 0; c < img.Channels; c++ {
				img.Pix[o+c] = value
			}
		}
	}
}
