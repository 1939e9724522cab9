package filter

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/MeKo-Tech/stylizer/internal/raster"
)

// KMeansParams configures color quantization.
type KMeansParams struct {
	K        int     // number of clusters
	MaxIter  int     // iteration cap per attempt
	Epsilon  float64 // stop once no center moves further than this
	Attempts int     // independent restarts; the most compact result wins
	Seed     int64   // seed for center initialization
}

// DefaultKMeans returns the clustering criteria used by the built-in styles.
func DefaultKMeans(k int) KMeansParams {
	return KMeansParams{K: k, MaxIter: 20, Epsilon: 1.0, Attempts: 10, Seed: 1}
}

// Quantize clusters the pixel colors of img into at most p.K groups and
// replaces every pixel with its group's centroid (rounded). Clustering runs
// over the distinct colors weighted by their pixel counts, which is
// equivalent to clustering every pixel. Images with no more than K distinct
// colors are returned unchanged.
func Quantize(img *raster.Image, p KMeansParams) (*raster.Image, error) {
	if err := requireEightBit(img); err != nil {
		return nil, err
	}
	if p.K < 1 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidParams, p.K)
	}
	if p.MaxIter < 1 {
		p.MaxIter = 1
	}
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	ch := img.Channels
	index := make(map[uint32]int)
	labels := make([]int, img.Width*img.Height)
	var points [][3]float64
	var weights []float64
	for i := range labels {
		o := i * ch
		var key uint32
		var pt [3]float64
		for c := 0; c < ch; c++ {
			key = key<<8 | uint32(img.Pix[o+c])
			pt[c] = float64(img.Pix[o+c])
		}
		u, ok := index[key]
		if !ok {
			u = len(points)
			index[key] = u
			points = append(points, pt)
			weights = append(weights, 0)
		}
		weights[u]++
		labels[i] = u
	}
	if len(points) <= p.K {
		return img.Clone(), nil
	}

	rng := rand.New(rand.NewSource(p.Seed))
	var best [][3]float64
	var bestAssign []int
	bestCost := math.Inf(1)
	for a := 0; a < p.Attempts; a++ {
		centers, assign, cost := kmeans(points, weights, p, rng)
		if cost < bestCost {
			best, bestAssign, bestCost = centers, assign, cost
		}
	}

	palette := make([][3]uint8, len(best))
	for k, c := range best {
		for j := 0; j < ch; j++ {
			palette[k][j] = raster.ClampF(c[j])
		}
	}
	dst := raster.New(img.Width, img.Height, img.Space)
	for i, u := range labels {
		copy(dst.Pix[i*ch:(i+1)*ch], palette[bestAssign[u]][:ch])
	}
	return dst, nil
}

// kmeans runs one Lloyd attempt from a k-means++ seeding and returns the
// centers, the assignment of every point and the weighted compactness.
func kmeans(points [][3]float64, weights []float64, p KMeansParams, rng *rand.Rand) ([][3]float64, []int, float64) {
	centers := seedCenters(points, weights, p.K, rng)
	assign := make([]int, len(points))
	eps2 := p.Epsilon * p.Epsilon

	for iter := 0; iter < p.MaxIter; iter++ {
		for i, pt := range points {
			assign[i], _ = nearest(pt, centers)
		}

		sums := make([][3]float64, len(centers))
		counts := make([]float64, len(centers))
		for i, pt := range points {
			k := assign[i]
			w := weights[i]
			for c := range pt {
				sums[k][c] += pt[c] * w
			}
			counts[k] += w
		}

		shift := 0.0
		for k := range centers {
			if counts[k] == 0 {
				continue
			}
			var next [3]float64
			for c := range next {
				next[c] = sums[k][c] / counts[k]
			}
			shift = max(shift, dist2(next, centers[k]))
			centers[k] = next
		}
		if shift <= eps2 {
			break
		}
	}

	cost := 0.0
	for i, pt := range points {
		k, d := nearest(pt, centers)
		assign[i] = k
		cost += d * weights[i]
	}
	return centers, assign, cost
}

// seedCenters picks k initial centers with weighted k-means++ sampling.
func seedCenters(points [][3]float64, weights []float64, k int, rng *rand.Rand) [][3]float64 {
	centers := make([][3]float64, 0, k)
	centers = append(centers, points[pick(weights, rng)])

	d := make([]float64, len(points))
	for i, pt := range points {
		d[i] = dist2(pt, centers[0])
	}
	scores := make([]float64, len(points))
	for len(centers) < k {
		total := 0.0
		for i := range scores {
			scores[i] = d[i] * weights[i]
			total += scores[i]
		}
		if total == 0 {
			// Every point already coincides with a center.
			centers = append(centers, centers[len(centers)-1])
			continue
		}
		c := points[pick(scores, rng)]
		centers = append(centers, c)
		for i, pt := range points {
			d[i] = min(d[i], dist2(pt, c))
		}
	}
	return centers
}

// pick samples an index with probability proportional to its score.
func pick(scores []float64, rng *rand.Rand) int {
	total := 0.0
	for _, s := range scores {
		total += s
	}
	r := rng.Float64() * total
	for i, s := range scores {
		r -= s
		if r < 0 && s > 0 {
			return i
		}
	}
	for i := len(scores) - 1; i >= 0; i-- {
		if scores[i] > 0 {
			return i
		}
	}
	return 0
}

func nearest(pt [3]float64, centers [][3]float64) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for k, c := range centers {
		if d := dist2(pt, c); d < bestD {
			best, bestD = k, d
		}
	}
	return best, bestD
}

func dist2(a, b [3]float64) float64 {
	dr, dg, db := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dr*dr + dg*dg + db*db
}
