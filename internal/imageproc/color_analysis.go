package imageproc

import (
	"image"
	"image/color"
	"sort"

	"gonum.org/v1/gonum/floats"

	"colorpalette/internal/kmeans"
)

// Swatch describes one cluster of a palette.
type Swatch struct {
	Color      kmeans.Color `json:"-"`
	Hex        string       `json:"hex"`
	Count      int          `json:"count"`
	Proportion float64      `json:"proportion"`
	Hue        float64      `json:"hue"`
	Saturation float64      `json:"saturation"`
}

// Palette is the presentable view of a clustering state.
type Palette struct {
	Iteration int      `json:"iteration"`
	Converged bool     `json:"converged"`
	Inertia   float64  `json:"inertia"`
	Swatches  []Swatch `json:"swatches"`
}

// Describe builds the palette of s, one swatch per centroid in centroid order.
// Before the first step every count is zero.
func Describe(s *kmeans.State) Palette {
	centroids := s.Centroids()
	counts := s.Counts()

	proportions := make([]float64, len(counts))
	for i, n := range counts {
		proportions[i] = float64(n)
	}
	if total := floats.Sum(proportions); total > 0 {
		floats.Scale(1/total, proportions)
	}

	swatches := make([]Swatch, len(centroids))
	for i, c := range centroids {
		h, sat, _ := c.Colorful().Hsl()
		swatches[i] = Swatch{
			Color:      c,
			Hex:        c.Hex(),
			Count:      counts[i],
			Proportion: proportions[i],
			Hue:        normalizeHue(h),
			Saturation: clamp01(sat),
		}
	}

	return Palette{
		Iteration: s.Iteration(),
		Converged: s.Converged(),
		Inertia:   inertia(s.Samples(), centroids, s.Clusters()),
		Swatches:  swatches,
	}
}

// Dominant returns the swatches ordered by proportion, largest first.
// Equal proportions keep centroid order.
func (p Palette) Dominant() []Swatch {
	indices := make([]int, len(p.Swatches))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return p.Swatches[indices[i]].Proportion > p.Swatches[indices[j]].Proportion
	})

	sorted := make([]Swatch, len(indices))
	for newIdx, oldIdx := range indices {
		sorted[newIdx] = p.Swatches[oldIdx]
	}
	return sorted
}

// RenderStrip draws the palette as a horizontal strip. Swatch widths follow
// member counts, or are equal when nothing has been assigned yet.
func RenderStrip(p Palette, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if len(p.Swatches) == 0 {
		return img
	}

	weights := make([]float64, len(p.Swatches))
	for i, sw := range p.Swatches {
		weights[i] = float64(sw.Count)
	}
	if floats.Sum(weights) == 0 {
		for i := range weights {
			weights[i] = 1
		}
	}
	cumulative := make([]float64, len(weights))
	floats.CumSum(cumulative, weights)
	total := cumulative[len(cumulative)-1]

	x0 := 0
	for i, sw := range p.Swatches {
		x1 := int(cumulative[i] / total * float64(width))
		if i == len(p.Swatches)-1 {
			x1 = width
		}
		fill := color.RGBA{R: sw.Color.R, G: sw.Color.G, B: sw.Color.B, A: 255}
		for y := 0; y < height; y++ {
			for x := x0; x < x1; x++ {
				img.SetRGBA(x, y, fill)
			}
		}
		x0 = x1
	}
	return img
}

// inertia is the sum of squared member to centroid distances.
func inertia(samples, centroids []kmeans.Color, clusters [][]int) float64 {
	dists := make([]float64, 0, len(samples))
	for c, members := range clusters {
		for _, idx := range members {
			d := kmeans.Distance(samples[idx], centroids[c])
			dists = append(dists, d*d)
		}
	}
	return floats.Sum(dists)
}

// normalizeHue maps hue into [0, 360).
func normalizeHue(hue float64) float64 {
	if hue >= 360.0 || hue < 0 {
		return 0
	}
	return hue
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	} else if v > 1.0 {
		return 1.0
	}
	return v
}
