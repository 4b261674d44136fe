package imageproc

import (
	"errors"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"colorpalette/internal/kmeans"
)

const (
	DefaultMaxSize    = 300
	DefaultMaxSamples = 1000
)

var ErrEmptyImage = errors.New("image has no pixels")

// Options bounds how much of an image is sampled.
type Options struct {
	// MaxSize is the longest side the image is scaled down to before sampling.
	MaxSize int
	// MaxSamples is the approximate sample budget; the stride is derived from it.
	MaxSamples int
}

func DefaultOptions() Options {
	return Options{MaxSize: DefaultMaxSize, MaxSamples: DefaultMaxSamples}
}

// Fit scales img so that its longer side is at most maxSize, keeping the
// aspect ratio. Smaller images are returned unchanged.
func Fit(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	switch {
	case width > height && width > maxSize:
		height = int(math.Round(float64(maxSize) * float64(height) / float64(width)))
		width = maxSize
	case height > maxSize:
		width = int(math.Round(float64(maxSize) * float64(width) / float64(height)))
		height = maxSize
	default:
		return img
	}
	width, height = max(width, 1), max(height, 1)

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Sample walks img on a square grid whose stride keeps the sample count near
// budget. Alpha is dropped from the straight (non-premultiplied) colour, so
// translucent pixels keep their channel values.
func Sample(img image.Image, budget int) []kmeans.Color {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}
	skip := max(1, int(math.Ceil(float64(width*height)/float64(max(budget, 1)))))

	samples := make([]kmeans.Color, 0, ((height+skip-1)/skip)*((width+skip-1)/skip))
	for y := b.Min.Y; y < b.Max.Y; y += skip {
		for x := b.Min.X; x < b.Max.X; x += skip {
			samples = append(samples, rgbAt(img, x, y))
		}
	}
	return samples
}

// SampleImage fits img within opts.MaxSize and samples it.
func SampleImage(img image.Image, opts Options) ([]kmeans.Color, error) {
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = DefaultMaxSamples
	}
	return Sample(Fit(img, opts.MaxSize), opts.MaxSamples), nil
}

func rgbAt(img image.Image, x, y int) kmeans.Color {
	if m, ok := img.(*image.NRGBA); ok {
		c := m.NRGBAAt(x, y)
		return kmeans.Color{R: c.R, G: c.G, B: c.B}
	}
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return kmeans.Color{R: c.R, G: c.G, B: c.B}
}
