// Package compare turns a (master, captured) image pair into the per-level
// error histogram the tolerance validator consumes. It is intentionally
// plain: no filtering, no alignment, no colour-space conversion.
package compare

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	"github.com/corona10/goimagehash"
	"github.com/nfnt/resize"
)

// Levels is the histogram length: one entry per 8-bit error level.
const Levels = 256

// ErrSizeMismatch indicates the two images do not have the same dimensions.
var ErrSizeMismatch = errors.New("image sizes differ")

// Decode reads a PNG or JPEG file.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open image %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode image %s: %w", path, err)
	}
	return img, nil
}

// ScaleTo resamples img to the size of ref. Masters recorded at another DPI
// are scaled this way before comparing; the tolerance table for that DPI
// ratio absorbs the resampling error. img is returned as is when the sizes
// already agree.
func ScaleTo(img, ref image.Image) image.Image {
	ib, rb := img.Bounds(), ref.Bounds()
	if ib.Dx() == rb.Dx() && ib.Dy() == rb.Dy() {
		return img
	}
	return resize.Resize(uint(rb.Dx()), uint(rb.Dy()), img, resize.Bilinear)
}

// Histogram returns, for every level L, the fraction of pixels whose largest
// channel error is at least L. Entry 0 is therefore 1 for any non-empty
// image, and the sequence never increases.
func Histogram(master, captured image.Image) ([]float64, error) {
	mb, cb := master.Bounds(), captured.Bounds()
	if mb.Dx() != cb.Dx() || mb.Dy() != cb.Dy() {
		return nil, fmt.Errorf("%w: master %dx%d, captured %dx%d", ErrSizeMismatch, mb.Dx(), mb.Dy(), cb.Dx(), cb.Dy())
	}

	var counts [Levels]int
	total := 0
	for y := 0; y < mb.Dy(); y++ {
		for x := 0; x < mb.Dx(); x++ {
			r1, g1, b1, a1 := master.At(mb.Min.X+x, mb.Min.Y+y).RGBA()
			r2, g2, b2, a2 := captured.At(cb.Min.X+x, cb.Min.Y+y).RGBA()
			e := max(channelDiff(r1, r2), channelDiff(g1, g2), channelDiff(b1, b2), channelDiff(a1, a2))
			counts[e]++
			total++
		}
	}

	hist := make([]float64, Levels)
	if total == 0 {
		return hist, nil
	}
	atLeast := 0
	for l := Levels - 1; l >= 0; l-- {
		atLeast += counts[l]
		hist[l] = float64(atLeast) / float64(total)
	}
	return hist, nil
}

// channelDiff compares two 16-bit channel values at 8-bit precision.
func channelDiff(a, b uint32) int {
	x, y := int(a>>8), int(b>>8)
	if x > y {
		return x - y
	}
	return y - x
}

// Diff is the result of comparing two images.
type Diff struct {
	Histogram []float64
	// HashDistance is the Hamming distance between perceptual hashes; 0
	// means the images look alike at a coarse scale. Informational only.
	HashDistance int
}

// Compute builds the histogram and the perceptual-hash distance of a pair.
func Compute(master, captured image.Image) (Diff, error) {
	hist, err := Histogram(master, captured)
	if err != nil {
		return Diff{}, err
	}
	dist, err := hashDistance(master, captured)
	if err != nil {
		return Diff{}, err
	}
	return Diff{Histogram: hist, HashDistance: dist}, nil
}

func hashDistance(a, b image.Image) (int, error) {
	ha, err := goimagehash.PerceptionHash(a)
	if err != nil {
		return 0, fmt.Errorf("perceptual hash: %w", err)
	}
	hb, err := goimagehash.PerceptionHash(b)
	if err != nil {
		return 0, fmt.Errorf("perceptual hash: %w", err)
	}
	return ha.Distance(hb)
}
