package compare

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestHistogram_IdenticalImages(t *testing.T) {
	a := solid(4, 4, color.RGBA{10, 20, 30, 255})
	hist, err := Histogram(a, a)
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	if len(hist) != Levels {
		t.Fatalf("len=%d want %d", len(hist), Levels)
	}
	if hist[0] != 1 {
		t.Fatalf("level 0 should be 1, got %v", hist[0])
	}
	for l := 1; l < Levels; l++ {
		if hist[l] != 0 {
			t.Fatalf("level %d should be 0, got %v", l, hist[l])
		}
	}
}

func TestHistogram_CumulativeFractions(t *testing.T) {
	master := solid(2, 2, color.RGBA{100, 100, 100, 255})
	captured := solid(2, 2, color.RGBA{100, 100, 100, 255})
	captured.Set(0, 0, color.RGBA{110, 100, 100, 255}) // error 10
	captured.Set(1, 0, color.RGBA{100, 100, 130, 255}) // error 30

	hist, err := Histogram(master, captured)
	if err != nil {
		t.Fatal(err)
	}
	checks := map[int]float64{0: 1, 1: 0.5, 10: 0.5, 11: 0.25, 30: 0.25, 31: 0}
	for l, want := range checks {
		if hist[l] != want {
			t.Errorf("level %d: got %v want %v", l, hist[l], want)
		}
	}
}

func TestHistogram_SizeMismatch(t *testing.T) {
	_, err := Histogram(solid(2, 2, color.White), solid(3, 2, color.White))
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
}

func TestScaleTo(t *testing.T) {
	small := solid(4, 4, color.RGBA{0, 128, 0, 255})
	ref := solid(6, 6, color.Black)

	scaled := ScaleTo(small, ref)
	if b := scaled.Bounds(); b.Dx() != 6 || b.Dy() != 6 {
		t.Fatalf("scaled to %dx%d, want 6x6", b.Dx(), b.Dy())
	}
	hist, err := Histogram(scaled, solid(6, 6, color.RGBA{0, 128, 0, 255}))
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	if hist[2] != 0 {
		t.Fatalf("solid colour should survive scaling, hist[2]=%v", hist[2])
	}

	if got := ScaleTo(ref, ref); got != image.Image(ref) {
		t.Fatal("same-size image should be returned unchanged")
	}
}

func TestCompute_AndDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, solid(16, 16, color.RGBA{0, 0, 255, 255})); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	img, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	d, err := Compute(img, img)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if d.HashDistance != 0 {
		t.Fatalf("identical images should have hash distance 0, got %d", d.HashDistance)
	}
}
