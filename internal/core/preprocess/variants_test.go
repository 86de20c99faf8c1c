package preprocess

import (
	"image"
	"image/color"
	"testing"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*7 + y*3) % 256)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

func TestGenerateOrderAndSizes(t *testing.T) {
	src := gradient(120, 80)
	before := append([]uint8(nil), src.Pix...)

	vs := Generate(src)
	if len(vs) != 4 {
		t.Fatalf("expected 4 variants, got %d", len(vs))
	}
	for i, v := range vs {
		if v.Name != Names[i] {
			t.Errorf("variant %d name = %q, want %q", i, v.Name, Names[i])
		}
		b := v.Image.Bounds()
		if b.Dx() < 120 || b.Dy() < 80 {
			t.Errorf("%s shrank to %v", v.Name, b)
		}
	}

	// 120x80 needs max(1500/120, 1000/80, 2) = 12.5
	if b := vs[1].Image.Bounds(); b.Dx() != 1500 || b.Dy() != 1000 {
		t.Errorf("upscaled size = %v, want 1500x1000", b)
	}
	for i := range before {
		if src.Pix[i] != before[i] {
			t.Fatal("source image was mutated")
		}
	}
}

func TestUpscaleFactor(t *testing.T) {
	g := NewGenerator(Options{}, nil)
	tests := []struct {
		w, h int
		want float64
	}{
		{2000, 1200, 1},
		{1400, 1200, 2},
		{500, 1000, 3},
		{100, 100, 15},
		{0, 10, 1},
	}
	for _, tt := range tests {
		if got := g.UpscaleFactor(tt.w, tt.h); got != tt.want {
			t.Errorf("UpscaleFactor(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestLargeImageNotUpscaled(t *testing.T) {
	g := NewGenerator(Options{MinWidth: 10, MinHeight: 10}, nil)
	vs := g.Generate(gradient(20, 20))
	if b := vs[1].Image.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("expected clone, got %v", b)
	}
}

func TestGenerateEmptyImage(t *testing.T) {
	vs := Generate(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	if len(vs) != 4 {
		t.Fatalf("expected 4 variants, got %d", len(vs))
	}
	for _, v := range vs {
		if !v.Image.Bounds().Empty() {
			t.Errorf("%s should be empty", v.Name)
		}
	}
}

func TestCLAHEStretchesFlatContrast(t *testing.T) {
	// Low-contrast plane: values 100..115.
	w, h := 64, 64
	plane := make([]uint8, w*h)
	for i := range plane {
		plane[i] = uint8(100 + i%16)
	}
	out := clahe(plane, w, h, 3.0, 8)
	lo, hi := uint8(255), uint8(0)
	for _, v := range out {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if int(hi)-int(lo) <= 15 {
		t.Fatalf("expected wider range than input, got %d..%d", lo, hi)
	}
}

func TestBilateralKeepsUniformImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 40, 80, 120, 255
	}
	out := bilateral(img, 9, 75, 75)
	for i := range out.Pix {
		if out.Pix[i] != img.Pix[i] {
			t.Fatalf("pixel byte %d changed: %d -> %d", i, img.Pix[i], out.Pix[i])
		}
	}
}

func TestEqualizeLumaPreservesAlpha(t *testing.T) {
	src := gradient(10, 10)
	src.Pix[3] = 7
	out := equalizeLuma(src, 3, 8)
	if out.Pix[3] != 7 {
		t.Fatalf("alpha = %d, want 7", out.Pix[3])
	}
}
