// Package preprocess derives the fixed set of image variants fed to the
// recognition matrix.
package preprocess

import (
	"image"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
)

// Variant names, in generation order.
const (
	Original         = "original"
	Upscaled         = "upscaled"
	EnhancedContrast = "enhanced_contrast"
	Combined         = "combined"
)

// Names lists the variant names in the order Generate returns them.
var Names = []string{Original, Upscaled, EnhancedContrast, Combined}

// Variant is one preprocessed rendition of the source image.
type Variant struct {
	Name  string
	Image *image.NRGBA
}

// Options tunes the transforms. Zero fields take the defaults.
type Options struct {
	MinWidth   int     // upscale when narrower than this
	MinHeight  int     // or shorter than this
	MinFactor  float64 // smallest upscale factor once upscaling applies
	ClipLimit  float64 // CLAHE clip limit
	TileGrid   int     // CLAHE tiles per axis
	Diameter   int     // bilateral neighbourhood diameter
	SigmaColor float64
	SigmaSpace float64
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		MinWidth:   1500,
		MinHeight:  1000,
		MinFactor:  2.0,
		ClipLimit:  3.0,
		TileGrid:   8,
		Diameter:   9,
		SigmaColor: 75,
		SigmaSpace: 75,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinWidth <= 0 {
		o.MinWidth = d.MinWidth
	}
	if o.MinHeight <= 0 {
		o.MinHeight = d.MinHeight
	}
	if o.MinFactor <= 0 {
		o.MinFactor = d.MinFactor
	}
	if o.ClipLimit <= 0 {
		o.ClipLimit = d.ClipLimit
	}
	if o.TileGrid <= 0 {
		o.TileGrid = d.TileGrid
	}
	if o.Diameter <= 0 {
		o.Diameter = d.Diameter
	}
	if o.SigmaColor <= 0 {
		o.SigmaColor = d.SigmaColor
	}
	if o.SigmaSpace <= 0 {
		o.SigmaSpace = d.SigmaSpace
	}
	return o
}

// sharpenKernel is a 3x3 high-pass kernel that keeps overall brightness.
var sharpenKernel = [9]float64{
	-1, -1, -1,
	-1, 9, -1,
	-1, -1, -1,
}

// Generator produces variants. It holds no per-call state and is safe for
// concurrent use.
type Generator struct {
	opts   Options
	logger *slog.Logger
}

// NewGenerator creates a generator. A nil logger uses slog.Default().
func NewGenerator(opts Options, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{opts: opts.withDefaults(), logger: logger}
}

// Generate returns the four variants with the default options.
func Generate(img image.Image) []Variant {
	return NewGenerator(DefaultOptions(), nil).Generate(img)
}

// Generate returns original, upscaled, enhanced_contrast and combined, in
// that order. The input is never modified and no variant is smaller than it.
func (g *Generator) Generate(img image.Image) []Variant {
	src := imaging.Clone(img)
	enhanced := g.enhanceContrast(src)

	out := []Variant{
		{Name: Original, Image: src},
		{Name: Upscaled, Image: g.upscale(src)},
		{Name: EnhancedContrast, Image: enhanced},
		{Name: Combined, Image: g.combine(enhanced)},
	}
	b := src.Bounds()
	g.logger.Debug("preprocess.variants", "width", b.Dx(), "height", b.Dy(), "count", len(out))
	return out
}

// UpscaleFactor returns the scale applied to a w x h image, or 1 when it is
// already large enough.
func (g *Generator) UpscaleFactor(w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 1
	}
	if w >= g.opts.MinWidth && h >= g.opts.MinHeight {
		return 1
	}
	return math.Max(math.Max(float64(g.opts.MinWidth)/float64(w), float64(g.opts.MinHeight)/float64(h)), g.opts.MinFactor)
}

func (g *Generator) upscale(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	f := g.UpscaleFactor(b.Dx(), b.Dy())
	if f == 1 {
		return imaging.Clone(src)
	}
	w := int(float64(b.Dx()) * f)
	h := int(float64(b.Dy()) * f)
	return imaging.Resize(src, w, h, imaging.Lanczos)
}

func (g *Generator) enhanceContrast(src *image.NRGBA) *image.NRGBA {
	return equalizeLuma(src, g.opts.ClipLimit, g.opts.TileGrid)
}

// combine sharpens then smooths an already contrast-enhanced image.
func (g *Generator) combine(enhanced *image.NRGBA) *image.NRGBA {
	b := enhanced.Bounds()
	if b.Empty() {
		return imaging.Clone(enhanced)
	}
	sharp := imaging.Convolve3x3(enhanced, sharpenKernel, nil)
	return bilateral(sharp, g.opts.Diameter, g.opts.SigmaColor, g.opts.SigmaSpace)
}
