// Package core runs the multi-variant recognition pipeline on a single image:
// preprocess, recognise under every configuration, score, select, clean and
// repair script confusions.
package core

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core/cleanup"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core/ocr"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core/preprocess"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core/scoring"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core/script"
	"github.com/joseph-ayodele/lyrics-extractor/internal/lexicon"
)

// Result is the outcome of one extraction call.
type Result struct {
	Text       string
	Label      string  // winning variant_configuration
	Score      float64 // winning score, comparable only within this call
	Candidates []ocr.Candidate
	Failures   []ocr.Failure
	Duration   time.Duration
}

// Extractor is safe for concurrent use.
type Extractor struct {
	variants  *preprocess.Generator
	matrix    *ocr.Matrix
	scorer    *scoring.Scorer
	cleaner   *cleanup.Cleaner
	corrector *script.Corrector
	logger    *slog.Logger
}

// Option configures an Extractor.
type Option func(*extractorOptions)

type extractorOptions struct {
	workers    int
	preprocess preprocess.Options
	profile    scoring.Profile
	lex        *lexicon.Lexicon
	corrector  *script.Corrector
	noCorrect  bool
}

// WithWorkers bounds concurrent recognizer calls per image.
func WithWorkers(n int) Option { return func(o *extractorOptions) { o.workers = n } }

// WithPreprocess overrides the variant transform settings.
func WithPreprocess(p preprocess.Options) Option {
	return func(o *extractorOptions) { o.preprocess = p }
}

// WithProfile overrides the scoring weights.
func WithProfile(p scoring.Profile) Option { return func(o *extractorOptions) { o.profile = p } }

// WithLexicon overrides the embedded lexicon.
func WithLexicon(l *lexicon.Lexicon) Option { return func(o *extractorOptions) { o.lex = l } }

// WithCorrector sets the script corrector. Without one, a corrector with no
// remote service is used.
func WithCorrector(c *script.Corrector) Option { return func(o *extractorOptions) { o.corrector = c } }

// WithoutCorrection skips script repair entirely.
func WithoutCorrection() Option { return func(o *extractorOptions) { o.noCorrect = true } }

// NewExtractor builds the pipeline around rec.
func NewExtractor(rec ocr.Recognizer, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	o := extractorOptions{workers: 4, profile: scoring.DefaultProfile()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.lex == nil {
		o.lex = lexicon.Default()
	}
	e := &Extractor{
		variants: preprocess.NewGenerator(o.preprocess, logger),
		matrix:   ocr.NewMatrix(rec, logger, ocr.WithWorkers(o.workers)),
		scorer:   scoring.NewScorer(o.profile, o.lex),
		cleaner:  cleanup.New(o.lex),
		logger:   logger,
	}
	if !o.noCorrect {
		e.corrector = o.corrector
		if e.corrector == nil {
			e.corrector = script.NewCorrector(o.lex, script.NoopService{}, 0, logger)
		}
	}
	return e
}

// ExtractImageBytes decodes an encoded image (PNG, JPEG, GIF, BMP, TIFF or
// WEBP, EXIF orientation applied) and extracts it.
func (e *Extractor) ExtractImageBytes(ctx context.Context, data []byte) (Result, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("%w: decode image: %v", common.ErrInvalidInput, err)
	}
	return e.ExtractImage(ctx, img)
}

// ExtractImage returns the best cleaned and script-corrected text. It fails
// with common.ErrNoText when no candidate survives or the final text is empty,
// and with common.ErrEngineUnavailable when the recognizer cannot run at all.
func (e *Extractor) ExtractImage(ctx context.Context, img image.Image) (Result, error) {
	start := time.Now()
	logger := common.LoggerFrom(ctx, e.logger)

	variants := e.variants.Generate(img)
	cands, fails, err := e.matrix.Run(ctx, variants)
	res := Result{Failures: fails}
	if err != nil {
		res.Duration = time.Since(start)
		return res, fmt.Errorf("recognize: %w", err)
	}

	e.scorer.ScoreAll(cands)
	res.Candidates = scoring.Rank(cands)
	best, err := scoring.Select(res.Candidates)
	if err != nil {
		res.Duration = time.Since(start)
		logger.Warn("extract.no_candidates", "failures", len(fails))
		return res, err
	}
	res.Label, res.Score = best.Label, best.Score

	text := e.cleaner.Clean(best.Text)
	if e.corrector != nil {
		text = e.corrector.Correct(ctx, text)
	}
	res.Text = strings.TrimSpace(text)
	res.Duration = time.Since(start)
	if res.Text == "" {
		return res, fmt.Errorf("empty after cleanup: %w", common.ErrNoText)
	}

	logger.Info("extract.done",
		"label", res.Label,
		"score", res.Score,
		"candidates", len(res.Candidates),
		"failures", len(res.Failures),
		"chars", utf8.RuneCountInString(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
