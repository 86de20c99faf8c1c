package ocr

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core/preprocess"
)

// MinCandidateRunes is the trimmed length a raw text must exceed to count.
const MinCandidateRunes = 10

// Candidate is one kept recognition result.
type Candidate struct {
	Label   string // variant + "_" + configuration
	Variant string
	Config  string
	Text    string // trimmed raw text
	Raw     string // untrimmed recognizer output, what the scorer sees
	Order   int    // discovery order: variant index * len(configs) + config index
	Score   float64
}

// Failure records an invocation that errored.
type Failure struct {
	Label string
	Err   error
}

// Matrix runs every configuration against every variant.
type Matrix struct {
	rec     Recognizer
	configs []Configuration
	workers int
	logger  *slog.Logger
}

// MatrixOption configures a Matrix.
type MatrixOption func(*Matrix)

// WithWorkers bounds concurrent invocations.
func WithWorkers(n int) MatrixOption {
	return func(m *Matrix) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithConfigurations replaces the catalog, mainly for tests.
func WithConfigurations(cfgs []Configuration) MatrixOption {
	return func(m *Matrix) {
		if len(cfgs) > 0 {
			m.configs = cfgs
		}
	}
}

// NewMatrix creates a matrix over the default catalog with 4 workers.
func NewMatrix(rec Recognizer, logger *slog.Logger, opts ...MatrixOption) *Matrix {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Matrix{rec: rec, configs: Catalog(), workers: 4, logger: logger}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Configurations returns the sweep this matrix runs.
func (m *Matrix) Configurations() []Configuration { return m.configs }

type slot struct {
	text string
	err  error
}

// Run invokes the recognizer len(variants)*len(configs) times. Individual
// failures are returned in the failure list and never stop the sweep. The
// error is non-nil only when ctx ends or the engine is unavailable for every
// invocation. Candidates come back in discovery order.
func (m *Matrix) Run(ctx context.Context, variants []preprocess.Variant) ([]Candidate, []Failure, error) {
	start := time.Now()
	n := len(variants) * len(m.configs)
	slots := make([]slot, n)

	var g errgroup.Group
	g.SetLimit(m.workers)
	for vi, v := range variants {
		for ci, cfg := range m.configs {
			idx := vi*len(m.configs) + ci
			img := v.Image
			cfg := cfg // per-iteration copy (go 1.21 loop semantics)
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					slots[idx].err = err
					return nil
				}
				text, err := m.rec.Recognize(ctx, img, cfg)
				slots[idx] = slot{text: text, err: err}
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var (
		cands       []Candidate
		fails       []Failure
		unavailable int
	)
	for vi, v := range variants {
		for ci, cfg := range m.configs {
			idx := vi*len(m.configs) + ci
			label := Label(v.Name, cfg)
			s := slots[idx]
			if s.err != nil {
				if errors.Is(s.err, common.ErrEngineUnavailable) {
					unavailable++
				}
				m.logger.Warn("ocr invocation failed", "label", label, "error", s.err)
				fails = append(fails, Failure{Label: label, Err: s.err})
				continue
			}
			text := strings.TrimSpace(s.text)
			if utf8.RuneCountInString(text) <= MinCandidateRunes {
				m.logger.Debug("ocr result discarded", "label", label, "chars", utf8.RuneCountInString(text))
				continue
			}
			cands = append(cands, Candidate{
				Label:   label,
				Variant: v.Name,
				Config:  cfg.Name,
				Text:    text,
				Raw:     s.text,
				Order:   idx,
			})
		}
	}

	if n > 0 && unavailable == n {
		return nil, fails, fails[0].Err
	}
	m.logger.Info("ocr.matrix.done",
		"invocations", n,
		"candidates", len(cands),
		"failures", len(fails),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return cands, fails, nil
}
