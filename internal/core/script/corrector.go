package script

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/lyrics-extractor/internal/lexicon"
)

var reLatinRun = regexp.MustCompile(`[a-zA-Z]+`)

// Corrector applies the per-line script repairs to a whole text.
type Corrector struct {
	classifier *Classifier
	local      *Transliterator
	svc        Service
	timeout    time.Duration
	logger     *slog.Logger
}

// NewCorrector wires the classifier, local table and remote service. A nil
// service behaves like NoopService; timeout <= 0 means 2s per remote call.
func NewCorrector(lex *lexicon.Lexicon, svc Service, timeout time.Duration, logger *slog.Logger) *Corrector {
	if lex == nil {
		lex = lexicon.Default()
	}
	if svc == nil {
		svc = NoopService{}
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Corrector{
		classifier: NewClassifier(lex),
		local:      NewTransliterator(lex),
		svc:        svc,
		timeout:    timeout,
		logger:     logger,
	}
}

// Classifier exposes the line classifier.
func (c *Corrector) Classifier() *Classifier { return c.classifier }

// Correct rewrites every line according to its class. Lines are trimmed and
// blank lines kept. It never fails; remote errors fall back to the local table.
func (c *Corrector) Correct(ctx context.Context, text string) string {
	lines := strings.Split(text, "\n")
	changed := 0
	for i, ln := range lines {
		ln = strings.TrimSpace(ln)
		out := c.CorrectLine(ctx, ln)
		if out != ln {
			changed++
		}
		lines[i] = out
	}
	if changed > 0 {
		c.logger.Info("script.correct.done", "lines", len(lines), "changed", changed)
	}
	return strings.Join(lines, "\n")
}

// CorrectLine handles a single trimmed line. Latin-only lines are normalised
// before classification; any line that is not converted is returned byte for byte.
func (c *Corrector) CorrectLine(ctx context.Context, line string) string {
	latin := lexicon.NormalizeLatin(line)
	class := c.classifier.Classify(latin)
	switch class {
	case Diacritic, PlainTransliteration:
		out := c.Transliterate(ctx, latin)
		c.logger.Debug("script.line.converted", "class", class.String(), "in", line, "out", out)
		return out
	case Mixed:
		return c.PatchMixed(line)
	default:
		return line
	}
}

// Transliterate asks the remote service, bounded by the per-call timeout, and
// falls back to the local table on any failure.
func (c *Corrector) Transliterate(ctx context.Context, text string) string {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.svc.Transliterate(callCtx, text)
	if err == nil && out != "" {
		return out
	}
	c.logger.Debug("script.remote.fallback", "error", err)
	return c.local.Transliterate(text)
}

// PatchMixed repairs Latin letters inside a Devanagari line. In mixed words
// each ASCII run is replaced by its local transliteration; whole Latin words
// are converted only if they look like transliteration on their own.
// Devanagari text is never touched.
func (c *Corrector) PatchMixed(line string) string {
	words := strings.Fields(line)
	for i, w := range words {
		var deva, latin bool
		for _, r := range w {
			if isDevanagari(r) {
				deva = true
			} else if isLatinLetter(r) {
				latin = true
			}
		}
		switch {
		case deva && latin:
			words[i] = reLatinRun.ReplaceAllStringFunc(w, func(run string) string {
				if hi := c.local.Transliterate(run); hi != "" && hi != run {
					return hi
				}
				return run
			})
		case latin:
			if w = lexicon.NormalizeLatin(w); c.classifier.LooksLikeTransliteration(w) {
				words[i] = c.local.Transliterate(w)
			}
		}
	}
	return strings.Join(words, " ")
}
