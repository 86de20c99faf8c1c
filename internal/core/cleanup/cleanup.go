// Package cleanup normalises the selected recognition text line by line.
package cleanup

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/lyrics-extractor/internal/lexicon"
)

// LineTransform rewrites a single non-blank, trimmed line.
type LineTransform func(string) string

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reDandaRun   = regexp.MustCompile(`।+`)
	reDoubleRun  = regexp.MustCompile(`॥+`)
)

// CollapseDoubledDanda turns paired danda marks into single ones.
func CollapseDoubledDanda(s string) string {
	s = strings.ReplaceAll(s, "।।", "।")
	return strings.ReplaceAll(s, "॥॥", "॥")
}

// CollapseSpaces squeezes tabs and space runs into one space.
func CollapseSpaces(s string) string {
	s = reTabs.ReplaceAllString(s, " ")
	return reMultiSpace.ReplaceAllString(s, " ")
}

// PipesToDanda maps the ASCII pipes OCR emits for danda marks. The double
// pipe goes first so it becomes a double danda.
func PipesToDanda(s string) string {
	s = strings.ReplaceAll(s, "||", "॥")
	return strings.ReplaceAll(s, "|", "।")
}

// CollapseDandaRuns reduces any run of one mark to a single mark.
func CollapseDandaRuns(s string) string {
	s = reDandaRun.ReplaceAllString(s, "।")
	return reDoubleRun.ReplaceAllString(s, "॥")
}

// FixLigatures returns a transform applying the lexicon's exact-string repairs
// until none match. The line is matched as is, never normalised. Every repair
// shortens the text, so this terminates.
func FixLigatures(ligs []lexicon.Ligature) LineTransform {
	return func(s string) string {
		for changed := true; changed; {
			changed = false
			for _, l := range ligs {
				if strings.Contains(s, l.From) {
					s = strings.ReplaceAll(s, l.From, l.To)
					changed = true
				}
			}
		}
		return s
	}
}

// Cleaner applies an ordered pipeline of line transforms.
type Cleaner struct {
	steps []LineTransform
}

// New builds the standard pipeline. A nil lexicon uses the embedded default.
func New(lex *lexicon.Lexicon) *Cleaner {
	if lex == nil {
		lex = lexicon.Default()
	}
	return NewPipeline(
		CollapseDoubledDanda,
		CollapseSpaces,
		PipesToDanda,
		CollapseDandaRuns,
		FixLigatures(lex.Ligatures),
	)
}

// NewPipeline builds a cleaner from explicit steps, applied left to right.
func NewPipeline(steps ...LineTransform) *Cleaner {
	return &Cleaner{steps: steps}
}

// Clean trims each line, drops blank ones, runs the pipeline and joins the
// result with newlines. Clean(Clean(x)) == Clean(x).
func (c *Cleaner) Clean(text string) string {
	text = reCRLF.ReplaceAllString(text, "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		for _, step := range c.steps {
			ln = step(ln)
		}
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Clean runs the standard pipeline with the embedded lexicon.
func Clean(text string) string {
	return defaultCleaner.Clean(text)
}

var defaultCleaner = New(nil)
