package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner executes the external tools behind recognition and document
// conversion: tesseract, pdftotext, pdftoppm and the HEIC converters.
// Tests stub it.
type Runner interface {
	Run(ctx context.Context, name string, logger *slog.Logger, args ...string) (stdout, stderr []byte, err error)
}

const defaultStderrCap = 8 << 10

// ExecOption configures an ExecRunner.
type ExecOption func(*ExecRunner)

// WithEnv adds KEY=VALUE pairs on top of the inherited environment.
func WithEnv(kv ...string) ExecOption {
	return func(r *ExecRunner) { r.env = append(r.env, kv...) }
}

// WithStderrCap bounds how much stderr a failure logs. n <= 0 keeps the default.
func WithStderrCap(n int) ExecOption {
	return func(r *ExecRunner) {
		if n > 0 {
			r.stderrCap = n
		}
	}
}

// ExecRunner runs tools with os/exec. Errors are returned unchanged; callers
// map exec.ErrNotFound to common.ErrEngineUnavailable.
type ExecRunner struct {
	env       []string
	stderrCap int
}

// NewExecRunner returns the os/exec backed Runner.
func NewExecRunner(opts ...ExecOption) *ExecRunner {
	r := &ExecRunner{stderrCap: defaultStderrCap}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ExecRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("tool", name)

	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	switch {
	case errors.Is(err, exec.ErrNotFound):
		logger.Warn("tool.missing", "error", err)
	case err != nil && ctx.Err() != nil:
		logger.Debug("tool.cancelled", "elapsed_ms", elapsed, "error", ctx.Err())
	case err != nil:
		logger.Warn("tool.failed",
			"args", strings.Join(args, " "),
			"elapsed_ms", elapsed,
			"error", err,
			"stderr", Truncate(stderr.String(), r.stderrCap),
		)
	default:
		logger.Debug("tool.ok",
			"args", strings.Join(args, " "),
			"elapsed_ms", elapsed,
			"stdout_bytes", stdout.Len(),
			"stderr_bytes", stderr.Len(),
		)
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// Truncate caps s at max bytes, backing off to a rune boundary.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
