package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core/ocr"
)

// convertHEIC converts HEIC/HEIF bytes to PNG bytes with an external converter.
// converter: "heif-convert" | "magick" | "sips"
func convertHEIC(ctx context.Context, r ocr.Runner, logger *slog.Logger, converter string, content []byte, tempDir string) ([]byte, []string, error) {
	tmpDir, err := os.MkdirTemp(tempDir, "lx-heic-*")
	if err != nil {
		return nil, nil, fmt.Errorf("heic temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	in := filepath.Join(tmpDir, "page.heic")
	out := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(in, content, 0o600); err != nil {
		return nil, nil, fmt.Errorf("heic stage input: %w", err)
	}

	var args []string
	switch converter {
	case "heif-convert", "magick":
		args = []string{in, out}
	case "sips":
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		return nil, nil, fmt.Errorf("%w: HEIC needs HEIC_CONVERTER set to heif-convert | magick | sips", common.ErrUnsupportedFormat)
	}

	if _, errb, err := r.Run(ctx, converter, logger, args...); err != nil {
		warns := stderrWarning(errb)
		if errors.Is(err, exec.ErrNotFound) {
			return nil, warns, fmt.Errorf("%w: %s: %v", common.ErrEngineUnavailable, converter, err)
		}
		return nil, warns, fmt.Errorf("%s convert failed: %w", converter, err)
	}

	png, err := os.ReadFile(out)
	if err != nil {
		return nil, nil, fmt.Errorf("HEIC conversion produced no output: %w", err)
	}
	return png, nil, nil
}

func stderrWarning(errb []byte) []string {
	s := strings.TrimSpace(string(errb))
	if s == "" {
		return nil
	}
	return []string{ocr.Truncate(s, 512)}
}
