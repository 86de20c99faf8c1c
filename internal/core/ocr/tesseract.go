package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
)

// TesseractConfig locates the tesseract binary and its language data.
type TesseractConfig struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
	TempDir     string // where page images are staged; "" uses os.TempDir
}

// Tesseract recognizes text by running the tesseract CLI.
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

// NewTesseract creates a CLI recognizer. A nil runner uses os/exec.
func NewTesseract(cfg TesseractConfig, runner Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger.With("engine", "tesseract")}
}

// Recognize stages img as a PNG and runs
// tesseract <png> stdout -l <langs> --oem N --psm M.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, cfg Configuration) (string, error) {
	f, err := os.CreateTemp(t.cfg.TempDir, "lyrics-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("stage image: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil {
			t.logger.Warn("failed to remove staged image", "path", path, "error", err)
		}
	}()
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("stage image: %w", err)
	}

	out, errb, err := t.runner.Run(ctx, t.cfg.Binary, t.logger, t.args(path, cfg)...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s: %v", common.ErrEngineUnavailable, t.cfg.Binary, err)
		}
		return "", fmt.Errorf("tesseract %s: %w: %s", cfg.Name, err, Truncate(strings.TrimSpace(string(errb)), 512))
	}
	return string(out), nil
}

func (t *Tesseract) args(path string, cfg Configuration) []string {
	args := []string{path, "stdout", "-l", cfg.Languages,
		"--oem", strconv.Itoa(cfg.OEM),
		"--psm", strconv.Itoa(cfg.PSM),
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}

// EngineInfo describes the installed engine.
type EngineInfo struct {
	Version   string
	Languages []string
}

// HasLanguage reports whether lang is installed.
func (e EngineInfo) HasLanguage(lang string) bool {
	for _, l := range e.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Probe checks that the binary runs and lists its installed languages.
func (t *Tesseract) Probe(ctx context.Context) (EngineInfo, error) {
	out, errb, err := t.runner.Run(ctx, t.cfg.Binary, t.logger, "--version")
	if err != nil {
		return EngineInfo{}, fmt.Errorf("%w: %s --version: %v", common.ErrEngineUnavailable, t.cfg.Binary, err)
	}
	// Older builds print the banner on stderr.
	banner := string(out)
	if strings.TrimSpace(banner) == "" {
		banner = string(errb)
	}
	info := EngineInfo{Version: strings.TrimSpace(strings.SplitN(banner, "\n", 2)[0])}

	args := []string{"--list-langs"}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	out, errb, err = t.runner.Run(ctx, t.cfg.Binary, t.logger, args...)
	if err != nil {
		return info, fmt.Errorf("%w: list languages: %v", common.ErrEngineUnavailable, err)
	}
	listing := string(out)
	if strings.TrimSpace(listing) == "" {
		listing = string(errb)
	}
	for _, ln := range strings.Split(listing, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "List of") {
			continue
		}
		info.Languages = append(info.Languages, ln)
	}
	return info, nil
}
