//go:build gosseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/otiai10/gosseract/v2"
)

// Gosseract recognizes text in-process through libtesseract.
type Gosseract struct {
	tessdataDir string
	logger      *slog.Logger
}

// NewGosseract checks that libtesseract initialises and returns the recognizer.
func NewGosseract(tessdataDir string, logger *slog.Logger) (*Gosseract, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := gosseract.NewClient()
	defer c.Close()
	if tessdataDir != "" {
		if err := c.SetTessdataPrefix(tessdataDir); err != nil {
			return nil, fmt.Errorf("%w: tessdata prefix: %v", common.ErrEngineUnavailable, err)
		}
	}
	logger.Info("gosseract ready", "version", c.Version())
	return &Gosseract{tessdataDir: tessdataDir, logger: logger.With("engine", "gosseract")}, nil
}

// Recognize runs one configuration with a fresh client. libtesseract chooses
// the engine mode from the traineddata, so cfg.OEM is not applied here.
func (g *Gosseract) Recognize(ctx context.Context, img image.Image, cfg Configuration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}

	c := gosseract.NewClient()
	defer c.Close()
	if g.tessdataDir != "" {
		if err := c.SetTessdataPrefix(g.tessdataDir); err != nil {
			return "", fmt.Errorf("set tessdata: %w", err)
		}
	}
	if err := c.SetLanguage(strings.Split(cfg.Languages, "+")...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(cfg.PSM)); err != nil {
		return "", fmt.Errorf("set psm: %w", err)
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("gosseract %s: %w", cfg.Name, err)
	}
	return text, nil
}
