// Package documents turns uploaded files into text, routing images and
// scanned PDF pages through the recognition pipeline.
package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/lyrics-extractor/constants"
	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core/ocr"
)

// MinImageRunes is the longest image result still treated as no text.
const MinImageRunes = 5

// ImageExtractor is the part of core.Extractor the drivers need.
type ImageExtractor interface {
	ExtractImageBytes(ctx context.Context, data []byte) (core.Result, error)
}

// Document is the text extracted from one file.
type Document struct {
	Text     string
	Format   string // constants.IMAGE | PDF | DOCX | TXT
	Method   string // constants.Method*
	Pages    int
	Label    string  // winning recognition label, image paths only
	Score    float64 // winning score, image paths only
	Warnings []string
	Duration time.Duration
}

// Config locates the PDF tools and tunes the PDF fallback.
type Config struct {
	PDFToText      string // binary name or absolute path; if empty -> "pdftotext"
	PDFToPPM       string // binary name or absolute path; if empty -> "pdftoppm"
	HeicConverter  string // heif-convert | magick | sips
	DPI            int    // rasterisation DPI for scanned PDFs, default 300
	MaxPages       int    // pages rasterised for OCR, default 5
	MinNativeChars int    // embedded text must exceed this to skip OCR, default 50
	TempDir        string
}

// Reader dispatches a file to its format driver.
type Reader struct {
	cfg    Config
	images ImageExtractor
	runner ocr.Runner
	logger *slog.Logger
}

// NewReader creates a reader. A nil runner uses os/exec.
func NewReader(cfg Config, images ImageExtractor, runner ocr.Runner, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.NewExecRunner()
	}
	if cfg.PDFToText == "" {
		cfg.PDFToText = "pdftotext"
	}
	if cfg.PDFToPPM == "" {
		cfg.PDFToPPM = "pdftoppm"
	}
	if cfg.HeicConverter == "" {
		cfg.HeicConverter = "magick"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	if cfg.MinNativeChars <= 0 {
		cfg.MinNativeChars = 50
	}
	return &Reader{cfg: cfg, images: images, runner: runner, logger: logger}
}

// Detect maps a file name to its document format.
func Detect(filename string) (string, error) {
	ext := filepath.Ext(filename)
	format := constants.MapExtToFormat(ext)
	if format == "" {
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, constants.NormalizeExt(ext))
	}
	return format, nil
}

// Read extracts text from content. Empty output is reported as
// common.ErrNoText so callers can tell it apart from a failed read.
func (r *Reader) Read(ctx context.Context, filename string, content []byte) (Document, error) {
	start := time.Now()
	format, err := Detect(filename)
	if err != nil {
		return Document{}, err
	}
	if len(content) == 0 {
		return Document{Format: format}, fmt.Errorf("%w: empty file", common.ErrInvalidInput)
	}
	logger := common.LoggerFrom(ctx, r.logger).With("filename", filename, "format", format)
	logger.Info("documents.read.start", "bytes", len(content))

	var doc Document
	switch format {
	case constants.IMAGE:
		doc, err = r.readImage(ctx, filename, content)
	case constants.PDF:
		doc, err = r.readPDF(ctx, content, logger)
	case constants.DOCX:
		doc, err = readDOCX(content)
	case constants.TXT:
		doc, err = readText(content)
	}
	doc.Format = format
	doc.Duration = time.Since(start)
	if err == nil && doc.Text == "" {
		err = common.ErrNoText
	}
	if err != nil {
		if errors.Is(err, common.ErrNoText) {
			logger.Warn("documents.read.empty", "method", doc.Method, "warnings", len(doc.Warnings))
		} else {
			logger.Error("documents.read.failed", "method", doc.Method, "error", err)
		}
		return doc, err
	}
	logger.Info("documents.read.done",
		"method", doc.Method,
		"pages", doc.Pages,
		"chars", utf8.RuneCountInString(doc.Text),
		"duration_ms", doc.Duration.Milliseconds(),
	)
	return doc, nil
}

func (r *Reader) readImage(ctx context.Context, filename string, content []byte) (Document, error) {
	doc := Document{Method: constants.MethodImageOCR, Pages: 1}
	if constants.IsHEICExt(filepath.Ext(filename)) {
		png, warns, err := convertHEIC(ctx, r.runner, r.logger, r.cfg.HeicConverter, content, r.cfg.TempDir)
		doc.Warnings = append(doc.Warnings, warns...)
		if err != nil {
			return doc, err
		}
		content = png
	}
	res, err := r.images.ExtractImageBytes(ctx, content)
	if err != nil {
		return doc, err
	}
	doc.Label, doc.Score = res.Label, res.Score
	if n := utf8.RuneCountInString(strings.TrimSpace(res.Text)); n <= MinImageRunes {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("recognized only %d characters", n))
		return doc, fmt.Errorf("%w: %d characters recognized", common.ErrNoText, n)
	}
	doc.Text = res.Text
	return doc, nil
}
