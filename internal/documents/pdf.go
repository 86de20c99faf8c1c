package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/lyrics-extractor/constants"
	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
)

// readPDF prefers the embedded text layer and falls back to rasterising
// the first pages and running each through the image pipeline.
func (r *Reader) readPDF(ctx context.Context, content []byte, logger *slog.Logger) (Document, error) {
	tmpDir, err := os.MkdirTemp(r.cfg.TempDir, "lx-pdf-*")
	if err != nil {
		return Document{Method: constants.MethodPDFText}, fmt.Errorf("pdf temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	path := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return Document{Method: constants.MethodPDFText}, fmt.Errorf("pdf stage input: %w", err)
	}

	var warns []string
	text, pages, w, err := r.pdfToText(ctx, path)
	warns = append(warns, w...)
	if err != nil {
		if errors.Is(err, common.ErrEngineUnavailable) {
			return Document{Method: constants.MethodPDFText, Warnings: warns}, err
		}
		warns = append(warns, err.Error())
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) > r.cfg.MinNativeChars {
		return Document{
			Text:     strings.TrimSpace(text),
			Method:   constants.MethodPDFText,
			Pages:    pages,
			Warnings: warns,
		}, nil
	}
	logger.Info("documents.pdf.ocr_fallback", "native_chars", utf8.RuneCountInString(strings.TrimSpace(text)))

	doc, err := r.pdfToOCR(ctx, path, tmpDir, logger)
	doc.Warnings = append(warns, doc.Warnings...)
	return doc, err
}

func (r *Reader) pdfToText(ctx context.Context, path string) (string, int, []string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := r.runner.Run(ctx, r.cfg.PDFToText, r.logger, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", 0, nil, fmt.Errorf("%w: %s: %v", common.ErrEngineUnavailable, r.cfg.PDFToText, err)
		}
		return "", 0, stderrWarning(errb), fmt.Errorf("pdftotext: %w", err)
	}
	text := string(out)
	// form feed separates pages
	pages := 1 + strings.Count(strings.TrimRight(text, "\f"), "\f")
	return strings.ReplaceAll(text, "\f", "\n"), pages, nil, nil
}

func (r *Reader) pdfToOCR(ctx context.Context, path, tmpDir string, logger *slog.Logger) (Document, error) {
	doc := Document{Method: constants.MethodPDFOCR}
	prefix := filepath.Join(tmpDir, "page")

	// pdftoppm -r 300 -f 1 -l 5 -png <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.PDFToPPM, r.logger,
		"-r", strconv.Itoa(r.cfg.DPI),
		"-f", "1", "-l", strconv.Itoa(r.cfg.MaxPages),
		"-png", path, prefix)
	if err != nil {
		doc.Warnings = stderrWarning(errb)
		if errors.Is(err, exec.ErrNotFound) {
			return doc, fmt.Errorf("%w: %s: %v", common.ErrEngineUnavailable, r.cfg.PDFToPPM, err)
		}
		return doc, fmt.Errorf("pdftoppm: %w", err)
	}

	// prefix-1.png, prefix-2.png, ... zero padded by page count
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) > r.cfg.MaxPages {
		matches = matches[:r.cfg.MaxPages]
	}
	if len(matches) == 0 {
		doc.Warnings = append(doc.Warnings, "pdftoppm produced no images")
		return doc, common.ErrNoText
	}
	doc.Pages = len(matches)

	var parts []string
	for i, img := range matches {
		data, err := os.ReadFile(img)
		if err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("page %d: %v", i+1, err))
			continue
		}
		res, err := r.images.ExtractImageBytes(ctx, data)
		if err != nil {
			if errors.Is(err, common.ErrEngineUnavailable) || ctx.Err() != nil {
				return doc, err
			}
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("page %d: %v", i+1, err))
			continue
		}
		if res.Score > doc.Score {
			doc.Label, doc.Score = res.Label, res.Score
		}
		parts = append(parts, res.Text)
	}
	doc.Text = strings.Join(parts, "\n\n")
	if doc.Text == "" {
		return doc, common.ErrNoText
	}
	return doc, nil
}
