package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/documents"
	"github.com/joseph-ayodele/lyrics-extractor/internal/repository"
)

// Processor runs one document through extraction and job bookkeeping.
type Processor struct {
	Logger  *slog.Logger
	Extract *ExtractStage
	// MaxBytes caps files read from disk; 0 means no cap.
	MaxBytes int64
}

func NewProcessor(logger *slog.Logger, extract *ExtractStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Extract: extract}
}

// ProcessDocument extracts text from an uploaded file.
func (p *Processor) ProcessDocument(ctx context.Context, filename string, content []byte) (*repository.Job, documents.Document, error) {
	ctx, _ = common.EnsureRequestID(ctx)
	logger := common.LoggerFrom(ctx, p.Logger)

	job, doc, err := p.Extract.Run(ctx, filename, content)
	if err != nil {
		logger.Error("processor.extract.failed", "filename", filename, "err", err)
		return job, doc, err
	}
	logger.Info("processor.extract.ok",
		"filename", filename,
		"job_id", job.ID,
		"method", doc.Method,
		"pages", doc.Pages,
		"label", doc.Label,
		"score", doc.Score,
	)
	return job, doc, nil
}

// ProcessFile reads path from disk and processes it.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*repository.Job, documents.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, documents.Document{}, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if info.IsDir() {
		return nil, documents.Document{}, fmt.Errorf("%w: %s is a directory", common.ErrInvalidInput, path)
	}
	if p.MaxBytes > 0 && info.Size() > p.MaxBytes {
		return nil, documents.Document{}, fmt.Errorf("%w: %s exceeds %d bytes", common.ErrInvalidInput, path, p.MaxBytes)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, documents.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return p.ProcessDocument(ctx, filepath.Base(path), content)
}
