// Package server exposes extraction over HTTP (fiber) and gRPC.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/documents"
	"github.com/joseph-ayodele/lyrics-extractor/internal/export"
	"github.com/joseph-ayodele/lyrics-extractor/internal/repository"
)

// MaxTextRunes bounds free-text request bodies.
const MaxTextRunes = 100_000

// DocumentProcessor is satisfied by *pipeline.Processor.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, filename string, content []byte) (*repository.Job, documents.Document, error)
}

// Transliterator is satisfied by *script.Corrector.
type Transliterator interface {
	Transliterate(ctx context.Context, text string) string
}

// TextCleaner is satisfied by *cleanup.Cleaner.
type TextCleaner interface {
	Clean(text string) string
}

// Extraction is the transport-neutral result of ExtractText.
type Extraction struct {
	JobID    uuid.UUID
	Text     string
	Format   string
	Method   string
	Label    string
	Score    float64
	Pages    int
	Warnings []string
}

// Service holds the operations both transports serve.
type Service struct {
	proc     DocumentProcessor
	translit Transliterator
	cleaner  TextCleaner
	jobs     repository.JobRepository
	logger   *slog.Logger
}

func NewService(proc DocumentProcessor, translit Transliterator, cleaner TextCleaner, jobs repository.JobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if jobs == nil {
		jobs = repository.NopJobRepository{}
	}
	return &Service{proc: proc, translit: translit, cleaner: cleaner, jobs: jobs, logger: logger}
}

// ExtractText runs an uploaded file through the document pipeline.
func (s *Service) ExtractText(ctx context.Context, filename string, content []byte) (Extraction, error) {
	v := common.NewValidator().
		Field("filename", filename, common.Required()).
		Field("file", content, common.Required())
	if err := v.Error(); err != nil {
		return Extraction{}, err
	}
	if _, err := documents.Detect(filename); err != nil {
		return Extraction{}, err
	}

	s.logger.Info("extract.request", "filename", filename, "bytes", len(content))
	job, doc, err := s.proc.ProcessDocument(ctx, filename, content)
	out := Extraction{
		Text:     doc.Text,
		Format:   doc.Format,
		Method:   doc.Method,
		Label:    doc.Label,
		Score:    doc.Score,
		Pages:    doc.Pages,
		Warnings: doc.Warnings,
	}
	if job != nil {
		out.JobID = job.ID
	}
	return out, err
}

// Transliterate converts romanised text to Devanagari line by line.
// Blank lines are preserved.
func (s *Service) Transliterate(ctx context.Context, text string) (string, error) {
	if err := common.NewValidator().Field("text", text, common.MaxRunes(MaxTextRunes)).Error(); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines[i] = s.translit.Transliterate(ctx, strings.TrimSpace(line))
	}
	return strings.Join(lines, "\n"), nil
}

// ParseText normalises pasted text the same way extracted text is cleaned
// and splits it into lyric rows.
func (s *Service) ParseText(_ context.Context, text string) (string, []export.LyricRow, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil, fmt.Errorf("%w: No text provided", common.ErrInvalidInput)
	}
	if err := common.NewValidator().Field("text", text, common.MaxRunes(MaxTextRunes)).Error(); err != nil {
		return "", nil, err
	}
	parsed := s.cleaner.Clean(text)
	return parsed, export.SplitVerses(parsed), nil
}

// GenerateCSV renders a lyric sheet as CSV.
func (s *Service) GenerateCSV(_ context.Context, title string, rows []export.LyricRow) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: No lyrics data provided", common.ErrInvalidInput)
	}
	return export.CSV(title, rows), nil
}

// GenerateXLSX renders a lyric sheet as an XLSX workbook.
func (s *Service) GenerateXLSX(ctx context.Context, title string, rows []export.LyricRow) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: No lyrics data provided", common.ErrInvalidInput)
	}
	return export.XLSX(ctx, title, rows, s.logger)
}

// Job returns one recorded extraction.
func (s *Service) Job(ctx context.Context, id string) (*repository.Job, error) {
	jobID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%w: job id must be a UUID", common.ErrInvalidInput)
	}
	return s.jobs.Get(ctx, jobID)
}

// Jobs lists recent extractions, newest first.
func (s *Service) Jobs(ctx context.Context, limit int) ([]repository.Job, error) {
	return s.jobs.List(ctx, limit)
}
