package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/lyrics-extractor/constants"
	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/documents"
	"github.com/joseph-ayodele/lyrics-extractor/internal/repository"
)

// DocumentReader is satisfied by *documents.Reader.
type DocumentReader interface {
	Read(ctx context.Context, filename string, content []byte) (documents.Document, error)
}

type ExtractStage struct {
	JobsRepo repository.JobRepository
	Reader   DocumentReader
	Logger   *slog.Logger
}

func NewExtractStage(jobs repository.JobRepository, reader DocumentReader, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	if jobs == nil {
		jobs = repository.NopJobRepository{}
	}
	return &ExtractStage{JobsRepo: jobs, Reader: reader, Logger: logger}
}

// Run starts an extract_job, reads the document, and records the outcome.
// The job ID is returned even when extraction fails.
func (s *ExtractStage) Run(ctx context.Context, filename string, content []byte) (*repository.Job, documents.Document, error) {
	format, err := documents.Detect(filename)
	if err != nil {
		return nil, documents.Document{}, err
	}

	job, err := s.JobsRepo.Start(ctx, filename, format)
	if err != nil {
		return nil, documents.Document{}, err
	}
	ctx = common.WithJobID(ctx, job.ID)

	doc, err := s.Reader.Read(ctx, filename, content)
	if err != nil {
		status := constants.JobStatusFailed
		if errors.Is(err, common.ErrNoText) {
			status = constants.JobStatusEmpty
		}
		if ferr := s.JobsRepo.Fail(ctx, job.ID, status, err.Error()); ferr != nil {
			s.Logger.Warn("failed to record job failure", "job_id", job.ID, "error", ferr)
		}
		job.Status = status
		job.ErrorMessage = err.Error()
		return job, doc, err
	}

	out := repository.Outcome{
		Text:     doc.Text,
		Method:   doc.Method,
		Label:    doc.Label,
		Score:    doc.Score,
		Pages:    doc.Pages,
		Warnings: doc.Warnings,
	}
	if err := s.JobsRepo.Finish(ctx, job.ID, out); err != nil {
		return job, doc, err
	}
	job.Status = constants.JobStatusOK
	job.Method, job.Label, job.Score, job.Pages, job.Text, job.Warnings = doc.Method, doc.Label, doc.Score, doc.Pages, doc.Text, doc.Warnings
	return job, doc, nil
}
