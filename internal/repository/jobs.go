package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/lyrics-extractor/constants"
	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
)

// Job is one row of extract_jobs.
type Job struct {
	ID           uuid.UUID
	RequestID    string
	Filename     string
	Format       string
	Status       constants.JobStatus
	Method       string
	Label        string
	Score        float64
	Pages        int
	Text         string
	Warnings     []string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Outcome is what a successful extraction records on its job.
type Outcome struct {
	Text     string
	Method   string
	Label    string
	Score    float64
	Pages    int
	Warnings []string
}

type JobRepository interface {
	Start(ctx context.Context, filename, format string) (*Job, error)
	Finish(ctx context.Context, jobID uuid.UUID, out Outcome) error
	// Fail records a terminal status, FAILED or EMPTY.
	Fail(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, message string) error
	Get(ctx context.Context, jobID uuid.UUID) (*Job, error)
	List(ctx context.Context, limit int) ([]Job, error)
}

type jobRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewJobRepository(db *DB, log *slog.Logger) JobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &jobRepo{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (r *jobRepo) Start(ctx context.Context, filename, format string) (*Job, error) {
	job := &Job{
		ID:        uuid.New(),
		RequestID: common.RequestIDFromContext(ctx),
		Filename:  filename,
		Format:    format,
		Status:    constants.JobStatusRunning,
		StartedAt: r.now(),
	}
	_, err := r.db.SQL.ExecContext(ctx, r.db.rebind(
		`INSERT INTO extract_jobs (id, request_id, filename, format, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`),
		job.ID.String(), job.RequestID, job.Filename, job.Format, string(job.Status), job.StartedAt)
	if err != nil {
		r.log.Error("extract_job start failed", "filename", filename, "err", err)
		return nil, fmt.Errorf("%w: start job: %v", common.ErrDatabase, err)
	}
	r.log.Info("extract_job started", "job_id", job.ID, "filename", filename, "format", format)
	return job, nil
}

func (r *jobRepo) Finish(ctx context.Context, jobID uuid.UUID, out Outcome) error {
	warns, err := json.Marshal(nonNil(out.Warnings))
	if err != nil {
		return fmt.Errorf("%w: encode warnings: %v", common.ErrInternal, err)
	}
	res, err := r.db.SQL.ExecContext(ctx, r.db.rebind(
		`UPDATE extract_jobs SET status = ?, method = ?, label = ?, score = ?, pages = ?, text = ?, warnings = ?, finished_at = ? WHERE id = ?`),
		string(constants.JobStatusOK), out.Method, out.Label, out.Score, out.Pages, out.Text, string(warns), r.now(), jobID.String())
	if err := affectedOne(res, err, jobID); err != nil {
		r.log.Error("extract_job finish(OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished (OK)", "job_id", jobID, "method", out.Method, "label", out.Label)
	return nil
}

func (r *jobRepo) Fail(ctx context.Context, jobID uuid.UUID, status constants.JobStatus, message string) error {
	if status != constants.JobStatusFailed && status != constants.JobStatusEmpty {
		return fmt.Errorf("%w: terminal status must be FAILED or EMPTY, got %q", common.ErrInvalidInput, status)
	}
	res, err := r.db.SQL.ExecContext(ctx, r.db.rebind(
		`UPDATE extract_jobs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`),
		string(status), message, r.now(), jobID.String())
	if err := affectedOne(res, err, jobID); err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished", "job_id", jobID, "status", status, "error", message)
	return nil
}

const jobColumns = `id, request_id, filename, format, status, method, label, score, pages, text, warnings, error_message, started_at, finished_at`

func (r *jobRepo) Get(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.rebind(`SELECT `+jobColumns+` FROM extract_jobs WHERE id = ?`), jobID.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: job %s", common.ErrNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get job: %v", common.ErrDatabase, err)
	}
	return job, nil
}

func (r *jobRepo) List(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT `+jobColumns+` FROM extract_jobs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list jobs: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan job: %v", common.ErrDatabase, err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list jobs: %v", common.ErrDatabase, err)
	}
	return jobs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*Job, error) {
	var (
		job      Job
		id       string
		status   string
		warnings string
		finished sql.NullTime
	)
	if err := s.Scan(&id, &job.RequestID, &job.Filename, &job.Format, &status, &job.Method, &job.Label,
		&job.Score, &job.Pages, &job.Text, &warnings, &job.ErrorMessage, &job.StartedAt, &finished); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("bad job id %q: %w", id, err)
	}
	job.ID = parsed
	job.Status = constants.JobStatus(status)
	if warnings != "" {
		if err := json.Unmarshal([]byte(warnings), &job.Warnings); err != nil {
			return nil, fmt.Errorf("bad warnings for %s: %w", id, err)
		}
	}
	if finished.Valid {
		t := finished.Time
		job.FinishedAt = &t
	}
	return &job, nil
}

func affectedOne(res sql.Result, err error, jobID uuid.UUID) error {
	if err != nil {
		return fmt.Errorf("%w: update job: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update job: %v", common.ErrDatabase, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: job %s", common.ErrNotFound, jobID)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// NopJobRepository discards everything; used when DB_URL is unset.
type NopJobRepository struct{}

func (NopJobRepository) Start(ctx context.Context, filename, format string) (*Job, error) {
	return &Job{ID: uuid.New(), Filename: filename, Format: format, Status: constants.JobStatusRunning, StartedAt: time.Now().UTC()}, nil
}
func (NopJobRepository) Finish(context.Context, uuid.UUID, Outcome) error { return nil }
func (NopJobRepository) Fail(context.Context, uuid.UUID, constants.JobStatus, string) error {
	return nil
}
func (NopJobRepository) Get(context.Context, uuid.UUID) (*Job, error) {
	return nil, fmt.Errorf("%w: job store disabled", common.ErrNotFound)
}
func (NopJobRepository) List(context.Context, int) ([]Job, error) { return nil, nil }
