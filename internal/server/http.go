package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/export"
	"github.com/joseph-ayodele/lyrics-extractor/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HTTPConfig tunes the fiber app.
type HTTPConfig struct {
	CORSOrigins string
	BodyLimitMB int
}

type textRequest struct {
	Text string `json:"text"`
}

type sheetRequest struct {
	Title  string             `json:"title"`
	Lyrics []export.LyricRow `json:"lyrics"`
}

type jobResponse struct {
	ID         string     `json:"id"`
	RequestID  string     `json:"request_id,omitempty"`
	Filename   string     `json:"filename"`
	Format     string     `json:"format"`
	Status     string     `json:"status"`
	Method     string     `json:"method,omitempty"`
	Label      string     `json:"label,omitempty"`
	Score      float64    `json:"score"`
	Pages      int        `json:"pages"`
	Warnings   []string   `json:"warnings,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewHTTPApp builds the REST surface of the service.
func NewHTTPApp(svc *Service, cfg HTTPConfig, logger *slog.Logger) *fiber.App {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BodyLimitMB <= 0 {
		cfg.BodyLimitMB = 25
	}
	if cfg.CORSOrigins == "" {
		cfg.CORSOrigins = "*"
	}

	app := fiber.New(fiber.Config{
		AppName:               "lyrics-extractor",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
		BodyLimit:             cfg.BodyLimitMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: func() string { return uuid.NewString() },
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods:  "GET, POST, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))
	app.Use(func(c *fiber.Ctx) error {
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			c.SetUserContext(common.WithRequestID(c.UserContext(), rid))
		}
		start := time.Now()
		err := c.Next()
		logger.Info("http.request",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", common.RequestIDFromContext(c.UserContext()),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return err
	})

	h := &httpHandlers{svc: svc, logger: logger}
	app.Get("/health", h.health)
	app.Post("/extract-text", h.extractText)
	app.Post("/transliterate", h.transliterate)
	app.Post("/parse-text", h.parseText)
	app.Post("/generate-csv", h.generateCSV)
	app.Post("/generate-xlsx", h.generateXLSX)
	app.Get("/jobs", h.listJobs)
	app.Get("/jobs/:id", h.getJob)
	return app
}

type httpHandlers struct {
	svc    *Service
	logger *slog.Logger
}

func (h *httpHandlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy", "message": "Lyrics extractor API is running"})
}

func (h *httpHandlers) extractText(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: No file provided", common.ErrInvalidInput)
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("%w: open upload: %v", common.ErrInvalidInput, err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("%w: read upload: %v", common.ErrInvalidInput, err)
	}

	res, err := h.svc.ExtractText(c.UserContext(), fh.Filename, content)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"extracted_text": res.Text,
		"job_id":         res.JobID.String(),
		"format":         res.Format,
		"method":         res.Method,
		"label":          res.Label,
		"score":          res.Score,
		"pages":          res.Pages,
		"warnings":       res.Warnings,
	})
}

func (h *httpHandlers) transliterate(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: invalid JSON body", common.ErrInvalidInput)
	}
	out, err := h.svc.Transliterate(c.UserContext(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"hindi_text": out})
}

func (h *httpHandlers) parseText(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: invalid JSON body", common.ErrInvalidInput)
	}
	parsed, rows, err := h.svc.ParseText(c.UserContext(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"parsed_text": parsed, "lyrics": rows})
}

func (h *httpHandlers) generateCSV(c *fiber.Ctx) error {
	var req sheetRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: invalid JSON body", common.ErrInvalidInput)
	}
	out, err := h.svc.GenerateCSV(c.UserContext(), req.Title, req.Lyrics)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"csv_content": out})
}

func (h *httpHandlers) generateXLSX(c *fiber.Ctx) error {
	var req sheetRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: invalid JSON body", common.ErrInvalidInput)
	}
	out, err := h.svc.GenerateXLSX(c.UserContext(), req.Title, req.Lyrics)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="lyrics.xlsx"`)
	return c.Send(out)
}

func (h *httpHandlers) getJob(c *fiber.Ctx) error {
	job, err := h.svc.Job(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toJobResponse(*job))
}

func (h *httpHandlers) listJobs(c *fiber.Ctx) error {
	jobs, err := h.svc.Jobs(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return err
	}
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	return c.JSON(fiber.Map{"jobs": out})
}

func toJobResponse(j repository.Job) jobResponse {
	return jobResponse{
		ID:         j.ID.String(),
		RequestID:  j.RequestID,
		Filename:   j.Filename,
		Format:     j.Format,
		Status:     string(j.Status),
		Method:     j.Method,
		Label:      j.Label,
		Score:      j.Score,
		Pages:      j.Pages,
		Warnings:   j.Warnings,
		Error:      j.ErrorMessage,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
	}
}

// errorHandler renders errors as {"detail": ...} with a status derived from
// the error class.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, detail := httpStatus(err)
		if code >= fiber.StatusInternalServerError {
			logger.Error("http.error", "path", c.Path(), "status", code, "error", err)
		}
		return c.Status(code).JSON(fiber.Map{"detail": detail})
	}
}

func httpStatus(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, common.ErrNoText):
		return fiber.StatusBadRequest, "No text could be extracted from the file"
	case errors.Is(err, common.ErrUnsupportedFormat):
		return fiber.StatusBadRequest, "Unsupported file type: " + unwrapDetail(err)
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return fiber.StatusBadRequest, unwrapDetail(err)
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, common.ErrEngineUnavailable):
		return fiber.StatusServiceUnavailable, "Text extraction failed: " + err.Error()
	default:
		return fiber.StatusInternalServerError, "Text extraction failed: " + err.Error()
	}
}

// unwrapDetail drops the sentinel prefix from "sentinel: detail" messages.
func unwrapDetail(err error) string {
	for _, sentinel := range []error{common.ErrUnsupportedFormat, common.ErrInvalidInput, common.ErrValidation} {
		prefix := sentinel.Error() + ": "
		if msg := err.Error(); len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return err.Error()
}
