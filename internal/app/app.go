// Package app wires configuration into the extraction pipeline shared by
// the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core/cleanup"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core/ocr"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core/script"
	"github.com/joseph-ayodele/lyrics-extractor/internal/documents"
	"github.com/joseph-ayodele/lyrics-extractor/internal/lexicon"
	"github.com/joseph-ayodele/lyrics-extractor/internal/pipeline"
	"github.com/joseph-ayodele/lyrics-extractor/internal/repository"
	"github.com/joseph-ayodele/lyrics-extractor/internal/server"
)

// Components is the wired object graph.
type Components struct {
	Config     *common.Config
	Lexicon    *lexicon.Lexicon
	Recognizer ocr.Recognizer
	Corrector  *script.Corrector
	Cleaner    *cleanup.Cleaner
	Extractor  *core.Extractor
	Reader     *documents.Reader
	DB         *repository.DB // nil when DB_URL is unset
	Jobs       repository.JobRepository
	Processor  *pipeline.Processor
	Service    *server.Service

	logger *slog.Logger
}

// NewLogger builds the process logger at the given level.
func NewLogger(level string, json bool) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if json {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

// Build wires every component from cfg. Close releases what Build opened.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Components{Config: cfg, logger: logger}

	lex, err := lexicon.Load(cfg.Lexicon.File)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	c.Lexicon = lex
	logger.Info("lexicon loaded", "file", cfg.Lexicon.File, "entries", lex.Entries(), "vocabulary", len(lex.Vocabulary))

	var runnerOpts []ocr.ExecOption
	if cfg.OCR.Workers > 1 {
		// one OpenMP thread per tesseract process; the matrix supplies the parallelism
		runnerOpts = append(runnerOpts, ocr.WithEnv("OMP_THREAD_LIMIT=1"))
	}
	runner := ocr.NewExecRunner(runnerOpts...)
	switch cfg.OCR.Engine {
	case common.EngineGosseract:
		g, err := ocr.NewGosseract(cfg.OCR.TessdataDir, logger)
		if err != nil {
			return nil, err
		}
		c.Recognizer = g
	default:
		t := ocr.NewTesseract(ocr.TesseractConfig{
			Binary:      cfg.OCR.TesseractBin,
			TessdataDir: cfg.OCR.TessdataDir,
		}, runner, logger)
		if info, err := t.Probe(ctx); err != nil {
			logger.Warn("tesseract probe failed; image extraction will be unavailable", "error", err)
		} else {
			for _, lang := range []string{"hin", "eng"} {
				if !info.HasLanguage(lang) {
					logger.Warn("tesseract language missing", "lang", lang, "version", info.Version)
				}
			}
		}
		c.Recognizer = t
	}

	var svc script.Service = script.NoopService{}
	if cfg.Transliteration.Enabled {
		g, err := script.NewGoogleService(cfg.Transliteration.URL, cfg.Transliteration.Timeout, logger)
		if err != nil {
			return nil, fmt.Errorf("transliteration service: %w", err)
		}
		svc = g
	}
	c.Corrector = script.NewCorrector(lex, svc, cfg.Transliteration.Timeout, logger)
	c.Cleaner = cleanup.New(lex)

	c.Extractor = core.NewExtractor(c.Recognizer, logger,
		core.WithWorkers(cfg.OCR.Workers),
		core.WithLexicon(lex),
		core.WithCorrector(c.Corrector),
	)
	c.Reader = documents.NewReader(documents.Config{
		PDFToText:      cfg.OCR.PDFToTextBin,
		PDFToPPM:       cfg.OCR.PDFToPPMBin,
		HeicConverter:  cfg.OCR.HeicConverter,
		DPI:            cfg.OCR.PDFDPI,
		MaxPages:       cfg.OCR.PDFMaxPages,
		MinNativeChars: cfg.OCR.PDFMinNativeChars,
	}, c.Extractor, runner, logger)

	c.Jobs = repository.NopJobRepository{}
	if cfg.Database.DSN != "" {
		db, err := repository.Open(ctx, repository.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open job store: %w", err)
		}
		c.DB = db
		c.Jobs = repository.NewJobRepository(db, logger)
	} else {
		logger.Info("DB_URL not set; extraction jobs will not be recorded")
	}

	c.Processor = pipeline.NewProcessor(logger, pipeline.NewExtractStage(c.Jobs, c.Reader, logger))
	c.Processor.MaxBytes = int64(cfg.Server.BodyLimitMB) << 20
	c.Service = server.NewService(c.Processor, c.Corrector, c.Cleaner, c.Jobs, logger)
	return c, nil
}

// Ping checks the job store, if any.
func (c *Components) Ping(ctx context.Context) error {
	if c.DB == nil {
		return nil
	}
	return c.DB.HealthCheck(ctx, 3*time.Second, c.logger)
}

// Close releases the job store.
func (c *Components) Close() {
	if c.DB != nil {
		c.DB.Close(c.logger)
	}
}
