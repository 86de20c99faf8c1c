package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/lyrics-extractor/internal/app"
	"github.com/joseph-ayodele/lyrics-extractor/internal/async"
	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/export"
	"github.com/joseph-ayodele/lyrics-extractor/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type sheet struct {
	path string
	text string
}

func main() {
	var (
		dir      = flag.String("dir", "", "directory of lyric sheets to process (required)")
		out      = flag.String("out", "", "output XLSX path (defaults to <dir>/lyrics.xlsx)")
		csvOut   = flag.String("csv", "", "also write a combined CSV to this path")
		workers  = flag.Int("workers", 2, "documents processed concurrently")
		hidden   = flag.Bool("hidden", false, "include hidden files and directories")
		watch    = flag.Bool("watch", false, "keep running and process files as they appear")
		translit = flag.Bool("translit", true, "use the remote transliteration service")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(*dir, "lyrics.xlsx")
	}

	cfg := common.LoadConfig()
	cfg.Transliteration.Enabled = *translit
	logger := app.NewLogger(cfg.LogLevel, true)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	var (
		mu     sync.Mutex
		sheets []sheet
		failed int
	)
	queue := async.NewProcessorQueue(c.Processor, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(64),
		async.WithProcessTimeout(5*time.Minute),
		async.WithResultHandler(func(r async.Result) {
			mu.Lock()
			defer mu.Unlock()
			if r.Err != nil {
				failed++
				return
			}
			sheets = append(sheets, sheet{path: r.Job.Path, text: r.Document.Text})
		}),
	)

	traceID := uuid.NewString()
	if *watch {
		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{*dir},
			InitialScan: true,
			SkipHidden:  !*hidden,
			Debounce:    time.Second,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("failed to watch directory", "dir", *dir, "error", err)
			os.Exit(1)
		}
		logger.Info("watching for lyric sheets", "dir", *dir)
		go func() {
			for err := range errs {
				logger.Warn("watch error", "error", err)
			}
		}()
		for path := range events {
			if err := queue.Enqueue(ctx, async.Job{Path: path, TraceID: traceID}); err != nil {
				logger.Warn("enqueue failed", "path", path, "error", err)
			}
		}
	} else {
		results, stats, err := ingest.ScanDirectory(ctx, *dir, !*hidden)
		if err != nil {
			logger.Error("failed to scan directory", "error", err)
			os.Exit(1)
		}
		logger.Info("scan complete",
			"scanned", stats.Scanned,
			"matched", stats.Matched,
			"duplicates", stats.Deduplicated,
			"failed", stats.Failed,
		)
		for _, r := range results {
			if r.Err != "" || r.Deduplicated {
				continue
			}
			if err := queue.Enqueue(ctx, async.Job{Path: r.Path, TraceID: traceID}); err != nil {
				logger.Warn("enqueue failed", "path", r.Path, "error", err)
			}
		}
	}

	queue.Shutdown(context.Background())

	sort.Slice(sheets, func(i, j int) bool { return sheets[i].path < sheets[j].path })
	if err := writeOutputs(sheets, *out, *csvOut, logger); err != nil {
		logger.Error("failed to write output", "error", err)
		os.Exit(1)
	}
	logger.Info("batch complete", "processed", len(sheets), "failed", failed, "xlsx", *out)
	if failed > 0 && len(sheets) == 0 {
		os.Exit(1)
	}
}

func writeOutputs(sheets []sheet, xlsxPath, csvPath string, logger *slog.Logger) error {
	wb, err := export.NewWorkbook(logger)
	if err != nil {
		return err
	}
	defer wb.Close()

	var csvParts []string
	for _, s := range sheets {
		title := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
		rows := export.SplitVerses(s.text)
		if _, err := wb.AddSheet(title, rows); err != nil {
			return fmt.Errorf("sheet %s: %w", title, err)
		}
		csvParts = append(csvParts, export.CSV(title, rows))
	}
	data, err := wb.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", xlsxPath, err)
	}
	if csvPath != "" {
		if err := os.WriteFile(csvPath, []byte(strings.Join(csvParts, "\n")+"\n"), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", csvPath, err)
		}
	}
	return nil
}
