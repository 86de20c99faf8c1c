package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joseph-ayodele/lyrics-extractor/internal/app"
	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/export"
)

func main() {
	var (
		translit = flag.Bool("translit", true, "use the remote transliteration service")
		verbose  = flag.Bool("v", false, "debug logging and a summary on stderr")
		format   = flag.String("format", "text", "output format: text | csv")
		title    = flag.String("title", "", "title row for -format csv")
		timeout  = flag.Duration("timeout", 3*time.Minute, "overall timeout")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: extract [flags] <file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := common.LoadConfig()
	cfg.Transliteration.Enabled = *translit
	cfg.Database.DSN = ""
	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	} else if level == "info" {
		level = "warn"
	}
	logger := app.NewLogger(level, false)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	start := time.Now()
	_, doc, err := c.Processor.ProcessFile(ctx, path)
	if err != nil {
		if errors.Is(err, common.ErrNoText) {
			fmt.Fprintln(os.Stderr, "no text could be extracted from", path)
			os.Exit(3)
		}
		logger.Error("text extraction failed", "path", path, "error", err)
		os.Exit(1)
	}

	switch *format {
	case "csv":
		fmt.Println(export.CSV(*title, export.SplitVerses(doc.Text)))
	default:
		fmt.Println(doc.Text)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "method=%s pages=%d label=%s score=%.2f warnings=%d duration=%s\n",
			doc.Method, doc.Pages, doc.Label, doc.Score, len(doc.Warnings), time.Since(start).Round(time.Millisecond))
	}
}
