package app

import (
	"context"
	"errors"
	"testing"

	"github.com/joseph-ayodele/lyrics-extractor/constants"
	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
)

func testConfig(t *testing.T) *common.Config {
	t.Setenv("DB_URL", ":memory:")
	t.Setenv("TESSERACT", "tesseract-not-installed-here")
	t.Setenv("TRANSLIT_ENABLED", "false")
	return common.LoadConfig()
}

func TestBuildAndExtractText(t *testing.T) {
	cfg := testConfig(t)
	c, err := Build(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer c.Close()
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	res, err := c.Service.ExtractText(context.Background(), "bhajan.txt", []byte("  radhe radhe \n"))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if res.Text != "radhe radhe" || res.Method != constants.MethodText {
		t.Fatalf("unexpected extraction: %+v", res)
	}
	job, err := c.Jobs.Get(context.Background(), res.JobID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != constants.JobStatusOK {
		t.Fatalf("expected OK job, got %s", job.Status)
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.OCR.Workers = 0
	if _, err := Build(context.Background(), cfg, nil); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	if NewLogger("debug", true) == nil || NewLogger("bogus", false) == nil {
		t.Fatal("expected loggers")
	}
}
