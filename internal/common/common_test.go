package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "GRPC_ADDR", "OCR_WORKERS", "OCR_ENGINE", "PDF_DPI", "TRANSLIT_TIMEOUT", "TRANSLIT_ENABLED", "DB_URL"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.Server.HTTPAddr != ":8000" || cfg.Server.GRPCAddr != ":8080" {
		t.Fatalf("unexpected addrs: %+v", cfg.Server)
	}
	if cfg.OCR.Workers != 4 || cfg.OCR.PDFDPI != 300 || cfg.OCR.PDFMaxPages != 5 || cfg.OCR.PDFMinNativeChars != 50 {
		t.Fatalf("unexpected ocr defaults: %+v", cfg.OCR)
	}
	if !cfg.Transliteration.Enabled || cfg.Transliteration.Timeout.Seconds() != 2 {
		t.Fatalf("unexpected transliteration defaults: %+v", cfg.Transliteration)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("OCR_ENGINE", "paddle")
	cfg := LoadConfig()
	err := cfg.Validate()
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
		t.Fatalf("expected CONFIG_ERROR, got %v", err)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput in chain")
	}

	t.Setenv("OCR_ENGINE", "cli")
	t.Setenv("OCR_WORKERS", "0")
	if err := LoadConfig().Validate(); err == nil {
		t.Fatal("expected error for zero workers")
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("wrap: %w", ErrNoText), codes.FailedPrecondition},
		{fmt.Errorf("wrap: %w", ErrUnsupportedFormat), codes.InvalidArgument},
		{NewAppError("X", "y", ErrEngineUnavailable), codes.Unavailable},
		{ErrNotFound, codes.NotFound},
		{errors.New("boom"), codes.Internal},
		{InvalidArgumentError("bad"), codes.InvalidArgument},
	}
	for _, tt := range tests {
		if got := status.Code(ToStatus(tt.err)); got != tt.want {
			t.Errorf("ToStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
	if ToStatus(nil) != nil {
		t.Error("nil should map to nil")
	}
}

func TestContextIDs(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if id == "" || RequestIDFromContext(ctx) != id {
		t.Fatalf("request id not stored")
	}
	if _, again := EnsureRequestID(ctx); again != id {
		t.Fatalf("EnsureRequestID regenerated id")
	}
	job := uuid.New()
	if JobIDFromContext(WithJobID(ctx, job)) != job {
		t.Fatal("job id not stored")
	}
	if JobIDFromContext(context.Background()) != uuid.Nil {
		t.Fatal("expected nil job id")
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("file", []byte{}, Required()).
		Field("text", "", Required()).
		Field("title", "abcdef", MaxRunes(3))
	if len(v.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %v", v.Errors())
	}
	if !errors.Is(v.Error(), ErrValidation) {
		t.Fatal("expected ErrValidation")
	}
	if status.Code(ToStatus(v.Error())) != codes.InvalidArgument {
		t.Fatal("expected InvalidArgument")
	}

	ok := NewValidator().Field("filename", "bhajan.PNG", Required(), MaxRunes(255))
	if ok.HasErrors() || ok.Error() != nil {
		t.Fatalf("unexpected errors: %v", ok.Errors())
	}
}
