package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database        DatabaseConfig
	Server          ServerConfig
	OCR             OCRConfig
	Transliteration TransliterationConfig
	Lexicon         LexiconConfig
	LogLevel        string
}

// DatabaseConfig holds job store configuration. An empty DSN disables persistence.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr    string
	GRPCAddr    string
	CORSOrigins string
	BodyLimitMB int
}

// OCRConfig holds recognition engine and document driver configuration
type OCRConfig struct {
	Engine            string
	TesseractBin      string
	TessdataDir       string
	PDFToTextBin      string
	PDFToPPMBin       string
	HeicConverter     string
	Workers           int
	PDFDPI            int
	PDFMaxPages       int
	PDFMinNativeChars int
}

// TransliterationConfig holds the remote transliteration service settings
type TransliterationConfig struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

// LexiconConfig points at an optional YAML file replacing the embedded lexicon
type LexiconConfig struct {
	File string
}

const (
	EngineCLI       = "cli"
	EngineGosseract = "gosseract"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr:    getEnv("HTTP_ADDR", ":8000"),
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			BodyLimitMB: getEnvAsInt("BODY_LIMIT_MB", 25),
		},
		OCR: OCRConfig{
			Engine:            strings.ToLower(getEnv("OCR_ENGINE", EngineCLI)),
			TesseractBin:      getEnv("TESSERACT", "tesseract"),
			TessdataDir:       getEnv("TESSDATA_PREFIX", ""),
			PDFToTextBin:      getEnv("PDFTOTEXT", "pdftotext"),
			PDFToPPMBin:       getEnv("PDFTOPPM", "pdftoppm"),
			HeicConverter:     getEnv("HEIC_CONVERTER", "magick"),
			Workers:           getEnvAsInt("OCR_WORKERS", 4),
			PDFDPI:            getEnvAsInt("PDF_DPI", 300),
			PDFMaxPages:       getEnvAsInt("PDF_MAX_PAGES", 5),
			PDFMinNativeChars: getEnvAsInt("PDF_MIN_NATIVE_CHARS", 50),
		},
		Transliteration: TransliterationConfig{
			Enabled: getEnvAsBool("TRANSLIT_ENABLED", true),
			URL:     getEnv("TRANSLIT_URL", "https://translate.googleapis.com/translate_a/single"),
			Timeout: getEnvAsDuration("TRANSLIT_TIMEOUT", 2*time.Second),
		},
		Lexicon: LexiconConfig{
			File: getEnv("LEXICON_FILE", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" && c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR or GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.OCR.Engine != EngineCLI && c.OCR.Engine != EngineGosseract {
		return NewAppError("CONFIG_ERROR", "OCR_ENGINE must be cli or gosseract", ErrInvalidInput)
	}
	if c.OCR.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "OCR_WORKERS must be at least 1", ErrInvalidInput)
	}
	if c.OCR.PDFDPI < 72 || c.OCR.PDFMaxPages < 1 {
		return NewAppError("CONFIG_ERROR", "PDF_DPI must be >= 72 and PDF_MAX_PAGES >= 1", ErrInvalidInput)
	}
	if c.Transliteration.Enabled && c.Transliteration.URL == "" {
		return NewAppError("CONFIG_ERROR", "TRANSLIT_URL is required when transliteration is enabled", ErrInvalidInput)
	}
	if c.Server.BodyLimitMB < 1 {
		return NewAppError("CONFIG_ERROR", "BODY_LIMIT_MB must be positive", ErrInvalidInput)
	}
	return nil
}
