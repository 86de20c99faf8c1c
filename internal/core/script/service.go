package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Service converts transliterated text to Devanagari remotely.
type Service interface {
	Transliterate(ctx context.Context, text string) (string, error)
}

// ErrNoTransliteration means the service answered without a usable conversion.
var ErrNoTransliteration = errors.New("no transliteration returned")

// NoopService always fails, which sends every line to the local transliterator.
type NoopService struct{}

func (NoopService) Transliterate(context.Context, string) (string, error) {
	return "", ErrNoTransliteration
}

// DefaultGoogleURL is the public translate endpoint used for en->hi conversion.
const DefaultGoogleURL = "https://translate.googleapis.com/translate_a/single"

// gtxSchema describes the nested token list: [[["converted", "source", ...], ...], ...].
const gtxSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "minItems": 1,
  "prefixItems": [
    {
      "type": "array",
      "items": {
        "type": "array",
        "minItems": 1,
        "prefixItems": [ { "type": ["string", "null"] } ]
      }
    }
  ]
}`

// GoogleService calls the translate gtx endpoint with sl=en&tl=hi.
type GoogleService struct {
	endpoint string
	client   *http.Client
	schema   *jsonschema.Schema
	logger   *slog.Logger
}

// NewGoogleService creates the client. An empty endpoint uses DefaultGoogleURL.
func NewGoogleService(endpoint string, timeout time.Duration, logger *slog.Logger) (*GoogleService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if endpoint == "" {
		endpoint = DefaultGoogleURL
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("gtx.json", strings.NewReader(gtxSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("gtx.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &GoogleService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		schema:   schema,
		logger:   logger,
	}, nil
}

// Transliterate returns the concatenated converted segments. Empty output or
// output equal to the input is ErrNoTransliteration.
func (g *GoogleService) Transliterate(ctx context.Context, text string) (string, error) {
	reqID := uuid.New().String()
	start := time.Now()

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "en")
	q.Set("tl", "hi")
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("translit.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			g.logger.Warn("translit.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	g.logger.Debug("translit.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}

	out, err := g.decode(raw)
	if err != nil {
		return "", err
	}
	if out == "" || out == strings.TrimSpace(text) {
		return "", ErrNoTransliteration
	}
	return out, nil
}

func (g *GoogleService) decode(raw []byte) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if err := g.schema.Validate(v); err != nil {
		return "", fmt.Errorf("response does not match schema: %w", err)
	}
	segments, _ := v.([]any)[0].([]any)
	var b strings.Builder
	for _, seg := range segments {
		parts, _ := seg.([]any)
		if len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
