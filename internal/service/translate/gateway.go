// Package translate forwards free text to the remote translation service.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"healthcare-portal-service/internal/observability"
	"healthcare-portal-service/internal/observability/metrics"
)

var (
	// ErrTranslationFailed is the generic failure returned for any
	// unsuccessful call. No partial output accompanies it.
	ErrTranslationFailed = errors.New("translation failed")
	// ErrNotConfigured is returned when no endpoint is set.
	ErrNotConfigured = errors.New("translate: endpoint not configured")
)

// Translator translates text into targetLang.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Config holds gateway settings.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Gateway issues one POST per call. It does not retry or cache.
type Gateway struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	metrics    *metrics.Metrics
	tracer     *observability.Tracer
}

type request struct {
	Text       string `json:"text"`
	TargetLang string `json:"targetLang"`
}

type response struct {
	TranslatedText string `json:"translatedText"`
}

// New creates a translation gateway.
func New(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics.DefaultMetrics,
		tracer:     observability.NewTracer(),
	}
}

// Translate returns text translated into targetLang.
func (g *Gateway) Translate(ctx context.Context, text, targetLang string) (out string, err error) {
	if g.endpoint == "" {
		return "", ErrNotConfigured
	}

	start := time.Now()
	ctx, span := g.tracer.Start(ctx, observability.SpanTranslate,
		attribute.String(observability.AttrTargetLang, targetLang),
		attribute.Int(observability.AttrBytes, len(text)),
	)
	defer func() {
		g.metrics.RecordTranslation(err, time.Since(start).Seconds())
		observability.End(span, err)
	}()

	body, err := json.Marshal(request{Text: text, TargetLang: targetLang})
	if err != nil {
		return "", fmt.Errorf("translate: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("translate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int(observability.AttrStatusCode, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", ErrTranslationFailed, resp.StatusCode)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrTranslationFailed, err)
	}
	return r.TranslatedText, nil
}
