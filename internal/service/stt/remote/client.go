// Package remote submits audio segments to an HTTP transcription service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"healthcare-portal-service/internal/observability"
	"healthcare-portal-service/internal/service/stt"
)

// FormField is the multipart field carrying the audio segment.
const FormField = "audio"

// Config holds remote transcription settings.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client posts segments as multipart uploads and reads {transcription}.
type Client struct {
	endpoint   string
	httpClient *http.Client
	tracer     *observability.Tracer
}

type response struct {
	Transcription string `json:"transcription"`
}

// New creates a remote transcription client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     observability.NewTracer(),
	}
}

// Name implements stt.Transcriber.
func (c *Client) Name() string {
	return "remote"
}

// Transcribe uploads seg once. The sentinel is returned as ordinary text;
// callers decide whether it is usable.
func (c *Client) Transcribe(ctx context.Context, seg stt.Segment) (text string, err error) {
	ctx, span := c.tracer.Start(ctx, observability.SpanTranscribe,
		attribute.String(observability.AttrSegmentID, seg.ID),
		attribute.Int(observability.AttrSegmentSeq, seg.Seq),
		attribute.String(observability.AttrProvider, c.Name()),
		attribute.Int(observability.AttrBytes, len(seg.Audio)),
	)
	defer func() { observability.End(span, err) }()

	body, contentType, err := encodeSegment(seg)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("remote: post segment %s: %w", seg.ID, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int(observability.AttrStatusCode, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", stt.ErrTranscriptionFailed, resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("remote: decode response: %w", err)
	}
	return out.Transcription, nil
}

func encodeSegment(seg stt.Segment) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := seg.ID + ".wav"
	if seg.ID == "" {
		filename = "segment.wav"
	}
	part, err := w.CreateFormFile(FormField, filename)
	if err != nil {
		return nil, "", fmt.Errorf("remote: create form file: %w", err)
	}
	if _, err := part.Write(seg.Audio); err != nil {
		return nil, "", fmt.Errorf("remote: write audio: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("remote: close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
