// Package google provides a Google Cloud Speech-to-Text transcriber.
package google

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"go.opentelemetry.io/otel/attribute"

	"healthcare-portal-service/internal/observability"
	"healthcare-portal-service/internal/service/stt"
)

// Config holds Google STT configuration.
type Config struct {
	LanguageCode  string
	SampleRateHz  int
	AudioEncoding string // LINEAR16, MULAW, FLAC, ...
	Punctuation   bool
}

// DefaultConfig returns the recognizer settings for 16 kHz mono PCM.
func DefaultConfig() Config {
	return Config{
		LanguageCode:  "en-US",
		SampleRateHz:  16000,
		AudioEncoding: "LINEAR16",
		Punctuation:   true,
	}
}

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// Adapter implements stt.Transcriber with synchronous Recognize calls, one
// per segment.
type Adapter struct {
	client    *speech.Client
	recognize recognizeFunc
	cfg       Config
	tracer    *observability.Tracer
}

// New creates a Google STT transcriber.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("google: create speech client: %w", err)
	}
	a := newAdapter(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return c.Recognize(ctx, req)
	}, cfg)
	a.client = c
	return a, nil
}

func newAdapter(fn recognizeFunc, cfg Config) *Adapter {
	def := DefaultConfig()
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = def.LanguageCode
	}
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = def.SampleRateHz
	}
	if cfg.AudioEncoding == "" {
		cfg.AudioEncoding = def.AudioEncoding
	}
	return &Adapter{recognize: fn, cfg: cfg, tracer: observability.NewTracer()}
}

// Name implements stt.Transcriber.
func (a *Adapter) Name() string {
	return "google"
}

// Transcribe recognizes one segment and joins the top alternative of each
// result with spaces. No results yields empty text.
func (a *Adapter) Transcribe(ctx context.Context, seg stt.Segment) (text string, err error) {
	ctx, span := a.tracer.Start(ctx, observability.SpanTranscribe,
		attribute.String(observability.AttrSegmentID, seg.ID),
		attribute.Int(observability.AttrSegmentSeq, seg.Seq),
		attribute.String(observability.AttrProvider, a.Name()),
		attribute.Int(observability.AttrBytes, len(seg.Audio)),
	)
	defer func() { observability.End(span, err) }()

	rate := a.cfg.SampleRateHz
	if seg.SampleRateHz > 0 {
		rate = seg.SampleRateHz
	}

	resp, err := a.recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   parseAudioEncoding(a.cfg.AudioEncoding),
			SampleRateHertz:            int32(rate),
			LanguageCode:               a.cfg.LanguageCode,
			EnableAutomaticPunctuation: a.cfg.Punctuation,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: seg.Audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("google: recognize segment %s: %w", seg.ID, err)
	}

	var parts []string
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		if t := strings.TrimSpace(r.GetAlternatives()[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// parseAudioEncoding converts string encoding to speechpb enum.
func parseAudioEncoding(enc string) speechpb.RecognitionConfig_AudioEncoding {
	switch enc {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
