package google

import (
	"context"
	"errors"
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"

	"healthcare-portal-service/internal/service/stt"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.LanguageCode)
	}
	if cfg.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.SampleRateHz)
	}
	if cfg.AudioEncoding != "LINEAR16" {
		t.Errorf("expected default encoding 'LINEAR16', got %s", cfg.AudioEncoding)
	}
}

func TestParseAudioEncoding(t *testing.T) {
	tests := []struct {
		input    string
		expected speechpb.RecognitionConfig_AudioEncoding
	}{
		{"LINEAR16", speechpb.RecognitionConfig_LINEAR16},
		{"MULAW", speechpb.RecognitionConfig_MULAW},
		{"FLAC", speechpb.RecognitionConfig_FLAC},
		{"AMR", speechpb.RecognitionConfig_AMR},
		{"AMR_WB", speechpb.RecognitionConfig_AMR_WB},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS},
		{"SPEEX_WITH_HEADER_BYTE", speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE},
		{"WEBM_OPUS", speechpb.RecognitionConfig_WEBM_OPUS},
		{"linear16", speechpb.RecognitionConfig_LINEAR16}, // fallback
		{"", speechpb.RecognitionConfig_LINEAR16},         // fallback
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseAudioEncoding(tt.input)
			if got != tt.expected {
				t.Errorf("parseAudioEncoding(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAdapter_TranscribeJoinsResults(t *testing.T) {
	var gotReq *speechpb.RecognizeRequest
	a := newAdapter(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		gotReq = req
		return &speechpb.RecognizeResponse{
			Results: []*speechpb.SpeechRecognitionResult{
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "my head"}}},
				{},
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " hurts "}}},
			},
		}, nil
	}, Config{LanguageCode: "hi-IN"})

	text, err := a.Transcribe(context.Background(), stt.Segment{ID: "seg-1", Audio: []byte{1, 2}, SampleRateHz: 8000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "my head hurts" {
		t.Errorf("expected 'my head hurts', got %q", text)
	}
	if gotReq.GetConfig().GetLanguageCode() != "hi-IN" {
		t.Errorf("expected language hi-IN, got %s", gotReq.GetConfig().GetLanguageCode())
	}
	if gotReq.GetConfig().GetSampleRateHertz() != 8000 {
		t.Errorf("expected segment sample rate 8000, got %d", gotReq.GetConfig().GetSampleRateHertz())
	}
	if string(gotReq.GetAudio().GetContent()) != string([]byte{1, 2}) {
		t.Error("expected segment audio as request content")
	}
}

func TestAdapter_TranscribeError(t *testing.T) {
	a := newAdapter(func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return nil, errors.New("quota exceeded")
	}, DefaultConfig())

	text, err := a.Transcribe(context.Background(), stt.Segment{ID: "seg-1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if text != "" {
		t.Errorf("expected no text on error, got %q", text)
	}
}

func TestAdapter_CloseWithoutClient(t *testing.T) {
	a := newAdapter(nil, Config{})
	if err := a.Close(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if a.Name() != "google" {
		t.Errorf("expected name 'google', got %s", a.Name())
	}
}
