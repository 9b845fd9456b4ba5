package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestConfigure_JSONOutputCarriesServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Format: "json", Service: "portal-test"}, &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger := WithComponent("capture")
	logger.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "portal-test" {
		t.Errorf("expected service field, got %v", entry["service"])
	}
	if entry["component"] != "capture" {
		t.Errorf("expected component field, got %v", entry["component"])
	}
	if entry["message"] != "hello" {
		t.Errorf("expected message 'hello', got %v", entry["message"])
	}
}

func TestConfigure_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "loud"}, &buf)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level, got %v", zerolog.GlobalLevel())
	}

	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected debug line to be suppressed, got %q", buf.String())
	}
}

func TestWithSegment_Fields(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "info"}, &buf)

	logger := WithSegment("appt-1", "appt-1-seg-3", 3)
	logger.Info().Msg("segment")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["segmentId"] != "appt-1-seg-3" {
		t.Errorf("expected segmentId, got %v", entry["segmentId"])
	}
	if entry["seq"] != float64(3) {
		t.Errorf("expected seq 3, got %v", entry["seq"])
	}
}
