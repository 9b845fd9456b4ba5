package app

import (
	"context"
	"testing"

	"healthcare-portal-service/internal/config"
)

func testConfig() *config.Configuration {
	cfg := config.Defaults()
	cfg.Service.Environment = "dev"
	cfg.Session.Secret = "test-secret"
	return cfg
}

func TestApplication_StartWithDefaults(t *testing.T) {
	a := New(testConfig())
	if a.Ready() {
		t.Fatal("expected application not ready before Start")
	}

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Shutdown()

	if !a.Ready() {
		t.Error("expected application ready after Start")
	}
	if a.Transcriber.Name() != "mock" {
		t.Errorf("expected mock transcriber, got %s", a.Transcriber.Name())
	}
	if a.Publisher.Enabled() {
		t.Error("expected kafka publisher disabled by default")
	}
	if a.Transcripts != nil {
		t.Error("expected archive disabled by default")
	}
	if a.Localization.Default() != "English" {
		t.Errorf("expected default language English, got %s", a.Localization.Default())
	}
	if a.Sessions == nil || a.Meetings == nil || a.Records == nil || a.Validator == nil {
		t.Error("expected every service to be built")
	}
}

func TestApplication_RemoteTranscriber(t *testing.T) {
	cfg := testConfig()
	cfg.Transcription.Provider = "remote"
	cfg.Transcription.Endpoint = "http://stt.internal/transcribe"

	a := New(cfg)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Shutdown()

	if a.Transcriber.Name() != "remote" {
		t.Errorf("expected remote transcriber, got %s", a.Transcriber.Name())
	}
}

func TestApplication_BadDefaultLanguage(t *testing.T) {
	cfg := testConfig()
	cfg.Localization.DefaultLanguage = "Klingon"

	if err := New(cfg).Start(context.Background()); err == nil {
		t.Error("expected error for unknown default language")
	}
}

func TestApplication_ShutdownClearsReady(t *testing.T) {
	a := New(testConfig())
	a.SetReady(true)
	a.Shutdown()
	if a.Ready() {
		t.Error("expected not ready after Shutdown")
	}
}
