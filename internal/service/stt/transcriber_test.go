package stt

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
		want Result
	}{
		{"text", "my head hurts", nil, ResultText},
		{"sentinel", DefaultSentinel, nil, ResultSentinel},
		{"sentinel with error", DefaultSentinel, errors.New("boom"), ResultError},
		{"blank", "   ", nil, ResultBlank},
		{"empty", "", nil, ResultBlank},
		{"error", "partial", errors.New("timeout"), ResultError},
		{"sentinel lowercase is text", "transcription failed", nil, ResultText},
		{"sentinel padded is text", " Transcription failed", nil, ResultText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text, tt.err, DefaultSentinel)
			if got != tt.want {
				t.Errorf("Classify(%q, %v) = %s, want %s", tt.text, tt.err, got, tt.want)
			}
		})
	}
}

func TestClassify_EmptySentinelDisablesMatch(t *testing.T) {
	if got := Classify(DefaultSentinel, nil, ""); got != ResultText {
		t.Errorf("expected text with no sentinel configured, got %s", got)
	}
}

func TestResult_Usable(t *testing.T) {
	if !ResultText.Usable() {
		t.Error("expected text result to be usable")
	}
	for _, r := range []Result{ResultSentinel, ResultBlank, ResultError} {
		if r.Usable() {
			t.Errorf("expected %s to be unusable", r)
		}
	}
}
