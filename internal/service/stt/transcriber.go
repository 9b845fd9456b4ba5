// Package stt defines the transcription collaborators used by the capture
// loop and the transcribe endpoint.
package stt

import (
	"context"
	"errors"
	"strings"
)

// DefaultSentinel is the text the transcription service returns when it has
// no usable result.
const DefaultSentinel = "Transcription failed"

// ErrTranscriptionFailed is returned when the provider rejects a segment.
var ErrTranscriptionFailed = errors.New("transcription failed")

// Segment is one packaged audio capture submitted for transcription.
type Segment struct {
	ID           string
	Seq          int
	MeetingID    string
	Audio        []byte // WAV
	ContentType  string
	SampleRateHz int
}

// Transcriber submits a segment once and returns the recognized text.
type Transcriber interface {
	Transcribe(ctx context.Context, seg Segment) (string, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}

// Result classifies a transcription response.
type Result string

const (
	ResultText     Result = "appended"
	ResultSentinel Result = "sentinel"
	ResultBlank    Result = "blank"
	ResultError    Result = "error"
)

// Usable reports whether r contributes text to a transcript.
func (r Result) Usable() bool {
	return r == ResultText
}

// Classify decides whether a response carries usable text. The sentinel is
// matched exactly, so a differently cased or padded failure message counts
// as text.
func Classify(text string, err error, sentinel string) Result {
	switch {
	case err != nil:
		return ResultError
	case sentinel != "" && text == sentinel:
		return ResultSentinel
	case strings.TrimSpace(text) == "":
		return ResultBlank
	default:
		return ResultText
	}
}
