// Package mock provides a mock transcriber for running without a
// transcription service. It cycles through simulated consultation
// utterances and can inject latency, sentinel responses and failures.
package mock

import (
	"context"
	"errors"
	"sync"
	"time"

	"healthcare-portal-service/internal/service/stt"
)

// DefaultUtterances provides sample utterances for simulation.
var DefaultUtterances = []string{
	"Good morning doctor",
	"I have had a headache for three days",
	"It gets worse in the evening",
	"I am taking paracetamol twice a day",
	"Thank you doctor",
}

// ErrSimulated is returned for segments configured to fail.
var ErrSimulated = errors.New("mock: simulated transcription failure")

// Options tunes the simulated behavior.
type Options struct {
	Utterances []string
	Latency    time.Duration
	// SentinelEvery returns the sentinel for every Nth call (0 disables).
	SentinelEvery int
	// FailEvery returns an error for every Nth call (0 disables).
	FailEvery int
	Sentinel  string
}

// Adapter implements stt.Transcriber with canned responses.
type Adapter struct {
	opts  Options
	mu    sync.Mutex
	calls int
}

// New creates a mock transcriber.
func New(opts Options) *Adapter {
	if len(opts.Utterances) == 0 {
		opts.Utterances = DefaultUtterances
	}
	if opts.Sentinel == "" {
		opts.Sentinel = stt.DefaultSentinel
	}
	return &Adapter{opts: opts}
}

// Name implements stt.Transcriber.
func (a *Adapter) Name() string {
	return "mock"
}

// Calls returns how many segments were submitted.
func (a *Adapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Transcribe returns the next simulated utterance after the configured
// latency. Empty segments yield the sentinel, like the real service.
func (a *Adapter) Transcribe(ctx context.Context, seg stt.Segment) (string, error) {
	a.mu.Lock()
	a.calls++
	n := a.calls
	a.mu.Unlock()

	if a.opts.Latency > 0 {
		select {
		case <-time.After(a.opts.Latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	switch {
	case a.opts.FailEvery > 0 && n%a.opts.FailEvery == 0:
		return "", ErrSimulated
	case a.opts.SentinelEvery > 0 && n%a.opts.SentinelEvery == 0:
		return a.opts.Sentinel, nil
	case len(seg.Audio) == 0:
		return a.opts.Sentinel, nil
	}
	return a.opts.Utterances[(n-1)%len(a.opts.Utterances)], nil
}
