// Package segment provides segment ID generation and per-segment lifecycle
// management for the recording loop.
package segment

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a segment.
type State int

const (
	// StateRecording - the recorder is still accumulating audio.
	StateRecording State = iota
	// StateUploading - the recorder stopped and the segment was submitted.
	StateUploading
	// StateAppended - the transcription was appended to the transcript.
	StateAppended
	// StateDiscarded - the response was the sentinel or blank; nothing appended.
	StateDiscarded
	// StateFailed - the upload errored; nothing appended.
	StateFailed
	// StateDropped - the segment never left the recorder (teardown, empty).
	StateDropped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateRecording:
		return "RECORDING"
	case StateUploading:
		return "UPLOADING"
	case StateAppended:
		return "APPENDED"
	case StateDiscarded:
		return "DISCARDED"
	case StateFailed:
		return "FAILED"
	case StateDropped:
		return "DROPPED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true once the segment can no longer change.
func (s State) IsTerminal() bool {
	return s == StateAppended || s == StateDiscarded || s == StateFailed || s == StateDropped
}

// Outcome is the result of an upload.
type Outcome int

const (
	OutcomeAppended Outcome = iota
	OutcomeDiscarded
	OutcomeFailed
)

func (o Outcome) state() State {
	switch o {
	case OutcomeAppended:
		return StateAppended
	case OutcomeDiscarded:
		return StateDiscarded
	default:
		return StateFailed
	}
}

// Errors for invalid state transitions.
var (
	ErrSegmentClosed    = errors.New("segment is closed")
	ErrAlreadyUploading = errors.New("segment already submitted for upload")
	ErrNotUploading     = errors.New("segment was never submitted for upload")
)

// Lifecycle manages the state machine for a single segment.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	RECORDING ──Upload()──→ UPLOADING ──Complete()──→ APPENDED | DISCARDED | FAILED
//	    │
//	    └──Drop()──→ DROPPED
//
// A segment is submitted at most once. Once uploading it cannot be dropped:
// uploads are never cancelled.
type Lifecycle struct {
	mu        sync.RWMutex
	segmentID string
	seq       int
	state     State
}

// NewLifecycle creates a new segment lifecycle in RECORDING state.
func NewLifecycle(segmentID string, seq int) *Lifecycle {
	return &Lifecycle{
		segmentID: segmentID,
		seq:       seq,
		state:     StateRecording,
	}
}

// SegmentID returns the segment ID.
func (l *Lifecycle) SegmentID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.segmentID
}

// Seq returns the segment sequence number.
func (l *Lifecycle) Seq() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// IsClosed returns true if the segment is in a terminal state.
func (l *Lifecycle) IsClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.IsTerminal()
}

// Upload transitions RECORDING to UPLOADING.
func (l *Lifecycle) Upload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateRecording:
		l.state = StateUploading
		return nil
	case StateUploading:
		return ErrAlreadyUploading
	default:
		return ErrSegmentClosed
	}
}

// Complete records the upload outcome.
func (l *Lifecycle) Complete(o Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateUploading:
		l.state = o.state()
		return nil
	case StateRecording:
		return ErrNotUploading
	default:
		return ErrSegmentClosed
	}
}

// Drop abandons a segment that is still recording.
// Returns true if the segment was dropped, false if it had already left the
// recorder.
func (l *Lifecycle) Drop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateRecording {
		return false
	}
	l.state = StateDropped
	return true
}
