package audio

import (
	"bytes"
	"sync"

	"healthcare-portal-service/internal/service/segment"
)

// Recorder accumulates PCM frames for one segment. Frames past the byte
// limit are rejected so a stalled ticker cannot grow a segment without bound.
type Recorder struct {
	mu        sync.Mutex
	lifecycle *segment.Lifecycle
	buf       bytes.Buffer
	maxBytes  int64
	dropped   int
	stopped   bool
}

// NewRecorder starts recording segment id with sequence number seq.
// maxBytes <= 0 disables the limit.
func NewRecorder(id string, seq int, maxBytes int64) *Recorder {
	return &Recorder{
		lifecycle: segment.NewLifecycle(id, seq),
		maxBytes:  maxBytes,
	}
}

// Lifecycle returns the segment lifecycle.
func (r *Recorder) Lifecycle() *segment.Lifecycle {
	return r.lifecycle
}

// Write appends a frame. Returns false if the frame was dropped.
func (r *Recorder) Write(frame []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return false
	}
	if r.maxBytes > 0 && int64(r.buf.Len()+len(frame)) > r.maxBytes {
		r.dropped++
		return false
	}
	r.buf.Write(frame)
	return true
}

// Len returns the buffered byte count.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Len()
}

// DroppedFrames returns how many frames hit the limit.
func (r *Recorder) DroppedFrames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Stop flushes the buffered audio. Later writes are rejected.
func (r *Recorder) Stop() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	out := make([]byte, r.buf.Len())
	copy(out, r.buf.Bytes())
	r.buf.Reset()
	return out
}

// Discard stops the recorder and drops its segment without flushing.
// Returns false if the segment had already been handed to upload.
func (r *Recorder) Discard() bool {
	r.mu.Lock()
	r.stopped = true
	r.buf.Reset()
	r.mu.Unlock()
	return r.lifecycle.Drop()
}
