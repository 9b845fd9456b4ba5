// Package transcript holds the append-only transcript of one recording loop.
package transcript

import (
	"strings"
	"sync"
)

// Buffer is an append-only transcript. Fragments are joined with a single
// space. Once closed, further commits are ignored.
//
// In ordered mode a fragment is held until every lower sequence number has
// been committed, so the text follows capture order rather than completion
// order. Otherwise fragments are appended as they arrive.
type Buffer struct {
	mu      sync.RWMutex
	ordered bool
	parts   []string
	closed  bool

	next    int
	pending map[int]pendingCommit
}

// Fragment is one piece of text appended to the transcript.
type Fragment struct {
	Seq  int
	Text string
}

type pendingCommit struct {
	text   string
	usable bool
}

// NewBuffer creates an empty transcript buffer.
func NewBuffer(ordered bool) *Buffer {
	return &Buffer{
		ordered: ordered,
		next:    1,
		pending: make(map[int]pendingCommit),
	}
}

// Commit resolves segment seq. usable=false marks a segment that produced
// nothing (error, sentinel, blank); in ordered mode it still releases the
// segments queued behind it. Returns the fragments appended by this call.
func (b *Buffer) Commit(seq int, text string, usable bool) []Fragment {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	if !b.ordered {
		if !usable {
			return nil
		}
		b.parts = append(b.parts, text)
		return []Fragment{{Seq: seq, Text: text}}
	}

	if seq < b.next {
		return nil
	}
	b.pending[seq] = pendingCommit{text: text, usable: usable}

	var appended []Fragment
	for {
		p, ok := b.pending[b.next]
		if !ok {
			break
		}
		delete(b.pending, b.next)
		b.next++
		if p.usable {
			b.parts = append(b.parts, p.text)
			appended = append(appended, Fragment{Seq: b.next - 1, Text: p.text})
		}
	}
	return appended
}

// Text returns the transcript so far.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return strings.Join(b.parts, " ")
}

// Len returns the number of fragments appended.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.parts)
}

// Pending returns how many resolved segments are waiting on an earlier one.
// Always zero in interleaved mode.
func (b *Buffer) Pending() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pending)
}

// Close stops the buffer from accepting commits and returns the final text.
// Held fragments in ordered mode are discarded.
func (b *Buffer) Close() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.pending = nil
	return strings.Join(b.parts, " ")
}

// Closed reports whether Close was called.
func (b *Buffer) Closed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
