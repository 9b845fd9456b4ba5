package segment

import (
	"fmt"
	"sync/atomic"
)

// Generator hands out segment ids and sequence numbers for one meeting's
// recording loop. Sequence numbers start at 1.
type Generator struct {
	counter uint64
}

func New() *Generator {
	return &Generator{}
}

// Next returns the next segment id and its sequence number.
func (g *Generator) Next(meetingID string) (string, int) {
	n := int(atomic.AddUint64(&g.counter, 1))
	return ID(meetingID, n), n
}

// ID formats the segment id for sequence number seq.
func ID(meetingID string, seq int) string {
	return fmt.Sprintf("%s-seg-%d", meetingID, seq)
}

// Issued returns how many ids have been handed out.
func (g *Generator) Issued() int {
	return int(atomic.LoadUint64(&g.counter))
}
