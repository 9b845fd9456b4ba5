package main

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// TranscriptEvent is a fragment or completed event read from Kafka. It
// carries the fields shared by both event types.
type TranscriptEvent struct {
	EventType        string `json:"eventType"`
	MeetingID        string `json:"meetingId"`
	Room             string `json:"room"`
	SegmentID        string `json:"segmentId,omitempty"`
	Seq              int    `json:"seq,omitempty"`
	Text             string `json:"text"`
	Timestamp        int64  `json:"timestamp,omitempty"`
	SegmentsCaptured int    `json:"segmentsCaptured,omitempty"`
	Fragments        int    `json:"fragments,omitempty"`
	EndedAt          int64  `json:"endedAt,omitempty"`
}

// client is one browser tab, optionally watching a single meeting.
type client struct {
	conn    *websocket.Conn
	meeting string
}

func (c *client) wants(ev TranscriptEvent) bool {
	return c.meeting == "" || c.meeting == ev.MeetingID
}

// Hub fans Kafka events out to browser websockets.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan TranscriptEvent
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan TranscriptEvent, 100),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			log.Printf("Client connected (meeting=%q). Total: %d", c.meeting, h.Len())

		case c := <-h.unregister:
			h.remove(c)
			log.Printf("Client disconnected. Total: %d", h.Len())

		case event := <-h.broadcast:
			var failed []*client
			h.mu.RLock()
			for c := range h.clients {
				if !c.wants(event) {
					continue
				}
				if err := c.conn.WriteJSON(event); err != nil {
					log.Printf("Write error: %v", err)
					failed = append(failed, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range failed {
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.conn.Close()
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
