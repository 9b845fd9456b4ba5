// Package models defines the data structures shared across the portal service.
package models

import "time"

// Event types published for consultation transcripts.
const (
	EventTranscriptFragment  = "consultation.transcript.fragment"
	EventTranscriptCompleted = "consultation.transcript.completed"
)

// TranscriptFragment is one usable transcription appended to a meeting's
// transcript.
type TranscriptFragment struct {
	EventType string `json:"eventType"`
	MeetingID string `json:"meetingId"`
	Room      string `json:"room"`
	SegmentID string `json:"segmentId"`
	Seq       int    `json:"seq"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// TranscriptCompleted is emitted once when a recording loop tears down.
type TranscriptCompleted struct {
	EventType        string `json:"eventType"`
	MeetingID        string `json:"meetingId"`
	Room             string `json:"room"`
	Text             string `json:"text"`
	SegmentsCaptured int    `json:"segmentsCaptured"`
	Fragments        int    `json:"fragments"`
	StartedAt        int64  `json:"startedAt"`
	EndedAt          int64  `json:"endedAt"`
}

// TranscriptRecord is the archived form of a finished transcript.
type TranscriptRecord struct {
	ID               string    `json:"id"`
	MeetingID        string    `json:"meetingId"`
	Room             string    `json:"room"`
	Text             string    `json:"text"`
	SegmentsCaptured int       `json:"segmentsCaptured"`
	Fragments        int       `json:"fragments"`
	StartedAt        time.Time `json:"startedAt"`
	EndedAt          time.Time `json:"endedAt"`
}
