package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"healthcare-portal-service/internal/service/audio"
)

// Stream audio in 100ms chunks to simulate a browser microphone.
const chunkIntervalMs = 100

type serverMessage struct {
	Type     string `json:"type"`
	State    string `json:"state"`
	Text     string `json:"text"`
	Fragment string `json:"fragment"`
	Seq      int    `json:"seq"`
}

func main() {
	audioFile := flag.String("audio", "testdata/consultation-16khz.wav", "Path to WAV file (16-bit mono PCM)")
	server := flag.String("server", "ws://localhost:8080", "Portal base URL")
	room := flag.String("room", "consultation-demo", "Conference room")
	meetingID := flag.String("meeting", "demo-"+time.Now().Format("150405"), "Meeting ID")
	linger := flag.Duration("linger", 5*time.Second, "How long to wait for transcripts after the audio ends")
	flag.Parse()

	data, err := os.ReadFile(*audioFile)
	if err != nil {
		log.Fatalf("Failed to read audio file: %v", err)
	}
	pcm, sampleRate, err := audio.DecodeWAV(data)
	if err != nil {
		log.Fatalf("Failed to decode WAV: %v", err)
	}
	chunkSize := sampleRate * 2 * chunkIntervalMs / 1000
	log.Printf("WAV file: sampleRate=%d bytes=%d chunkSize=%d", sampleRate, len(pcm), chunkSize)

	u, err := url.Parse(*server)
	if err != nil {
		log.Fatalf("Invalid server URL: %v", err)
	}
	u.Path = "/v1/conference/" + url.PathEscape(*room) + "/audio"
	u.RawQuery = url.Values{"meetingId": {*meetingID}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	log.Printf("Connected to %s", u.String())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg serverMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			switch msg.Type {
			case "recording":
				log.Printf("Recording %s", msg.State)
			case "transcript":
				log.Printf("Fragment %d: %s", msg.Seq, msg.Fragment)
				log.Printf("Transcript: %s", msg.Text)
			}
		}
	}()

	start, _ := json.Marshal(map[string]any{"type": "start", "sampleRate": sampleRate})
	if err := conn.WriteMessage(websocket.TextMessage, start); err != nil {
		log.Fatalf("Failed to start capture: %v", err)
	}

	startTime := time.Now()
	var chunkNum int
	for off := 0; off < len(pcm); off += chunkSize {
		end := min(off+chunkSize, len(pcm))
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			log.Fatalf("Failed to send frame: %v", err)
		}
		chunkNum++
		if chunkNum%10 == 0 {
			log.Printf("Sent chunk %d (%d bytes total)", chunkNum, end)
		}
		time.Sleep(chunkIntervalMs * time.Millisecond)
	}
	log.Printf("Finished streaming: %d chunks in %v", chunkNum, time.Since(startTime))

	// Keep the connection open so in-flight segments can still be pushed.
	select {
	case <-done:
	case <-time.After(*linger):
	}

	stop, _ := json.Marshal(map[string]string{"type": "stop"})
	_ = conn.WriteMessage(websocket.TextMessage, stop)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	log.Println("Stream completed")
}
