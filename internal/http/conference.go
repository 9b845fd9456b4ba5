package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"healthcare-portal-service/internal/models"
	"healthcare-portal-service/internal/service/audio"
	"healthcare-portal-service/internal/session"
)

const (
	msgStart      = "start"
	msgStop       = "stop"
	msgDeny       = "deny"
	msgRecording  = "recording"
	msgTranscript = "transcript"

	writeWait = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 << 10,
	WriteBufferSize: 4 << 10,
	// Browser clients are served from the portal frontend on another origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// controlMessage is a text frame from the browser.
type controlMessage struct {
	Type       string `json:"type"`
	SampleRate int    `json:"sampleRate,omitempty"`
}

// pushMessage is a text frame sent to the browser.
type pushMessage struct {
	Type     string `json:"type"`
	State    string `json:"state,omitempty"`
	Text     string `json:"text,omitempty"`
	Fragment string `json:"fragment,omitempty"`
	Seq      int    `json:"seq,omitempty"`
}

// wsDevice is a capture device fed by a browser over a websocket. The
// browser grants microphone access by sending a start message and then
// streams 16-bit mono PCM as binary frames.
type wsDevice struct {
	conn         *websocket.Conn
	startTimeout time.Duration
	rate         int

	frames  chan []byte
	done    chan struct{}
	once    sync.Once
	writeMu sync.Mutex
}

func newWSDevice(conn *websocket.Conn, startTimeout time.Duration, defaultRate int) *wsDevice {
	return &wsDevice{
		conn:         conn,
		startTimeout: startTimeout,
		rate:         defaultRate,
		frames:       make(chan []byte, 64),
		done:         make(chan struct{}),
	}
}

// Open waits for the browser to start or deny capture.
func (d *wsDevice) Open(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			d.Close()
		case <-d.done:
		}
	}()

	if d.startTimeout > 0 {
		_ = d.conn.SetReadDeadline(time.Now().Add(d.startTimeout))
	}
	for {
		mt, data, err := d.conn.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage {
			continue
		}
		var msg controlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case msgDeny:
			return audio.ErrPermissionDenied
		case msgStop:
			return errors.New("capture stopped before start")
		case msgStart:
			if msg.SampleRate > 0 {
				d.rate = msg.SampleRate
			}
			_ = d.conn.SetReadDeadline(time.Time{})
			go d.read()
			d.push(pushMessage{Type: msgRecording, State: "started"})
			return nil
		}
	}
}

func (d *wsDevice) read() {
	defer close(d.frames)
	for {
		mt, data, err := d.conn.ReadMessage()
		if err != nil {
			return
		}
		switch mt {
		case websocket.BinaryMessage:
			select {
			case d.frames <- data:
			case <-d.done:
				return
			}
		case websocket.TextMessage:
			var msg controlMessage
			if json.Unmarshal(data, &msg) == nil && msg.Type == msgStop {
				return
			}
		}
	}
}

func (d *wsDevice) Frames() <-chan []byte { return d.frames }

func (d *wsDevice) SampleRate() int { return d.rate }

func (d *wsDevice) Close() error {
	var err error
	d.once.Do(func() {
		close(d.done)
		d.writeMu.Lock()
		_ = d.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		d.writeMu.Unlock()
		err = d.conn.Close()
	})
	return err
}

// push writes msg unless the device is closed.
func (d *wsDevice) push(msg pushMessage) {
	select {
	case <-d.done:
		return
	default:
	}
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	_ = d.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := d.conn.WriteJSON(msg); err != nil {
		log.Debug().Err(err).Str("type", msg.Type).Msg("Websocket push failed")
	}
}

// conference upgrades to a websocket and runs one recording loop for the
// room until the browser stops or disconnects.
func (h *handlers) conference(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	meetingID := conferenceMeetingID(r, room)
	if meetingID == "" {
		writeError(w, http.StatusBadRequest, "meetingId is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("room", room).Msg("Websocket upgrade failed")
		return
	}

	cfg := h.app.Cfg
	dev := newWSDevice(conn, cfg.Capture.StartTimeout, cfg.Transcription.SampleRateHz)

	opts := []audio.Option{
		audio.WithFragmentHandler(func(ev models.TranscriptFragment, full string) {
			dev.push(pushMessage{Type: msgTranscript, Text: full, Fragment: ev.Text, Seq: ev.Seq})
		}),
	}
	if h.app.Publisher != nil {
		opts = append(opts, audio.WithPublisher(h.app.Publisher))
	}
	if h.app.Transcripts != nil {
		opts = append(opts, audio.WithArchiver(h.app.Transcripts))
	}

	loop := audio.NewLoop(audio.Config{
		MeetingID:       meetingID,
		Room:            room,
		SegmentPeriod:   cfg.Capture.SegmentPeriod,
		UploadTimeout:   cfg.Transcription.Timeout,
		Sentinel:        cfg.Transcription.Sentinel,
		MaxSegmentBytes: cfg.Capture.MaxSegmentBytes,
		Ordered:         cfg.Capture.Ordered,
	}, dev, h.app.Transcriber, opts...)

	if err := loop.Run(r.Context()); err != nil {
		log.Error().Err(err).Str("room", room).Msg("Recording loop failed")
	}
}

// conferenceMeetingID picks the appointment transcripts are archived under:
// the meetingId query parameter, else the appointment last joined in room.
func conferenceMeetingID(r *http.Request, room string) string {
	if id := r.URL.Query().Get("meetingId"); id != "" {
		return id
	}
	if sess := session.FromContext(r.Context()); sess != nil && sess.Preferences.LastRoom == room {
		return sess.Preferences.LastAppointmentID
	}
	return ""
}
