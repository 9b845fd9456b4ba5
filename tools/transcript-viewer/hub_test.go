package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestDecodeEvent(t *testing.T) {
	ev, err := decodeEvent([]byte(`{"eventType":"consultation.transcript.fragment","meetingId":"A1","room":"consultation-a1","segmentId":"A1-seg-2","seq":2,"text":"hello"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.MeetingID != "A1" || ev.Seq != 2 || ev.Text != "hello" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if _, err := decodeEvent([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestClientWants(t *testing.T) {
	all := &client{}
	one := &client{meeting: "A1"}
	ev := TranscriptEvent{MeetingID: "A2"}
	if !all.wants(ev) {
		t.Error("unfiltered client should receive every meeting")
	}
	if one.wants(ev) {
		t.Error("filtered client received another meeting")
	}
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws"+query, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastFiltersByMeeting(t *testing.T) {
	hub := newHub()
	go hub.run()
	srv := httptest.NewServer(wsHandler(hub))
	defer srv.Close()

	watcher := dial(t, srv, "?meeting=A1")
	all := dial(t, srv, "")

	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("clients not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.broadcast <- TranscriptEvent{MeetingID: "A2", Text: "other"}
	hub.broadcast <- TranscriptEvent{MeetingID: "A1", Text: "mine"}

	var got TranscriptEvent
	_ = watcher.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := watcher.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Text != "mine" {
		t.Fatalf("watcher got %q, want mine", got.Text)
	}

	_ = all.SetReadDeadline(time.Now().Add(2 * time.Second))
	for _, want := range []string{"other", "mine"} {
		if err := all.ReadJSON(&got); err != nil {
			t.Fatalf("read: %v", err)
		}
		if got.Text != want {
			t.Fatalf("got %q, want %q", got.Text, want)
		}
	}
}
