package audio

import (
	"testing"

	"healthcare-portal-service/internal/service/segment"
)

func TestRecorder_WriteAndStop(t *testing.T) {
	r := NewRecorder("m-seg-1", 1, 0)

	r.Write([]byte{1, 2})
	r.Write([]byte{3, 4})
	if r.Len() != 4 {
		t.Errorf("expected 4 bytes buffered, got %d", r.Len())
	}

	pcm := r.Stop()
	if string(pcm) != string([]byte{1, 2, 3, 4}) {
		t.Errorf("unexpected pcm %v", pcm)
	}
	if r.Write([]byte{5}) {
		t.Error("expected write after stop to be rejected")
	}
	if r.Len() != 0 {
		t.Errorf("expected empty buffer after stop, got %d", r.Len())
	}
}

func TestRecorder_MaxBytesDropsFrames(t *testing.T) {
	r := NewRecorder("m-seg-1", 1, 100)

	if !r.Write(make([]byte, 60)) {
		t.Fatal("expected first frame to fit")
	}
	if r.Write(make([]byte, 60)) {
		t.Error("expected frame over the limit to be dropped")
	}
	if !r.Write(make([]byte, 40)) {
		t.Error("expected frame that fits exactly to be accepted")
	}

	if r.DroppedFrames() != 1 {
		t.Errorf("expected 1 dropped frame, got %d", r.DroppedFrames())
	}
	if r.Len() != 100 {
		t.Errorf("expected 100 bytes, got %d", r.Len())
	}
}

func TestRecorder_Discard(t *testing.T) {
	r := NewRecorder("m-seg-1", 1, 0)
	r.Write([]byte{1})

	if !r.Discard() {
		t.Fatal("expected recording segment to be dropped")
	}
	if r.Lifecycle().State() != segment.StateDropped {
		t.Errorf("expected DROPPED, got %s", r.Lifecycle().State())
	}
	if r.Len() != 0 {
		t.Error("expected discarded audio to be cleared")
	}
}

func TestRecorder_DiscardAfterUpload(t *testing.T) {
	r := NewRecorder("m-seg-1", 1, 0)
	r.Stop()
	if err := r.Lifecycle().Upload(); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if r.Discard() {
		t.Error("expected uploading segment not to be dropped")
	}
}
