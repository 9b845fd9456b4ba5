package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-portal-service/internal/service/stt"
)

func TestClient_TranscribeSendsMultipartAudio(t *testing.T) {
	audio := []byte("RIFF....WAVEfmt ")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		f, hdr, err := r.FormFile(FormField)
		require.NoError(t, err)
		defer f.Close()

		got, _ := io.ReadAll(f)
		assert.Equal(t, audio, got)
		assert.Equal(t, "A123-seg-1.wav", hdr.Filename)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"transcription":"my head hurts"}`)
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL})
	text, err := c.Transcribe(context.Background(), stt.Segment{ID: "A123-seg-1", Seq: 1, Audio: audio})

	require.NoError(t, err)
	assert.Equal(t, "my head hurts", text)
	assert.Equal(t, "remote", c.Name())
}

func TestClient_SentinelIsReturnedAsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"transcription":"Transcription failed"}`)
	}))
	defer srv.Close()

	text, err := New(Config{Endpoint: srv.URL}).Transcribe(context.Background(), stt.Segment{ID: "s"})

	require.NoError(t, err)
	assert.Equal(t, stt.DefaultSentinel, text)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	text, err := New(Config{Endpoint: srv.URL}).Transcribe(context.Background(), stt.Segment{ID: "s"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, stt.ErrTranscriptionFailed))
	assert.Empty(t, text)
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	_, err := New(Config{Endpoint: srv.URL}).Transcribe(context.Background(), stt.Segment{ID: "s"})
	assert.Error(t, err)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `{"transcription":"late"}`)
	}))
	defer srv.Close()

	_, err := New(Config{Endpoint: srv.URL, Timeout: 20 * time.Millisecond}).
		Transcribe(context.Background(), stt.Segment{ID: "s"})
	assert.Error(t, err)
}
