package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// ErrPermissionDenied is returned by Open when the client refuses capture.
var ErrPermissionDenied = errors.New("audio: capture permission denied")

// Device is a microphone-like source of 16-bit mono PCM frames.
type Device interface {
	// Open blocks until capture is granted. Any error aborts the loop.
	Open(ctx context.Context) error

	// Frames delivers PCM frames. The channel is closed when the source ends.
	Frames() <-chan []byte

	SampleRate() int

	// Close releases the device. Safe to call more than once.
	Close() error
}

// FileConfig configures a FileDevice.
type FileConfig struct {
	Path       string
	SampleRate int // raw PCM only; WAV files carry their own
	FrameBytes int
	// Realtime paces frames at the audio's own rate.
	Realtime bool
}

// FileDevice replays a WAV or raw PCM file as a capture device.
type FileDevice struct {
	cfg    FileConfig
	pcm    []byte
	rate   int
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

// NewFileDevice creates a device that reads cfg.Path on Open.
func NewFileDevice(cfg FileConfig) *FileDevice {
	if cfg.FrameBytes <= 0 {
		cfg.FrameBytes = 3200 // 100ms at 16kHz
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	return &FileDevice{
		cfg:    cfg,
		rate:   cfg.SampleRate,
		frames: make(chan []byte),
		done:   make(chan struct{}),
	}
}

// Open loads the file and starts emitting frames.
func (d *FileDevice) Open(ctx context.Context) error {
	data, err := os.ReadFile(d.cfg.Path)
	if err != nil {
		return fmt.Errorf("audio: open %s: %w", d.cfg.Path, err)
	}

	d.pcm = data
	if len(data) >= 4 && string(data[:4]) == "RIFF" {
		pcm, rate, err := DecodeWAV(data)
		if err != nil {
			return err
		}
		d.pcm, d.rate = pcm, rate
	}

	go d.emit()
	return nil
}

func (d *FileDevice) emit() {
	defer close(d.frames)

	frameDur := time.Duration(float64(d.cfg.FrameBytes) / float64(d.rate*2) * float64(time.Second))
	for off := 0; off < len(d.pcm); off += d.cfg.FrameBytes {
		end := off + d.cfg.FrameBytes
		if end > len(d.pcm) {
			end = len(d.pcm)
		}
		select {
		case d.frames <- d.pcm[off:end]:
		case <-d.done:
			return
		}
		if d.cfg.Realtime {
			select {
			case <-time.After(frameDur):
			case <-d.done:
				return
			}
		}
	}
}

// Frames implements Device.
func (d *FileDevice) Frames() <-chan []byte {
	return d.frames
}

// SampleRate implements Device.
func (d *FileDevice) SampleRate() int {
	return d.rate
}

// Close implements Device.
func (d *FileDevice) Close() error {
	d.once.Do(func() { close(d.done) })
	return nil
}
