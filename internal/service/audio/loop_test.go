package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-portal-service/internal/models"
	"healthcare-portal-service/internal/service/stt"
)

const waitFor = 2 * time.Second

type fakeDevice struct {
	frames  chan []byte
	openErr error
	closed  atomic.Bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{frames: make(chan []byte)}
}

func (d *fakeDevice) Open(ctx context.Context) error { return d.openErr }
func (d *fakeDevice) Frames() <-chan []byte          { return d.frames }
func (d *fakeDevice) SampleRate() int                { return 16000 }
func (d *fakeDevice) Close() error {
	d.closed.Store(true)
	return nil
}

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

func (t *fakeTicker) tick() { t.ch <- time.Now() }

type reply struct {
	text string
	err  error
}

// gateTranscriber blocks each upload until the test releases it.
type gateTranscriber struct {
	started chan stt.Segment
	mu      sync.Mutex
	gates   map[int]chan reply
	calls   atomic.Int32
}

func newGateTranscriber() *gateTranscriber {
	return &gateTranscriber{
		started: make(chan stt.Segment, 16),
		gates:   make(map[int]chan reply),
	}
}

func (g *gateTranscriber) gate(seq int) chan reply {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[seq]
	if !ok {
		ch = make(chan reply, 1)
		g.gates[seq] = ch
	}
	return ch
}

func (g *gateTranscriber) release(seq int, text string, err error) {
	g.gate(seq) <- reply{text: text, err: err}
}

func (g *gateTranscriber) Name() string { return "gate" }

func (g *gateTranscriber) Transcribe(ctx context.Context, seg stt.Segment) (string, error) {
	g.calls.Add(1)
	g.started <- seg
	r := <-g.gate(seg.Seq)
	return r.text, r.err
}

type recordingPublisher struct {
	mu        sync.Mutex
	fragments []models.TranscriptFragment
	completed []models.TranscriptCompleted
}

func (p *recordingPublisher) PublishFragment(ctx context.Context, ev models.TranscriptFragment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fragments = append(p.fragments, ev)
	return nil
}

func (p *recordingPublisher) PublishCompleted(ctx context.Context, ev models.TranscriptCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, ev)
	return nil
}

type recordingArchiver struct {
	records []models.TranscriptRecord
}

func (a *recordingArchiver) Archive(ctx context.Context, rec models.TranscriptRecord) error {
	a.records = append(a.records, rec)
	return nil
}

type harness struct {
	t      *testing.T
	dev    *fakeDevice
	ticker *fakeTicker
	tr     *gateTranscriber
	loop   *Loop
	cancel context.CancelFunc
	done   chan error
}

func startLoop(t *testing.T, cfg Config, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		dev:    newFakeDevice(),
		ticker: &fakeTicker{ch: make(chan time.Time)},
		tr:     newGateTranscriber(),
		done:   make(chan error, 1),
	}
	opts = append(opts, WithTicker(func(time.Duration) Ticker { return h.ticker }))
	h.loop = NewLoop(cfg, h.dev, h.tr, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.loop.Run(ctx) }()
	return h
}

// segment feeds one frame and cuts the segment.
func (h *harness) segment() {
	h.dev.frames <- []byte{1, 0, 2, 0}
	h.ticker.tick()
}

func (h *harness) awaitUpload() stt.Segment {
	h.t.Helper()
	select {
	case seg := <-h.tr.started:
		return seg
	case <-time.After(waitFor):
		h.t.Fatal("timed out waiting for upload to start")
		return stt.Segment{}
	}
}

func (h *harness) stop() {
	h.t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		require.NoError(h.t, err)
	case <-time.After(waitFor):
		h.t.Fatal("timed out waiting for loop to stop")
	}
}

func TestLoop_NextCaptureStartsWhileUploadPending(t *testing.T) {
	h := startLoop(t, Config{MeetingID: "A123"})

	h.segment()
	first := h.awaitUpload()
	assert.Equal(t, 1, first.Seq)

	// First upload is still blocked; the timer keeps cutting segments.
	h.segment()
	second := h.awaitUpload()
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, "A123-seg-2", second.ID)
	assert.Equal(t, StateRecording, h.loop.State())

	h.tr.release(2, "world", nil)
	h.tr.release(1, "hello", nil)
	h.loop.Wait()

	assert.Equal(t, "world hello", h.loop.Transcript())
	h.stop()
}

func TestLoop_SegmentAudioIsWAV(t *testing.T) {
	h := startLoop(t, Config{MeetingID: "A123"})

	h.segment()
	seg := h.awaitUpload()

	pcm, rate, err := DecodeWAV(seg.Audio)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 2, 0}, pcm)
	assert.Equal(t, 16000, rate)
	assert.Equal(t, "audio/wav", seg.ContentType)

	h.tr.release(1, "ok", nil)
	h.loop.Wait()
	h.stop()
}

func TestLoop_UnusableResponsesNeverAppend(t *testing.T) {
	h := startLoop(t, Config{MeetingID: "A123"})

	replies := []reply{
		{text: "my head"},
		{text: stt.DefaultSentinel},
		{err: errors.New("502 bad gateway")},
		{text: "  "},
		{text: "hurts"},
	}
	for i, r := range replies {
		h.segment()
		h.awaitUpload()
		h.tr.release(i+1, r.text, r.err)
		h.loop.Wait()
	}

	assert.Equal(t, "my head hurts", h.loop.Transcript())
	h.stop()
}

func TestLoop_TeardownDropsPartialSegment(t *testing.T) {
	h := startLoop(t, Config{MeetingID: "A123"})

	h.dev.frames <- []byte{1, 2}
	h.stop()

	assert.Equal(t, StateClosed, h.loop.State())
	assert.True(t, h.dev.closed.Load(), "device released")
	assert.True(t, h.ticker.stopped.Load(), "timer released")
	assert.Zero(t, h.tr.calls.Load(), "partial segment must not be uploaded")
}

func TestLoop_LateCompletionIgnoredAfterTeardown(t *testing.T) {
	pub := &recordingPublisher{}
	h := startLoop(t, Config{MeetingID: "A123"}, WithPublisher(pub))

	h.segment()
	h.awaitUpload()
	h.stop()

	h.tr.release(1, "too late", nil)
	h.loop.Wait()

	assert.Equal(t, "", h.loop.Transcript())
	assert.Empty(t, pub.fragments)
	require.Len(t, pub.completed, 1)
	assert.Equal(t, "", pub.completed[0].Text)
}

func TestLoop_DeviceEndTearsDown(t *testing.T) {
	h := startLoop(t, Config{MeetingID: "A123"})

	h.segment()
	h.awaitUpload()
	close(h.dev.frames)

	select {
	case err := <-h.done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("loop did not stop when the device ended")
	}
	assert.Equal(t, StateClosed, h.loop.State())

	h.tr.release(1, "x", nil)
	h.loop.Wait()
}

func TestLoop_OpenFailureAbortsSilently(t *testing.T) {
	dev := newFakeDevice()
	dev.openErr = ErrPermissionDenied
	tr := newGateTranscriber()

	l := NewLoop(Config{MeetingID: "A123"}, dev, tr)
	err := l.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateClosed, l.State())
	assert.Zero(t, tr.calls.Load())
}

func TestLoop_EmptySegmentNotUploaded(t *testing.T) {
	h := startLoop(t, Config{MeetingID: "A123"})

	h.ticker.tick()
	h.segment()
	seg := h.awaitUpload()
	assert.Equal(t, 2, seg.Seq)

	h.tr.release(2, "hi", nil)
	h.loop.Wait()
	h.stop()

	assert.Equal(t, int32(1), h.tr.calls.Load())
	assert.Equal(t, "hi", h.loop.Transcript())
}

func TestLoop_OrderedAppendsInCaptureOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	onFragment := func(ev models.TranscriptFragment, full string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, full)
	}
	h := startLoop(t, Config{MeetingID: "A123", Ordered: true}, WithFragmentHandler(onFragment))

	h.segment()
	h.awaitUpload()
	h.segment()
	h.awaitUpload()

	h.tr.release(2, "two", nil)
	// Wait for upload 2 to finish by checking the held fragment.
	require.Eventually(t, func() bool { return h.loop.buffer.Pending() == 1 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, "", h.loop.Transcript())

	h.tr.release(1, "one", nil)
	h.loop.Wait()

	assert.Equal(t, "one two", h.loop.Transcript())
	mu.Lock()
	assert.Equal(t, []string{"one two", "one two"}, seen)
	mu.Unlock()
	h.stop()
}

func TestLoop_PublishesAndArchives(t *testing.T) {
	pub := &recordingPublisher{}
	arch := &recordingArchiver{}
	h := startLoop(t, Config{MeetingID: "A123", Room: "consultation-a123"}, WithPublisher(pub), WithArchiver(arch))

	h.segment()
	h.awaitUpload()
	h.tr.release(1, "hello doctor", nil)
	h.loop.Wait()
	h.stop()

	require.Len(t, pub.fragments, 1)
	f := pub.fragments[0]
	assert.Equal(t, models.EventTranscriptFragment, f.EventType)
	assert.Equal(t, "A123-seg-1", f.SegmentID)
	assert.Equal(t, "consultation-a123", f.Room)
	assert.Equal(t, "hello doctor", f.Text)

	require.Len(t, pub.completed, 1)
	assert.Equal(t, "hello doctor", pub.completed[0].Text)
	assert.Equal(t, 1, pub.completed[0].Fragments)

	require.Len(t, arch.records, 1)
	assert.Equal(t, "A123", arch.records[0].MeetingID)
	assert.Equal(t, "hello doctor", arch.records[0].Text)
}

func TestLoop_RunOnce(t *testing.T) {
	dev := newFakeDevice()
	dev.openErr = errors.New("no mic")
	l := NewLoop(Config{MeetingID: "A123"}, dev, newGateTranscriber())

	require.NoError(t, l.Run(context.Background()))
	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, StateClosed, l.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "RECORDING", StateRecording.String())
	assert.Equal(t, "CLOSED", StateClosed.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}
