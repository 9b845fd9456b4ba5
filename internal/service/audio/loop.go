// Package audio runs the recording-and-transcription loop of a consultation:
// fixed-period segments are cut from a capture device, packaged as WAV and
// uploaded concurrently, and usable transcriptions are appended to the
// meeting transcript.
package audio

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"healthcare-portal-service/internal/models"
	"healthcare-portal-service/internal/observability/logging"
	"healthcare-portal-service/internal/observability/metrics"
	"healthcare-portal-service/internal/service/segment"
	"healthcare-portal-service/internal/service/stt"
	"healthcare-portal-service/internal/service/transcript"
)

// State is the loop state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRecording:
		return "RECORDING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Config holds per-loop settings.
type Config struct {
	MeetingID     string
	Room          string
	SegmentPeriod time.Duration
	UploadTimeout time.Duration
	Sentinel      string
	// MaxSegmentBytes bounds one segment's audio (0 disables).
	MaxSegmentBytes int64
	// Ordered appends fragments in capture order instead of completion order.
	Ordered bool
}

// DefaultConfig returns the loop settings for meetingID.
func DefaultConfig(meetingID string) Config {
	return Config{
		MeetingID:       meetingID,
		SegmentPeriod:   3 * time.Second,
		UploadTimeout:   30 * time.Second,
		Sentinel:        stt.DefaultSentinel,
		MaxSegmentBytes: 2 * 1024 * 1024,
	}
}

// Ticker is the segment timer.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the wall-clock TickerFunc.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Publisher receives transcript events.
type Publisher interface {
	PublishFragment(ctx context.Context, ev models.TranscriptFragment) error
	PublishCompleted(ctx context.Context, ev models.TranscriptCompleted) error
}

// Archiver stores the final transcript of a run.
type Archiver interface {
	Archive(ctx context.Context, rec models.TranscriptRecord) error
}

// FragmentFunc is called for every appended fragment with the transcript
// as it stands after the append. It runs on the upload goroutine.
type FragmentFunc func(ev models.TranscriptFragment, transcript string)

// Option configures a Loop.
type Option func(*Loop)

// WithPublisher publishes fragment and completion events.
func WithPublisher(p Publisher) Option {
	return func(l *Loop) { l.publisher = p }
}

// WithArchiver archives the final transcript on teardown.
func WithArchiver(a Archiver) Option {
	return func(l *Loop) { l.archiver = a }
}

// WithFragmentHandler registers fn for appended fragments.
func WithFragmentHandler(fn FragmentFunc) Option {
	return func(l *Loop) { l.onFragment = fn }
}

// WithTicker replaces the wall-clock segment timer.
func WithTicker(fn TickerFunc) Option {
	return func(l *Loop) { l.newTicker = fn }
}

// Loop is one run of the recording-and-transcription loop. It is not
// reusable: Run may be called once.
type Loop struct {
	cfg         Config
	device      Device
	transcriber stt.Transcriber
	publisher   Publisher
	archiver    Archiver
	onFragment  FragmentFunc
	newTicker   TickerFunc
	metrics     *metrics.Metrics
	logger      zerolog.Logger

	segments *segment.Generator
	buffer   *transcript.Buffer
	uploads  sync.WaitGroup

	mu        sync.RWMutex
	state     State
	ran       bool
	startedAt time.Time
}

// NewLoop creates a loop reading from device and uploading to transcriber.
func NewLoop(cfg Config, device Device, transcriber stt.Transcriber, opts ...Option) *Loop {
	def := DefaultConfig(cfg.MeetingID)
	if cfg.SegmentPeriod <= 0 {
		cfg.SegmentPeriod = def.SegmentPeriod
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = def.UploadTimeout
	}
	if cfg.Sentinel == "" {
		cfg.Sentinel = def.Sentinel
	}

	l := &Loop{
		cfg:         cfg,
		device:      device,
		transcriber: transcriber,
		newTicker:   NewTimeTicker,
		metrics:     metrics.DefaultMetrics,
		logger:      logging.WithMeeting(cfg.MeetingID, cfg.Room),
		segments:    segment.New(),
		buffer:      transcript.NewBuffer(cfg.Ordered),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the loop state.
func (l *Loop) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Transcript returns the transcript so far.
func (l *Loop) Transcript() string {
	return l.buffer.Text()
}

// SegmentsCaptured returns how many segments were cut, including dropped
// ones.
func (l *Loop) SegmentsCaptured() int {
	return l.segments.Issued()
}

// Wait blocks until every upload started by the loop has completed.
func (l *Loop) Wait() {
	l.uploads.Wait()
}

// Run opens the device and records until ctx is cancelled or the device
// ends. A device that cannot be opened ends the run without error.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.ran {
		l.mu.Unlock()
		return nil
	}
	l.ran = true
	l.mu.Unlock()

	if err := l.device.Open(ctx); err != nil {
		l.logger.Debug().Err(err).Msg("Capture unavailable, recording loop aborted")
		l.device.Close()
		l.buffer.Close()
		l.setState(StateClosed)
		return nil
	}

	l.mu.Lock()
	l.state = StateRecording
	l.startedAt = time.Now()
	l.mu.Unlock()

	l.metrics.RecordConferenceStart()
	l.logger.Info().
		Dur("segmentPeriod", l.cfg.SegmentPeriod).
		Bool("ordered", l.cfg.Ordered).
		Str("sttProvider", l.transcriber.Name()).
		Msg("Recording loop started")

	ticker := l.newTicker(l.cfg.SegmentPeriod)
	rec := l.nextRecorder()
	frames := l.device.Frames()

	for {
		select {
		case <-ctx.Done():
			l.teardown(ctx, ticker, rec, "context done")
			return nil

		case frame, ok := <-frames:
			if !ok {
				l.teardown(ctx, ticker, rec, "device closed")
				return nil
			}
			l.metrics.RecordAudioReceived(len(frame))
			if !rec.Write(frame) {
				l.metrics.RecordFrameDropped()
			}

		case <-ticker.C():
			// Swap first so capture continues while the old segment uploads.
			prev := rec
			rec = l.nextRecorder()
			l.dispatch(ctx, prev)
		}
	}
}

func (l *Loop) nextRecorder() *Recorder {
	id, seq := l.segments.Next(l.cfg.MeetingID)
	return NewRecorder(id, seq, l.cfg.MaxSegmentBytes)
}

// dispatch hands a stopped segment to its own upload goroutine.
func (l *Loop) dispatch(ctx context.Context, rec *Recorder) {
	lc := rec.Lifecycle()
	pcm := rec.Stop()
	logger := logging.WithSegment(l.cfg.MeetingID, lc.SegmentID(), lc.Seq())

	if n := rec.DroppedFrames(); n > 0 {
		logger.Warn().Int("droppedFrames", n).Int64("maxBytes", l.cfg.MaxSegmentBytes).Msg("Segment hit byte limit")
	}

	if len(pcm) == 0 {
		lc.Drop()
		l.buffer.Commit(lc.Seq(), "", false)
		l.metrics.RecordSegmentDropped("empty")
		logger.Debug().Msg("Empty segment not uploaded")
		return
	}

	if err := lc.Upload(); err != nil {
		logger.Warn().Err(err).Str("state", lc.State().String()).Msg("Segment not uploadable")
		return
	}
	l.metrics.RecordSegmentCaptured()

	seg := stt.Segment{
		ID:           lc.SegmentID(),
		Seq:          lc.Seq(),
		MeetingID:    l.cfg.MeetingID,
		Audio:        EncodeWAV(pcm, l.device.SampleRate()),
		ContentType:  "audio/wav",
		SampleRateHz: l.device.SampleRate(),
	}

	// Uploads outlive the run; teardown does not cancel them.
	uctx := context.WithoutCancel(ctx)
	l.uploads.Add(1)
	go func() {
		defer l.uploads.Done()
		l.upload(uctx, seg, lc)
	}()
}

func (l *Loop) upload(ctx context.Context, seg stt.Segment, lc *segment.Lifecycle) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.UploadTimeout)
	defer cancel()

	logger := logging.WithUpload(l.cfg.MeetingID, seg.ID, l.transcriber.Name())
	start := time.Now()
	l.metrics.RecordUploadStart()

	text, err := l.transcriber.Transcribe(ctx, seg)
	result := stt.Classify(text, err, l.cfg.Sentinel)
	l.metrics.RecordUploadEnd(l.transcriber.Name(), string(result), time.Since(start).Seconds())

	appended := l.buffer.Commit(seg.Seq, text, result.Usable())

	outcome := segment.OutcomeAppended
	switch {
	case result == stt.ResultError:
		outcome = segment.OutcomeFailed
		logger.Debug().Err(err).Msg("Transcription failed, segment ignored")
	case !result.Usable():
		outcome = segment.OutcomeDiscarded
		logger.Debug().Str("result", string(result)).Msg("No usable transcription")
	case len(appended) == 0 && l.buffer.Closed():
		outcome = segment.OutcomeDiscarded
		logger.Debug().Msg("Transcription arrived after teardown, ignored")
	}
	if err := lc.Complete(outcome); err != nil {
		logger.Warn().Err(err).Msg("Segment completion rejected")
	}

	if len(appended) == 0 {
		return
	}
	full := l.buffer.Text()
	for _, f := range appended {
		l.emit(ctx, f, full)
	}
}

func (l *Loop) emit(ctx context.Context, f transcript.Fragment, full string) {
	l.metrics.RecordFragment()
	ev := models.TranscriptFragment{
		EventType: models.EventTranscriptFragment,
		MeetingID: l.cfg.MeetingID,
		Room:      l.cfg.Room,
		SegmentID: segment.ID(l.cfg.MeetingID, f.Seq),
		Seq:       f.Seq,
		Text:      f.Text,
		Timestamp: time.Now().UnixMilli(),
	}
	if l.publisher != nil {
		if err := l.publisher.PublishFragment(ctx, ev); err != nil {
			l.logger.Warn().Err(err).Str("segmentId", ev.SegmentID).Msg("Failed to publish fragment")
		}
	}
	if l.onFragment != nil {
		l.onFragment(ev, full)
	}
}

// teardown drops the partial segment, releases the timer and device and
// closes the transcript. Nothing is captured or uploaded afterwards.
func (l *Loop) teardown(ctx context.Context, ticker Ticker, rec *Recorder, reason string) {
	ticker.Stop()
	if rec.Discard() {
		l.metrics.RecordSegmentDropped("teardown")
	}
	if err := l.device.Close(); err != nil {
		l.logger.Warn().Err(err).Msg("Failed to close capture device")
	}
	final := l.buffer.Close()
	l.setState(StateClosed)
	l.metrics.RecordConferenceEnd()

	l.mu.RLock()
	startedAt := l.startedAt
	l.mu.RUnlock()
	endedAt := time.Now()

	l.logger.Info().
		Str("reason", reason).
		Int("segments", l.segments.Issued()).
		Int("fragments", l.buffer.Len()).
		Dur("duration", endedAt.Sub(startedAt)).
		Msg("Recording loop closed")

	if l.publisher == nil && l.archiver == nil {
		return
	}

	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if l.publisher != nil {
		err := l.publisher.PublishCompleted(hctx, models.TranscriptCompleted{
			EventType:        models.EventTranscriptCompleted,
			MeetingID:        l.cfg.MeetingID,
			Room:             l.cfg.Room,
			Text:             final,
			SegmentsCaptured: l.segments.Issued(),
			Fragments:        l.buffer.Len(),
			StartedAt:        startedAt.UnixMilli(),
			EndedAt:          endedAt.UnixMilli(),
		})
		if err != nil {
			l.logger.Warn().Err(err).Msg("Failed to publish completed transcript")
		}
	}

	if l.archiver != nil && final != "" {
		err := l.archiver.Archive(hctx, models.TranscriptRecord{
			MeetingID:        l.cfg.MeetingID,
			Room:             l.cfg.Room,
			Text:             final,
			SegmentsCaptured: l.segments.Issued(),
			Fragments:        l.buffer.Len(),
			StartedAt:        startedAt,
			EndedAt:          endedAt,
		})
		if err != nil {
			l.metrics.RecordArchiveError()
			l.logger.Error().Err(err).Msg("Failed to archive transcript")
		}
	}
}
