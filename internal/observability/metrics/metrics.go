// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "healthcare_portal"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// gRPC metrics
	GRPCCalls     *prometheus.CounterVec
	GRPCDuration  *prometheus.HistogramVec
	StreamsActive prometheus.Gauge

	// Capture loop metrics
	ConferencesActive prometheus.Gauge
	SegmentsCaptured  prometheus.Counter
	SegmentsDropped   *prometheus.CounterVec
	FramesDropped     prometheus.Counter
	AudioBytes        prometheus.Counter

	// Upload metrics
	UploadsInFlight prometheus.Gauge
	UploadsTotal    *prometheus.CounterVec
	UploadLatency   *prometheus.HistogramVec
	FragmentsTotal  prometheus.Counter

	// Translation metrics
	TranslationsTotal  *prometheus.CounterVec
	TranslationLatency prometheus.Histogram

	// Session metrics
	SessionsCreated prometheus.Counter
	SessionErrors   *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Archive metrics
	ArchiveErrors prometheus.Counter
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),

		GRPCCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_calls_total",
			Help:      "Total number of gRPC calls by method and code",
		}, []string{"method", "code"}),
		GRPCDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_call_duration_seconds",
			Help:      "gRPC call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 300},
		}, []string{"method"}),
		StreamsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grpc_streams_active",
			Help:      "Number of currently open gRPC streams",
		}),

		ConferencesActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conferences_active",
			Help:      "Number of running recording loops",
		}),
		SegmentsCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_captured_total",
			Help:      "Total number of audio segments handed to upload",
		}),
		SegmentsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_dropped_total",
			Help:      "Total number of segments dropped before upload",
		}, []string{"reason"}),
		FramesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Audio frames dropped because a segment hit its byte limit",
		}),
		AudioBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received from capture devices",
		}),

		UploadsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uploads_in_flight",
			Help:      "Segment uploads currently awaiting a transcription",
		}),
		UploadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Segment uploads by outcome",
		}, []string{"provider", "result"}),
		UploadLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_latency_seconds",
			Help:      "Segment upload to transcription latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider"}),
		FragmentsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_fragments_total",
			Help:      "Transcript fragments appended to buffers",
		}),

		TranslationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translations_total",
			Help:      "Translation gateway calls by outcome",
		}, []string{"result"}),
		TranslationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "translation_latency_seconds",
			Help:      "Translation gateway latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),

		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions created by the cookie middleware",
		}),
		SessionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_errors_total",
			Help:      "Session store failures",
		}, []string{"op"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		ArchiveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_errors_total",
			Help:      "Transcript archive write failures",
		}),
	}
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordGRPCCall records a finished unary call or stream.
func (m *Metrics) RecordGRPCCall(method, code string, durationSeconds float64) {
	m.GRPCCalls.WithLabelValues(method, code).Inc()
	m.GRPCDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordStreamStart records a gRPC stream opening.
func (m *Metrics) RecordStreamStart() {
	m.StreamsActive.Inc()
}

// RecordStreamEnd records a gRPC stream closing.
func (m *Metrics) RecordStreamEnd() {
	m.StreamsActive.Dec()
}

// RecordConferenceStart records a recording loop entering the Recording state.
func (m *Metrics) RecordConferenceStart() {
	m.ConferencesActive.Inc()
}

// RecordConferenceEnd records a recording loop teardown.
func (m *Metrics) RecordConferenceEnd() {
	m.ConferencesActive.Dec()
}

// RecordAudioReceived records audio bytes received from a device.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytes.Add(float64(bytes))
}

// RecordFrameDropped records a frame rejected by the segment byte limit.
func (m *Metrics) RecordFrameDropped() {
	m.FramesDropped.Inc()
}

// RecordSegmentCaptured records a segment handed to upload.
func (m *Metrics) RecordSegmentCaptured() {
	m.SegmentsCaptured.Inc()
}

// RecordSegmentDropped records a segment that never reached upload.
func (m *Metrics) RecordSegmentDropped(reason string) {
	m.SegmentsDropped.WithLabelValues(reason).Inc()
}

// RecordUploadStart records an upload leaving for the transcriber.
func (m *Metrics) RecordUploadStart() {
	m.UploadsInFlight.Inc()
}

// RecordUploadEnd records an upload completion and its outcome
// (appended, sentinel, blank, error).
func (m *Metrics) RecordUploadEnd(provider, result string, latencySeconds float64) {
	m.UploadsInFlight.Dec()
	m.UploadsTotal.WithLabelValues(provider, result).Inc()
	m.UploadLatency.WithLabelValues(provider).Observe(latencySeconds)
}

// RecordFragment records a transcript fragment appended to a buffer.
func (m *Metrics) RecordFragment() {
	m.FragmentsTotal.Inc()
}

// RecordTranslation records a translation gateway call.
func (m *Metrics) RecordTranslation(err error, latencySeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.TranslationsTotal.WithLabelValues(result).Inc()
	m.TranslationLatency.Observe(latencySeconds)
}

// RecordSessionCreated records a new session.
func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreated.Inc()
}

// RecordSessionError records a session store failure for op (load, save, delete).
func (m *Metrics) RecordSessionError(op string) {
	m.SessionErrors.WithLabelValues(op).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordArchiveError records a failed transcript archive write.
func (m *Metrics) RecordArchiveError() {
	m.ArchiveErrors.Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
