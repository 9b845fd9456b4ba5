package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordUploadEnd_TracksInFlightAndOutcome(t *testing.T) {
	m := DefaultMetrics
	before := testutil.ToFloat64(m.UploadsTotal.WithLabelValues("mock", "sentinel"))

	m.RecordUploadStart()
	if got := testutil.ToFloat64(m.UploadsInFlight); got < 1 {
		t.Errorf("expected at least one upload in flight, got %v", got)
	}
	m.RecordUploadEnd("mock", "sentinel", 0.2)

	after := testutil.ToFloat64(m.UploadsTotal.WithLabelValues("mock", "sentinel"))
	if after != before+1 {
		t.Errorf("expected sentinel count to grow by 1, got %v -> %v", before, after)
	}
}

func TestRecordTranslation_Result(t *testing.T) {
	m := DefaultMetrics
	okBefore := testutil.ToFloat64(m.TranslationsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(m.TranslationsTotal.WithLabelValues("error"))

	m.RecordTranslation(nil, 0.1)
	m.RecordTranslation(errors.New("boom"), 0.1)

	if got := testutil.ToFloat64(m.TranslationsTotal.WithLabelValues("ok")); got != okBefore+1 {
		t.Errorf("ok count = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(m.TranslationsTotal.WithLabelValues("error")); got != errBefore+1 {
		t.Errorf("error count = %v, want %v", got, errBefore+1)
	}
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{200: "2xx", 204: "2xx", 302: "3xx", 404: "4xx", 502: "5xx"}
	for status, want := range tests {
		if got := statusClass(status); got != want {
			t.Errorf("statusClass(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestRecordGRPCCall(t *testing.T) {
	m := DefaultMetrics
	c := m.GRPCCalls.WithLabelValues("/grpc.health.v1.Health/Check", "OK")
	before := testutil.ToFloat64(c)

	m.RecordGRPCCall("/grpc.health.v1.Health/Check", "OK", 0.001)

	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("call count = %v, want %v", got, before+1)
	}
}
