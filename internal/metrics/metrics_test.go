package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_ObserveStage(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.ObserveStage("vision", "azure-vision", nil, 50*time.Millisecond)
	r.ObserveStage("vision", "azure-vision", nil, 70*time.Millisecond)
	r.ObserveStage("translation", "azure-translator", errors.New("boom"), time.Second)

	if got := testutil.ToFloat64(r.StageTotal.WithLabelValues("vision", "azure-vision", ResultSuccess)); got != 2 {
		t.Errorf("vision success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.StageTotal.WithLabelValues("translation", "azure-translator", ResultError)); got != 1 {
		t.Errorf("translation error count = %v, want 1", got)
	}
}

func TestRecorder_ObserveRequest(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.ObserveRequest("POST /describe", 200, time.Millisecond)
	r.ObserveRequest("POST /describe", 400, time.Millisecond)
	r.ObserveRequest("POST /describe", 500, time.Millisecond)

	for _, class := range []string{"2xx", "4xx", "5xx"} {
		if got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues("POST /describe", class)); got != 1 {
			t.Errorf("requests[%s] = %v, want 1", class, got)
		}
	}
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	// Must not panic.
	r.ObserveStage("vision", "mock", nil, time.Second)
	r.ObserveRequest("GET /", 200, time.Second)
}
