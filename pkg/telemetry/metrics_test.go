package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDisabledMetricsAreNoOps(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	// None of these may panic on a disabled instance.
	m.RecordRunStarted("apply")
	m.RecordRunCompleted("apply", "ok", time.Second)
	m.RecordEnsureOutcome("user", "create")
	m.RecordRemoteCall("drive", "files.create", time.Millisecond)
	m.RecordRemoteError("drive", "files.create")
	m.RecordCacheLookup("hit")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("disabled metrics handler should 404, got %d", rec.Code)
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.RecordRunStarted("plan")
	m.RecordEnsureOutcome("doc", "skip")
	if m.Handler() == nil {
		t.Fatal("nil metrics must still return a handler")
	}
}

func TestEnabledMetricsExposeCounters(t *testing.T) {
	cfg := DefaultMetricsConfig()
	cfg.Enabled = true
	m, err := NewMetrics(cfg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.RecordEnsureOutcome("drive", "create")
	m.RecordEnsureOutcome("drive", "skip")
	m.RecordRemoteCall("directory", "users.insert", 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("metrics handler returned %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`gwsynth_ensure_outcomes_total{kind="drive",outcome="create"} 1`,
		`gwsynth_ensure_outcomes_total{kind="drive",outcome="skip"} 1`,
		`gwsynth_remote_calls_total{operation="users.insert",service="directory"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}
