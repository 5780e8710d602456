package generate

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestExpvarRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "generate", true, 40*time.Millisecond)
	rec.Observe(ctx, "generate", true, 60*time.Millisecond)
	rec.Observe(ctx, "generate", false, 10*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second) // ignored

	snap := rec.Snapshot()
	if got := snap.DurationsMS["generate"]; got != 110 {
		t.Fatalf("durations = %v ms, want 110", got)
	}
	if snap.Results["generate"]["success"] != 2 || snap.Results["generate"]["error"] != 1 {
		t.Fatalf("results = %v", snap.Results["generate"])
	}
	if len(snap.Results) != 1 {
		t.Fatalf("unexpected operations recorded: %v", snap.Results)
	}
}

func TestExpvarRecorderGeneratesUniqueNames(t *testing.T) {
	a := NewExpvarMetricsRecorder("")
	b := NewExpvarMetricsRecorder("")
	if a.Name() == b.Name() {
		t.Fatalf("both recorders published as %q", a.Name())
	}
	if !strings.HasPrefix(a.Name(), "rig_generate_metrics_") {
		t.Fatalf("generated name = %q", a.Name())
	}
}

func TestExpvarSnapshotIsACopy(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "generate", true, time.Millisecond)

	snap := rec.Snapshot()
	snap.DurationsMS["generate"] = 999
	snap.Results["generate"]["success"] = 999

	again := rec.Snapshot()
	if again.DurationsMS["generate"] == 999 || again.Results["generate"]["success"] == 999 {
		t.Fatal("mutating a snapshot leaked into the recorder")
	}
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("NewPrometheusMetricsRecorder: %v", err)
	}

	ctx := context.Background()
	rec.Observe(ctx, "generate", true, 25*time.Millisecond)
	rec.Observe(ctx, "phase_initialize", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Second) // ignored

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	for _, want := range []string{
		"rigcore_generate_operation_duration_seconds",
		"rigcore_generate_operation_results_total",
	} {
		if !names[want] {
			t.Fatalf("metric family %s not exported; got %v", want, names)
		}
	}
}

func TestPrometheusRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetricsRecorder(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatal("second registration on the same registry succeeded")
	}
}

func TestSetLoggerRoundTrip(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	var sink strings.Builder
	SetLogger(slog.New(slog.NewTextHandler(&sink, nil)))
	defaultLogger().Info("probe")
	if !strings.Contains(sink.String(), "probe") {
		t.Fatalf("installed logger did not receive output: %q", sink.String())
	}

	SetLogger(nil)
	before := sink.Len()
	defaultLogger().Info("silent")
	if sink.Len() != before {
		t.Fatal("nil SetLogger did not restore the silent default")
	}
}
