package pipeline

import (
	"testing"
	"time"
)

func TestPhaseStats_SnapshotPercentiles(t *testing.T) {
	stats := NewPhaseStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(PhaseChunking, time.Duration(ms)*time.Millisecond)
	}

	snap, ok := stats.Snapshot()[PhaseChunking]
	if !ok {
		t.Fatal("expected a snapshot for the chunking phase")
	}
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 {
		t.Fatalf("expected min=100, got %d", snap.MinMs)
	}
	if snap.MaxMs != 500 {
		t.Fatalf("expected max=500, got %d", snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestPhaseStats_PhasesAreIndependent(t *testing.T) {
	stats := NewPhaseStats(time.Hour)
	stats.Record(PhaseExtraction, 100*time.Millisecond)
	stats.Record(PhaseChunking, 900*time.Millisecond)

	snap := stats.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(snap))
	}
	if snap[PhaseExtraction].MaxMs != 100 {
		t.Errorf("expected extraction max=100, got %d", snap[PhaseExtraction].MaxMs)
	}
	if snap[PhaseChunking].MinMs != 900 {
		t.Errorf("expected chunking min=900, got %d", snap[PhaseChunking].MinMs)
	}
	if _, ok := snap[PhaseCleaning]; ok {
		t.Error("expected no snapshot for a phase that was never recorded")
	}
}

func TestPhaseStats_PrunesExpiredSamples(t *testing.T) {
	stats := NewPhaseStats(10 * time.Millisecond)
	stats.Record(PhaseExtraction, 100*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected empty snapshot after prune, got %d phases", len(snap))
	}

	stats.Record(PhaseExtraction, 200*time.Millisecond)
	snap := stats.Snapshot()[PhaseExtraction]
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestPhaseStats_RecordClampsNegativeDuration(t *testing.T) {
	stats := NewPhaseStats(time.Hour)
	stats.Record(PhaseOrganization, -10*time.Millisecond)

	snap := stats.Snapshot()[PhaseOrganization]
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestPhaseStats_RecordAll(t *testing.T) {
	stats := NewPhaseStats(time.Hour)
	timings := make(map[string]time.Duration, len(Phases))
	for i, phase := range Phases {
		timings[phase] = time.Duration(i+1) * 10 * time.Millisecond
	}
	stats.RecordAll(timings)

	snap := stats.Snapshot()
	if len(snap) != len(Phases) {
		t.Fatalf("expected %d phases, got %d", len(Phases), len(snap))
	}
	if snap[PhaseOrganization].MaxMs != 50 {
		t.Errorf("expected organization max=50, got %d", snap[PhaseOrganization].MaxMs)
	}
}

func TestPhaseStats_EmptySnapshot(t *testing.T) {
	stats := NewPhaseStats(time.Hour)
	if snap := stats.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected empty snapshot, got %d phases", len(snap))
	}
}
