package daemon

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"
)

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Jurisdictions:      4,
		ProvincialSpending: 287.6,
		MunicipalSpending:  21.7,
	}
	curr := Snapshot{
		Jurisdictions:      5,
		ProvincialSpending: 290.1,
		MunicipalSpending:  21.7,
	}

	delta := diffSnapshots(prev, curr)
	if delta.Jurisdictions != 1 {
		t.Fatalf("Jurisdictions delta = %d, want 1", delta.Jurisdictions)
	}
	if math.Abs(delta.Spending-2.5) > 1e-9 {
		t.Fatalf("Spending delta = %.2f, want 2.50", delta.Spending)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a non-zero delta")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	s := New(Config{Interval: time.Second}, nil, nil)
	defer s.Close()

	if s.cfg.Interval != 10*time.Second {
		t.Fatalf("Interval = %s, want 10s", s.cfg.Interval)
	}
	if s.cfg.EventsBuffer != 200 {
		t.Fatalf("EventsBuffer = %d, want 200", s.cfg.EventsBuffer)
	}
	if s.cfg.Addr != "127.0.0.1:8787" {
		t.Fatalf("Addr = %q, want 127.0.0.1:8787", s.cfg.Addr)
	}
	if s.cfg.Province != "ontario" {
		t.Fatalf("Province = %q, want ontario", s.cfg.Province)
	}
	if s.cfg.Threshold != 20 {
		t.Fatalf("Threshold = %v, want 20", s.cfg.Threshold)
	}
	if len(s.cfg.Reductions) == 0 {
		t.Fatal("Reductions not defaulted")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := newTestService(t, Config{DataDir: ".", EventsBuffer: 2})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPublishEventReachesSubscribers(t *testing.T) {
	s := newTestService(t, Config{DataDir: "."})

	ch := make(chan Event, 1)
	id := s.addSubscriber(ch)
	s.publishEvent(Event{ID: 7, Type: "data_changed"})
	s.removeSubscriber(id)

	select {
	case ev := <-ch:
		if ev.ID != 7 {
			t.Fatalf("subscriber got event %d, want 7", ev.ID)
		}
	default:
		t.Fatal("subscriber did not receive event")
	}

	s.publishEvent(Event{ID: 8})
	if len(ch) != 0 {
		t.Fatal("removed subscriber still receives events")
	}
}

func TestPollOncePublishesChanges(t *testing.T) {
	s := newTestService(t, Config{})
	ctx := context.Background()

	s.pollOnce(ctx)
	st := s.snapshotStatus()
	if st.Summary.Jurisdictions != 4 {
		t.Fatalf("Jurisdictions = %d, want 4", st.Summary.Jurisdictions)
	}
	if st.Summary.Provincial != 2 || st.Summary.Municipal != 2 {
		t.Fatalf("Provincial/Municipal = %d/%d, want 2/2", st.Summary.Provincial, st.Summary.Municipal)
	}
	if st.EventCount != 1 {
		t.Fatalf("EventCount = %d after first poll, want 1", st.EventCount)
	}

	// Unchanged data publishes nothing.
	s.pollOnce(ctx)
	if got := s.snapshotStatus(); got.EventCount != 1 || got.PollCount != 2 {
		t.Fatalf("EventCount/PollCount = %d/%d, want 1/2", got.EventCount, got.PollCount)
	}

	writeJurisdiction(t, s.cfg.DataDir, "provincial/alberta", "Alberta", 80)
	s.pollOnce(ctx)

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	if len(events) != 2 {
		t.Fatalf("events len = %d, want 2", len(events))
	}
	first, last := events[0], events[1]
	if first.Type != "snapshot" {
		t.Fatalf("first event type = %q, want snapshot", first.Type)
	}
	if last.Type != "data_changed" {
		t.Fatalf("last event type = %q, want data_changed", last.Type)
	}
	if len(last.Delta.Changed) != 1 || last.Delta.Changed[0] != "alberta" {
		t.Fatalf("Changed = %v, want [alberta]", last.Delta.Changed)
	}
	if math.Abs(last.Delta.Spending-6.8) > 1e-9 {
		t.Fatalf("Spending delta = %.2f, want 6.80", last.Delta.Spending)
	}
}

func TestPollOnceRecordsErrors(t *testing.T) {
	s := newTestService(t, Config{})
	writeFile(t, s.cfg.DataDir, "provincial/manitoba/summary.json", `{"name":"Manitoba"}`)

	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if len(st.FileErrors) != 1 {
		t.Fatalf("FileErrors = %v, want one entry", st.FileErrors)
	}
	if st.Summary.Jurisdictions != 4 {
		t.Fatalf("Jurisdictions = %d, want 4", st.Summary.Jurisdictions)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(Config{
		DataDir:  writeFixture(t),
		Addr:     "127.0.0.1:0",
		Interval: 10 * time.Second,
		Watch:    true,
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for s.snapshotStatus().PollCount == 0 {
		if time.Now().After(deadline) {
			t.Fatal("daemon never polled")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunReportsListenError(t *testing.T) {
	s := New(Config{
		DataDir: filepath.Join(t.TempDir(), "missing"),
		Addr:    "256.0.0.1:bad",
	}, nil, nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Run returned nil for an invalid address")
		}
	case <-time.After(20 * time.Second):
		t.Fatal("Run did not report the listen error")
	}
}
