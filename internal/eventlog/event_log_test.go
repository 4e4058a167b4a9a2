package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"team-deathmatch/internal/engine"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		typ  EventType
		want string
	}{
		{EventTypeKill, "kill"},
		{EventTypeTeamSwitch, "team_switch"},
		{EventTypeMatchEnd, "match_end"},
		{EventType(200), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestEmitBeforeStartIsRejected(t *testing.T) {
	el := New(Options{}, zap.NewNop())
	if el.Emit(NewEvent(EventTypePhase, 0, 0, nil)) {
		t.Error("Emit should fail before Start")
	}
}

func TestFlushWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	sink := &recordingSink{}
	el := New(Options{Path: path, Sinks: []Sink{sink}}, zap.NewNop())
	if err := el.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 1; i <= 3; i++ {
		ev := NewEvent(EventTypeKill, uint64(i), engine.PlayerID(i), KillPayload{Victim: 99, Death: "headshot"})
		ev.MatchID = "match-1"
		if !el.Emit(ev) {
			t.Fatalf("emit %d rejected", i)
		}
	}
	el.Stop()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var lines []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("bad line %q: %v", scanner.Text(), err)
		}
		lines = append(lines, ev)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, ev := range lines {
		if ev.Sequence != uint64(i+1) {
			t.Errorf("line %d sequence = %d", i, ev.Sequence)
		}
		if ev.MatchID != "match-1" || ev.Name != "kill" {
			t.Errorf("line %d = %+v", i, ev)
		}
	}
	if sink.count() != 3 {
		t.Errorf("sink got %d events, want 3", sink.count())
	}
}

func TestPerPlayerRateLimit(t *testing.T) {
	el := New(Options{MaxEventsPerPlayer: 5}, zap.NewNop())
	if err := el.Start(); err != nil {
		t.Fatal(err)
	}
	defer el.Stop()

	if !el.Emit(NewEvent(EventTypeAssist, 1, 7, nil)) {
		t.Fatal("first event should pass")
	}
	if el.Emit(NewEvent(EventTypeAssist, 1, 7, nil)) {
		t.Error("second event from the same player should be limited")
	}
	if !el.Emit(NewEvent(EventTypeAssist, 1, 8, nil)) {
		t.Error("a different player has its own budget")
	}
	if !el.Emit(NewEvent(EventTypePhase, 1, 0, nil)) {
		t.Error("events without a player skip the per-player limit")
	}

	if got := el.GetStats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestRingOverwritesOldest(t *testing.T) {
	el := New(Options{MaxEventsPerSec: 1_000_000}, zap.NewNop())
	// Running without writer goroutines so nothing drains the ring
	el.running.Store(true)

	for i := 0; i < EventBufferSize+10; i++ {
		el.Emit(NewEvent(EventTypePhase, uint64(i), 0, nil))
	}

	stats := el.GetStats()
	if stats.Pending != EventBufferSize {
		t.Errorf("Pending = %d, want %d", stats.Pending, EventBufferSize)
	}
	if stats.Dropped != 10 {
		t.Errorf("Dropped = %d, want 10", stats.Dropped)
	}

	batch := el.collectBatch(nil)
	if batch[0].Sequence != 11 {
		t.Errorf("oldest kept sequence = %d, want 11", batch[0].Sequence)
	}
}

func TestSinkErrorsAreCounted(t *testing.T) {
	sink := &recordingSink{err: errors.New("down")}
	el := New(Options{Sinks: []Sink{sink}}, zap.NewNop())
	if err := el.Start(); err != nil {
		t.Fatal(err)
	}
	el.Emit(NewEvent(EventTypeMatchEnd, 1, 0, MatchEndPayload{Reason: "score"}))
	el.Stop()

	if got := el.GetStats().SinkErrors; got != 1 {
		t.Errorf("SinkErrors = %d, want 1", got)
	}
}

func TestCleanupPlayerLimiters(t *testing.T) {
	el := New(Options{}, zap.NewNop())
	el.playerLimiter(Event{PlayerID: 3})

	el.cleanupPlayerLimiters(time.Now().Add(time.Minute))

	if _, ok := el.playerLimiters.Load(engine.PlayerID(3)); ok {
		t.Error("stale limiter should be removed")
	}
}
