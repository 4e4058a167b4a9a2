package engine

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestVec3Math(t *testing.T) {
	a := V(1, 2, 3)
	b := V(-1, 0.5, 2)

	if got := a.Add(b); got != V(0, 2.5, 5) {
		t.Errorf("Add = %+v", got)
	}
	if got := V(0, 0, 0).Distance(V(3, 4, 0)); got != 5 {
		t.Errorf("Distance = %v, want 5", got)
	}
	if got := V(-1, 2, -3.5).AbsSum(); math.Abs(got-6.5) > 1e-9 {
		t.Errorf("AbsSum = %v, want 6.5", got)
	}
}

func TestDeathTypeRoundTrip(t *testing.T) {
	for d := DeathNormal; d <= DeathRedeploy; d++ {
		parsed, ok := ParseDeathType(d.String())
		if !ok || parsed != d {
			t.Errorf("ParseDeathType(%q) = %v, %v", d.String(), parsed, ok)
		}
	}
	if _, ok := ParseDeathType("lava"); ok {
		t.Error("unknown death type should not parse")
	}
}

func TestWallClockWait(t *testing.T) {
	var w WallClock

	start := time.Now()
	if err := w.Wait(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Wait returned %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Wait returned early")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Wait(ctx, time.Hour); err == nil {
		t.Error("Wait on cancelled context should fail")
	}
}
