package timeutil

import (
	"testing"
	"time"
)

func TestRealClockNow(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	got := clock.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("RealClock.Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestRealClockSince(t *testing.T) {
	clock := RealClock{}
	start := time.Now().Add(-time.Second)
	if d := clock.Since(start); d < time.Second {
		t.Errorf("RealClock.Since() = %v, want >= 1s", d)
	}
}

func TestMockClockNowAndSet(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := NewMockClock(base)

	if got := clock.Now(); !got.Equal(base) {
		t.Errorf("MockClock.Now() = %v, want %v", got, base)
	}

	later := base.Add(time.Hour)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("after Set, Now() = %v, want %v", got, later)
	}
}

func TestMockClockAdvance(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := NewMockClock(base)

	clock.Advance(90 * time.Second)
	want := base.Add(90 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Errorf("after Advance, Now() = %v, want %v", got, want)
	}
}

func TestMockClockSince(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := NewMockClock(base.Add(time.Minute))

	if d := clock.Since(base); d != time.Minute {
		t.Errorf("MockClock.Since() = %v, want 1m", d)
	}
}
