package timex

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClockString(t *testing.T) {
	ts := time.Date(2024, 5, 1, 7, 4, 9, 0, time.UTC)
	if got := ClockString(ts); got != "07:04:09" {
		t.Fatalf("ClockString = %q", got)
	}
	if got := ClockOrPlaceholder(ts, false, "--:--:--"); got != "--:--:--" {
		t.Fatalf("placeholder = %q", got)
	}
}

func TestManualMono(t *testing.T) {
	var m ManualMono
	m.Advance(3 * time.Second)
	m.Advance(500 * time.Millisecond)
	if m.Since() != 3500*time.Millisecond {
		t.Fatalf("Since = %v", m.Since())
	}
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep = %v, want context.Canceled", err)
	}
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("Sleep = %v", err)
	}
}
