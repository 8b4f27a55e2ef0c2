package timex

import (
	"context"
	"time"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Mono is a monotonic clock measured from an arbitrary origin.
type Mono interface {
	Since() time.Duration
}

// SystemMono reads the runtime monotonic clock relative to its creation.
type SystemMono struct{ origin time.Time }

func NewSystemMono() *SystemMono { return &SystemMono{origin: time.Now()} }

func (m *SystemMono) Since() time.Duration { return time.Since(m.origin) }

// ManualMono is a hand-advanced clock for tests and simulations.
type ManualMono struct{ Now time.Duration }

func (m *ManualMono) Since() time.Duration    { return m.Now }
func (m *ManualMono) Advance(d time.Duration) { m.Now += d }

// ClockString formats a time of day as HH:MM:SS.
func ClockString(t time.Time) string { return t.Format("15:04:05") }

// ClockOrPlaceholder formats t, or returns placeholder when ok is false.
func ClockOrPlaceholder(t time.Time, ok bool, placeholder string) string {
	if !ok {
		return placeholder
	}
	return ClockString(t)
}

// Sleep blocks for d or until ctx is done, returning ctx.Err() in that case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Sleeper is the injectable form of Sleep.
type Sleeper func(ctx context.Context, d time.Duration) error
