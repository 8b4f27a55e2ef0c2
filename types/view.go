package types

import "time"

// ------------------------
// Display views
// ------------------------

type ViewKind uint8

const (
	ViewIdle ViewKind = iota
	ViewStatus
)

func (k ViewKind) String() string {
	if k == ViewIdle {
		return "idle"
	}
	return "status"
}

// View is what the presentation surface is asked to draw. Nil pointers and a
// false TimeSynced render as placeholders.
type View struct {
	Kind        ViewKind
	Temperature *float64
	Humidity    *float64
	Motion      bool
	TimeOfDay   time.Time
	TimeSynced  bool
}

func IdleView() View { return View{Kind: ViewIdle} }

// StatusView builds a status view from an optional reading.
func StatusView(r *Reading, motion bool, now time.Time, synced bool) View {
	v := View{Kind: ViewStatus, Motion: motion, TimeOfDay: now, TimeSynced: synced}
	if r != nil {
		t, h := r.Temperature, r.Humidity
		v.Temperature = &t
		v.Humidity = &h
	}
	return v
}
