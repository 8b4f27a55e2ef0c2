package agent

import "time"

const (
	DefaultDisplayWindow = 3 * time.Second
	DefaultUploadWindow  = 10 * time.Second
)

type Windows struct {
	Display time.Duration
	Upload  time.Duration
}

// Actions is what one tick should do, in order: display then upload.
type Actions struct {
	Display  bool
	ShowIdle bool
	Upload   bool
}

// Timers is the pure tick state machine. Counters start as never fired, so
// the first tick is eligible for both windows; firing sets a counter to now.
type Timers struct {
	w Windows

	lastDisplay time.Duration
	lastUpload  time.Duration
	displayed   bool
	uploaded    bool
	showIdle    bool
}

// NewTimers starts with the idle view showing, so the first display firing
// toggles to status.
func NewTimers(w Windows) *Timers {
	if w.Display <= 0 {
		w.Display = DefaultDisplayWindow
	}
	if w.Upload <= 0 {
		w.Upload = DefaultUploadWindow
	}
	return &Timers{w: w, showIdle: true}
}

func (t *Timers) OnTick(now time.Duration) Actions {
	var a Actions
	if !t.displayed || now-t.lastDisplay >= t.w.Display {
		t.showIdle = !t.showIdle
		t.lastDisplay, t.displayed = now, true
		a.Display, a.ShowIdle = true, t.showIdle
	}
	if !t.uploaded || now-t.lastUpload >= t.w.Upload {
		t.lastUpload, t.uploaded = now, true
		a.Upload = true
	}
	return a
}

// ShowingIdle reports which view the last display firing selected.
func (t *Timers) ShowingIdle() bool { return t.showIdle }
