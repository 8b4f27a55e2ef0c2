// Package connectivity owns the wireless link and the wall clock offset.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sensenode-go/errcode"
	"sensenode-go/internal/logging"
	"sensenode-go/types"
	"sensenode-go/x/timex"
)

// Radio is the link layer. Connect issues one association request and may
// return before the link is up; Associated reports the current link status.
type Radio interface {
	Connect(ctx context.Context) error
	Associated() bool
}

// TimeSource returns the offset of the local clock from network time.
type TimeSource interface {
	Offset(ctx context.Context) (time.Duration, error)
}

const DefaultPollInterval = time.Second

type Options struct {
	PollInterval time.Duration
	Location     *time.Location
	Sleep        timex.Sleeper
	Now          func() time.Time
	// OnState observes every link state transition.
	OnState func(types.LinkState)
	Logger  *slog.Logger
}

type Manager struct {
	radio Radio
	clock TimeSource
	poll  time.Duration
	loc   *time.Location
	sleep timex.Sleeper
	now   func() time.Time
	hook  func(types.LinkState)
	log   *slog.Logger

	mu     sync.Mutex
	state  types.LinkState
	offset time.Duration
	synced bool
}

func NewManager(radio Radio, clock TimeSource, opts Options) *Manager {
	m := &Manager{
		radio: radio,
		clock: clock,
		poll:  opts.PollInterval,
		loc:   opts.Location,
		sleep: opts.Sleep,
		now:   opts.Now,
		hook:  opts.OnState,
		log:   logging.OrDiscard(opts.Logger).With("component", "connectivity"),
	}
	if m.poll <= 0 {
		m.poll = DefaultPollInterval
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	if m.sleep == nil {
		m.sleep = timex.Sleep
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// State returns the current link state.
func (m *Manager) State() types.LinkState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// EnsureConnected returns true at once when the link is up. Otherwise it
// issues a single connect and polls association up to attempts times, one
// poll interval apart. It never returns an error; failure is logged.
func (m *Manager) EnsureConnected(ctx context.Context, attempts int) bool {
	if m.radio == nil {
		return false
	}
	// A lost link is recorded as Disconnected before reconnecting.
	if m.State() == types.LinkConnected && m.IsConnected() {
		return true
	}
	if m.radio.Associated() {
		m.setState(types.LinkConnected)
		return true
	}
	if attempts < 1 {
		attempts = 1
	}

	m.setState(types.LinkConnecting)
	if err := m.radio.Connect(ctx); err != nil {
		m.log.Warn("connect request failed", "error", err)
	}
	for i := 0; i < attempts; i++ {
		if m.radio.Associated() {
			m.setState(types.LinkConnected)
			m.log.Info("link up", "polls", i)
			return true
		}
		if err := m.sleep(ctx, m.poll); err != nil {
			m.setState(types.LinkDisconnected)
			return false
		}
	}
	if m.radio.Associated() {
		m.setState(types.LinkConnected)
		m.log.Info("link up", "polls", attempts)
		return true
	}

	m.setState(types.LinkDisconnected)
	m.log.Warn("association failed", "code", errcode.AssociationTimeout, "attempts", attempts)
	return false
}

// IsConnected reports the link state, noticing a lost link on the way.
func (m *Manager) IsConnected() bool {
	if m.State() != types.LinkConnected {
		return false
	}
	if m.radio.Associated() {
		return true
	}
	m.setState(types.LinkDisconnected)
	m.log.Warn("link lost")
	return false
}

// SyncClock queries the time source once when connected. Failures are
// logged and leave the previous offset in place.
func (m *Manager) SyncClock(ctx context.Context) {
	if m.clock == nil {
		return
	}
	if !m.IsConnected() {
		m.log.Info("clock sync skipped, not connected")
		return
	}
	off, err := m.clock.Offset(ctx)
	if err != nil {
		m.log.Warn("clock sync failed", "error", err)
		return
	}
	m.mu.Lock()
	m.offset, m.synced = off, true
	m.mu.Unlock()
	m.log.Info("clock synced", "offset", off)
}

// TimeOfDay returns the corrected wall clock in the configured location.
// ok is false until the first successful sync.
func (m *Manager) TimeOfDay() (time.Time, bool) {
	m.mu.Lock()
	off, ok := m.offset, m.synced
	m.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return m.now().Add(off).In(m.loc), true
}

func (m *Manager) setState(s types.LinkState) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()
	if prev != s {
		m.log.Debug("link state", "from", prev.String(), "to", s.String())
		if m.hook != nil {
			m.hook(s)
		}
	}
}
