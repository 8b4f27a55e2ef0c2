// Package agent runs the sense, display and upload cycle.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sensenode-go/bus"
	"sensenode-go/errcode"
	"sensenode-go/internal/logging"
	"sensenode-go/services/sensor"
	"sensenode-go/services/telemetry"
	"sensenode-go/types"
	"sensenode-go/x/timex"
)

const (
	DefaultTick         = 10 * time.Second
	DefaultAttempts     = 20
	DefaultBootAttempts = 20
)

// StateTopic carries the retained types.AgentState.
var StateTopic = bus.T("agent", "state")

type Sensor interface {
	Sample() (sensor.Sample, error)
}

type Surface interface {
	Render(v types.View)
}

// Link is the connectivity manager as seen by the loop.
type Link interface {
	EnsureConnected(ctx context.Context, attempts int) bool
	IsConnected() bool
	SyncClock(ctx context.Context)
	TimeOfDay() (time.Time, bool)
	State() types.LinkState
}

// Recorder receives per-tick observations, e.g. Prometheus collectors.
type Recorder interface {
	ObserveTick()
	ObserveSample(r *types.Reading, err error)
	ObserveUpload(err error)
	ObserveLink(s types.LinkState)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTick()                        {}
func (nopRecorder) ObserveSample(*types.Reading, error) {}
func (nopRecorder) ObserveUpload(error)                 {}
func (nopRecorder) ObserveLink(types.LinkState)         {}

type Config struct {
	DeviceID     string
	RunID        string
	Tick         time.Duration
	Windows      Windows
	Attempts     int
	BootAttempts int
}

type Deps struct {
	Sensor   Sensor
	Surface  Surface
	Link     Link
	Uploader telemetry.Uploader

	// Optional.
	Mono     timex.Mono
	Sleep    timex.Sleeper
	Conn     *bus.Connection
	Recorder Recorder
	Logger   *slog.Logger
}

var errMissingDeps = errors.New("agent: sensor, surface, link and uploader are required")

// Scheduler owns the timers and drives one tick at a time. It is single
// threaded; only Run's sleep suspends it.
type Scheduler struct {
	cfg    Config
	timers *Timers

	sensor Sensor
	surf   Surface
	link   Link
	up     telemetry.Uploader
	mono   timex.Mono
	sleep  timex.Sleeper
	conn   *bus.Connection
	rec    Recorder
	log    *slog.Logger

	ticks      uint64
	lastUpload string
}

func New(cfg Config, d Deps) (*Scheduler, error) {
	if d.Sensor == nil || d.Surface == nil || d.Link == nil || d.Uploader == nil {
		return nil, errcode.Wrap(errcode.Fatal, "agent.new", errMissingDeps)
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.BootAttempts <= 0 {
		cfg.BootAttempts = DefaultBootAttempts
	}
	s := &Scheduler{
		cfg:    cfg,
		timers: NewTimers(cfg.Windows),
		sensor: d.Sensor,
		surf:   d.Surface,
		link:   d.Link,
		up:     d.Uploader,
		mono:   d.Mono,
		sleep:  d.Sleep,
		conn:   d.Conn,
		rec:    d.Recorder,
		log:    logging.OrDiscard(d.Logger).With("component", "agent", "run_id", cfg.RunID),
	}
	if s.mono == nil {
		s.mono = timex.NewSystemMono()
	}
	if s.sleep == nil {
		s.sleep = timex.Sleep
	}
	if s.rec == nil {
		s.rec = nopRecorder{}
	}
	return s, nil
}

// Boot joins the network with the boot budget and syncs the clock. Both
// failures are logged only.
func (s *Scheduler) Boot(ctx context.Context) {
	if s.link.EnsureConnected(ctx, s.cfg.BootAttempts) {
		s.link.SyncClock(ctx)
	} else {
		s.log.Warn("boot: network unavailable, continuing offline")
	}
	s.rec.ObserveLink(s.link.State())
}

// Run boots, then ticks every cfg.Tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("agent starting", "tick", s.cfg.Tick, "display_window", s.timers.w.Display, "upload_window", s.timers.w.Upload)
	s.Boot(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Tick(ctx)
		if err := s.sleep(ctx, s.cfg.Tick); err != nil {
			s.log.Info("agent stopping")
			return err
		}
	}
}

// Tick runs sample, display, upload. Faults are logged and counted, never
// returned.
func (s *Scheduler) Tick(ctx context.Context) {
	act := s.timers.OnTick(s.mono.Since())

	smp, err := s.sensor.Sample()
	tod, synced := s.link.TimeOfDay()
	var reading *types.Reading
	if err == nil {
		reading = &types.Reading{
			DeviceID:    s.cfg.DeviceID,
			Temperature: smp.Temperature,
			Humidity:    smp.Humidity,
			Motion:      smp.Motion,
			SampledAt:   tod,
			ClockSynced: synced,
			Fallback:    smp.Fallback,
		}
	} else {
		s.log.Warn("no reading", "code", errcode.Of(err), "error", err)
	}
	s.rec.ObserveSample(reading, err)

	if act.Display {
		if act.ShowIdle {
			s.surf.Render(types.IdleView())
		} else {
			s.surf.Render(types.StatusView(reading, smp.Motion, tod, synced))
		}
	}

	if act.Upload {
		s.upload(ctx, reading)
	}

	s.ticks++
	s.rec.ObserveLink(s.link.State())
	s.rec.ObserveTick()
	s.publish(reading)
}

func (s *Scheduler) upload(ctx context.Context, r *types.Reading) {
	if r == nil {
		s.log.Info("upload skipped, no valid reading yet")
		s.lastUpload = string(errcode.NoData)
		return
	}
	var err error
	if !s.link.EnsureConnected(ctx, s.cfg.Attempts) {
		err = errcode.Wrap(errcode.NotConnected, "agent.upload", nil)
	} else {
		err = s.up.Upload(ctx, *r)
	}
	s.rec.ObserveUpload(err)
	s.lastUpload = string(errcode.Of(err))
	if err != nil {
		s.log.Warn("upload failed", "code", errcode.Of(err), "status", errcode.StatusOf(err), "error", err)
		return
	}
	s.log.Info("uploaded", "temperature", r.Temperature, "humidity", r.Humidity, "motion", r.Motion, "fallback", r.Fallback)
}

// Ticks returns the number of completed ticks.
func (s *Scheduler) Ticks() uint64 { return s.ticks }

func (s *Scheduler) publish(r *types.Reading) {
	if s.conn == nil {
		return
	}
	st := types.AgentState{
		RunID:      s.cfg.RunID,
		DeviceID:   s.cfg.DeviceID,
		Ticks:      s.ticks,
		Link:       s.link.State().String(),
		ShowIdle:   s.timers.ShowingIdle(),
		LastUpload: s.lastUpload,
		TS:         timex.NowMs(),
	}
	if r != nil {
		st.HasReading = true
		st.Fallback = r.Fallback
		st.TempC, st.Humidity, st.Motion = r.Temperature, r.Humidity, r.Motion
		if t, ok := r.TimeOfDay(); ok {
			st.Timestamp = timex.ClockString(t)
		}
	}
	s.conn.Publish(s.conn.NewMessage(StateTopic, st, true))
}
