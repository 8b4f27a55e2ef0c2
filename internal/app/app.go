// Package app assembles one supervised agent run from configuration and a
// board. Both entry points share it.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sensenode-go/bus"
	"sensenode-go/internal/logging"
	"sensenode-go/services/agent"
	"sensenode-go/services/config"
	"sensenode-go/services/connectivity"
	"sensenode-go/services/display"
	"sensenode-go/services/platform"
	"sensenode-go/services/sensor"
	"sensenode-go/services/supervisor"
	"sensenode-go/services/telemetry"
)

type Options struct {
	Bus      *bus.Bus
	Recorder agent.Recorder
	// Clock overrides the NTP time source.
	Clock  connectivity.TimeSource
	Logger *slog.Logger
}

type App struct {
	cfg   config.Config
	board platform.Board
	bus   *bus.Bus
	rec   agent.Recorder
	clock connectivity.TimeSource
	loc   *time.Location
	log   *slog.Logger
}

func New(cfg config.Config, board platform.Board, opts Options) *App {
	a := &App{
		cfg:   cfg,
		board: board,
		bus:   opts.Bus,
		rec:   opts.Recorder,
		clock: opts.Clock,
		log:   logging.OrDiscard(opts.Logger),
	}
	if a.bus == nil {
		a.bus = bus.NewBus(4)
	}
	if a.clock == nil {
		a.clock = connectivity.NTPSource{Server: cfg.NTP.Server, Timeout: cfg.NTP.Timeout}
	}
	a.loc = a.location()
	return a
}

// Bus returns the status bus shared by all runs.
func (a *App) Bus() *bus.Bus { return a.bus }

// Supervisor wires Build into a supervisor using the board's restart policy.
func (a *App) Supervisor(rec supervisor.Recorder) *supervisor.Supervisor {
	return supervisor.New(a.Build, supervisor.Options{
		Cooldown:  a.cfg.Supervisor.Cooldown,
		Restarter: a.board.Restarter(),
		Recorder:  rec,
		Logger:    a.log,
	})
}

// Build constructs every component fresh for runID. Nothing is shared with a
// previous run except the board and the bus.
func (a *App) Build(ctx context.Context, runID string) (supervisor.Child, error) {
	log := a.log.With("run_id", runID)

	// Nothing from the previous run stays visible on the bus.
	reset := a.bus.NewConnection("reset-" + runID)
	reset.Publish(reset.NewMessage(agent.StateTopic, nil, true))
	reset.Disconnect()

	hw, err := platform.Assemble(a.board, a.cfg)
	if err != nil {
		return nil, err
	}

	reader := sensor.NewReader(hw.Ambient, hw.Motion, hw.Indicator, sensor.Options{
		ActiveLowIndicator: a.cfg.Indicator.ActiveLow,
		Logger:             log,
	})
	surface := display.New(hw.Display, display.Options{
		IdleLabel: a.cfg.Display.IdleLabel,
		Logger:    log,
	})

	connOpts := connectivity.Options{
		PollInterval: a.cfg.WiFi.PollInterval,
		Location:     a.loc,
		Logger:       log,
	}
	if a.rec != nil {
		connOpts.OnState = a.rec.ObserveLink
	}
	link := connectivity.NewManager(hw.Radio, a.clock, connOpts)

	up, closeUp, err := newUploader(a.cfg, link, log)
	if err != nil {
		return nil, err
	}

	conn := a.bus.NewConnection("agent-" + runID)
	sched, err := agent.New(agent.Config{
		DeviceID: a.cfg.Device.ID,
		RunID:    runID,
		Tick:     a.cfg.Schedule.Tick,
		Windows: agent.Windows{
			Display: a.cfg.Schedule.DisplayWindow,
			Upload:  a.cfg.Schedule.UploadWindow,
		},
		Attempts:     a.cfg.WiFi.Attempts,
		BootAttempts: a.cfg.WiFi.BootAttempts,
	}, agent.Deps{
		Sensor:   reader,
		Surface:  surface,
		Link:     link,
		Uploader: up,
		Conn:     conn,
		Recorder: a.rec,
		Logger:   log,
	})
	if err != nil {
		conn.Disconnect()
		_ = closeUp()
		return nil, err
	}

	return &run{
		sched: sched,
		closers: []func() error{
			closeUp,
			func() error { conn.Disconnect(); return nil },
		},
	}, nil
}

func (a *App) location() *time.Location {
	switch name := a.cfg.Clock.Location; name {
	case "", "Local":
		return time.Local
	case "UTC":
		return time.UTC
	default:
		loc, err := time.LoadLocation(name)
		if err != nil {
			a.log.Warn("unknown clock location, using local time", "location", name, "error", err)
			return time.Local
		}
		return loc
	}
}

type run struct {
	sched   *agent.Scheduler
	closers []func() error
}

func (r *run) Run(ctx context.Context) error { return r.sched.Run(ctx) }

func (r *run) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func nopClose() error { return nil }

func newHTTPUploader(cfg config.Config, link telemetry.Link, log *slog.Logger) telemetry.Uploader {
	return telemetry.NewHTTP(cfg.Upload.URL, link, telemetry.HTTPOptions{
		Timeout: cfg.Upload.Timeout,
		Logger:  log,
	})
}
