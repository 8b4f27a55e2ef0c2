// Package supervisor owns the agent's lifetime and restarts it after a
// fatal fault.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sensenode-go/errcode"
	"sensenode-go/internal/logging"
	"sensenode-go/x/timex"
)

const DefaultCooldown = 40 * time.Second

var errExited = errors.New("child exited")

// Child is one fully built run: hardware, network and scheduler.
type Child interface {
	Run(ctx context.Context) error
	Close() error
}

// BuildFunc constructs a fresh child. Nothing may survive from a previous run.
type BuildFunc func(ctx context.Context, runID string) (Child, error)

// Restarter performs the restart after the cooldown. A nil return lets the
// loop build a new child in-process.
type Restarter interface {
	Restart(ctx context.Context) error
}

// SoftRestart rebuilds in-process.
type SoftRestart struct{}

func (SoftRestart) Restart(context.Context) error { return nil }

// RestartFunc adapts a function to Restarter.
type RestartFunc func(ctx context.Context) error

func (f RestartFunc) Restart(ctx context.Context) error { return f(ctx) }

type Recorder interface {
	ObserveRestart(err error)
}

type Options struct {
	Cooldown  time.Duration
	Restarter Restarter
	Sleep     timex.Sleeper
	NewRunID  func() string
	Recorder  Recorder
	Logger    *slog.Logger
}

type Supervisor struct {
	build     BuildFunc
	cooldown  time.Duration
	restarter Restarter
	sleep     timex.Sleeper
	newRunID  func() string
	rec       Recorder
	log       *slog.Logger

	restarts int
}

func New(build BuildFunc, opts Options) *Supervisor {
	s := &Supervisor{
		build:     build,
		cooldown:  opts.Cooldown,
		restarter: opts.Restarter,
		sleep:     opts.Sleep,
		newRunID:  opts.NewRunID,
		rec:       opts.Recorder,
		log:       logging.OrDiscard(opts.Logger).With("component", "supervisor"),
	}
	if s.cooldown <= 0 {
		s.cooldown = DefaultCooldown
	}
	if s.restarter == nil {
		s.restarter = SoftRestart{}
	}
	if s.sleep == nil {
		s.sleep = timex.Sleep
	}
	if s.newRunID == nil {
		s.newRunID = uuid.NewString
	}
	return s
}

// Restarts returns how many restarts have completed.
func (s *Supervisor) Restarts() int { return s.restarts }

// Run builds and runs children until ctx is done. Every failure, including
// a panic, is followed by teardown, the cooldown and a restart.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		runID := s.newRunID()
		log := s.log.With("run_id", runID)
		log.Info("starting run", "restarts", s.restarts)

		err := s.runOnce(ctx, runID)
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Info("supervisor stopping")
			return ctxErr
		}
		if err == nil {
			err = errcode.Wrap(errcode.Fatal, "supervisor.run", errExited)
		}
		log.Error("run failed, restarting after cooldown", "code", errcode.Of(err), "error", err, "cooldown", s.cooldown)
		if s.rec != nil {
			s.rec.ObserveRestart(err)
		}

		if err := s.sleep(ctx, s.cooldown); err != nil {
			return err
		}
		if err := s.restarter.Restart(ctx); err != nil {
			return err
		}
		s.restarts++
	}
}

func (s *Supervisor) runOnce(ctx context.Context, runID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errcode.Wrap(errcode.Fatal, "supervisor.run", fmt.Errorf("panic: %v", r))
		}
	}()

	child, err := s.build(ctx, runID)
	if err != nil {
		return asFatal("supervisor.build", err)
	}
	defer func() {
		if cerr := child.Close(); cerr != nil {
			s.log.Warn("teardown failed", "run_id", runID, "error", cerr)
		}
	}()

	if err := child.Run(ctx); err != nil {
		return asFatal("supervisor.run", err)
	}
	return nil
}

func asFatal(op string, err error) error {
	if errcode.Of(err) == errcode.Fatal {
		return err
	}
	return errcode.Wrap(errcode.Fatal, op, err)
}
