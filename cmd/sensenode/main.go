// Command sensenode runs the sensing agent on a development host with
// simulated peripherals, serving diagnostics over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"sensenode-go/bus"
	"sensenode-go/internal/app"
	"sensenode-go/internal/logging"
	"sensenode-go/internal/metrics"
	"sensenode-go/services/config"
	"sensenode-go/services/platform"
	"sensenode-go/services/sensor"
	"sensenode-go/services/status"
)

func main() {
	cfg, err := config.Load(config.LoadOptions{Args: os.Args[1:]})
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "sensenode:", err)
		os.Exit(2)
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(log)

	if !platform.HasAmbient(cfg.Sensor.Type) {
		log.Error("sensor type not available on host", "type", cfg.Sensor.Type)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	b := bus.NewBus(4)
	board := platform.NewHostBoard(platform.HostOptions{
		Climate: sensor.NewSimAmbient(cfg.Sensor.FailEvery),
	})
	a := app.New(cfg, board, app.Options{Bus: b, Recorder: m, Logger: log})

	var wg sync.WaitGroup
	if cfg.Status.Listen != "" {
		srv := status.New(cfg.Status.Listen, b, prometheus.DefaultGatherer, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				log.Error("status server stopped", "error", err)
			}
		}()
	}
	hb := &status.Heartbeat{Interval: time.Minute, Logger: log}
	wg.Add(1)
	go func() {
		defer wg.Done()
		hb.Run(ctx, b.NewConnection("heartbeat"))
	}()

	log.Info("sensenode starting", "device_id", cfg.Device.ID, "sensor", cfg.Sensor.Type, "transport", cfg.Upload.Transport)
	err = a.Supervisor(m).Run(ctx)
	stop()
	wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("supervisor exited", "error", err)
		os.Exit(1)
	}
	log.Info("sensenode stopped")
}
