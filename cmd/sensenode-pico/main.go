//go:build tinygo

// Command sensenode-pico is the firmware image. Wi-Fi credentials are set at
// link time:
//
//	tinygo flash -target nano-rp2040 -tags ninafw \
//	  -ldflags "-X main.ssid=lab -X main.pass=secret -X main.collector=http://10.0.0.2:5000" \
//	  ./cmd/sensenode-pico
package main

import (
	"context"
	"machine"
	"os"
	"time"

	"sensenode-go/internal/app"
	"sensenode-go/internal/logging"
	"sensenode-go/services/config"
	"sensenode-go/services/platform"
)

var (
	board     = "pico"
	ssid      string
	pass      string
	collector string
	deviceID  string
)

func main() {
	// Allow USB CDC to enumerate before we log.
	time.Sleep(2 * time.Second)

	log := logging.New(logging.Config{Level: "info", Output: os.Stdout})

	cfg, err := config.ForBoard(board)
	if err != nil {
		log.Error("config", "board", board, "error", err)
		fatal()
	}
	cfg.WiFi.SSID, cfg.WiFi.Password = ssid, pass
	if collector != "" {
		cfg.Upload.URL = collector
	}
	if deviceID != "" {
		cfg.Device.ID = deviceID
	}

	a := app.New(cfg, platform.NewMCUBoard(), app.Options{Logger: log})
	err = a.Supervisor(nil).Run(context.Background())
	log.Error("supervisor returned", "error", err)
	fatal()
}

// fatal blinks the on-board LED for the supervisor cooldown, then resets.
func fatal() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for i := 0; i < 40; i++ {
		led.High()
		time.Sleep(500 * time.Millisecond)
		led.Low()
		time.Sleep(500 * time.Millisecond)
	}
	machine.CPUReset()
}
