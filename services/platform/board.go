// Package platform turns configuration into hardware handles. Host builds get
// simulators; TinyGo builds get machine pins, I²C and the wireless chip.
package platform

import (
	"errors"

	"tinygo.org/x/drivers"

	"sensenode-go/services/config"
	"sensenode-go/services/connectivity"
	"sensenode-go/services/display"
	"sensenode-go/services/supervisor"
)

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Pin is a configured GPIO line.
type Pin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// Board is the platform factory for one process. Handles it returns may be
// shared between runs; builders must not keep state in them.
type Board interface {
	Pin(n int) (Pin, error)
	I2C() (drivers.I2C, error)
	Display(cfg config.DisplayConfig) display.Opener
	Radio(cfg config.WiFiConfig) connectivity.Radio
	Restarter() supervisor.Restarter
}

var (
	ErrNoPin = errors.New("platform: pin not available")
	ErrNoI2C = errors.New("platform: no I2C bus")
)
