package platform

import (
	"sensenode-go/services/config"
	"sensenode-go/services/connectivity"
	"sensenode-go/services/display"
	"sensenode-go/services/sensor"
)

// Hardware is what one agent run needs from the board.
type Hardware struct {
	Ambient   sensor.Ambient
	Motion    sensor.DigitalIn
	Indicator sensor.DigitalOut
	Display   display.Opener
	Radio     connectivity.Radio
}

// Assemble configures pins and builds the ambient source. Pin or sensor
// failures are returned; the caller treats them as fatal for the run.
func Assemble(b Board, cfg config.Config) (*Hardware, error) {
	hw := &Hardware{Radio: b.Radio(cfg.WiFi)}

	motion, err := b.Pin(cfg.Motion.Pin)
	if err != nil {
		return nil, err
	}
	if err := motion.ConfigureInput(PullNone); err != nil {
		return nil, err
	}
	hw.Motion = motion

	led, err := b.Pin(cfg.Indicator.Pin)
	if err != nil {
		return nil, err
	}
	// LED off: low when active-high, high when active-low.
	if err := led.ConfigureOutput(cfg.Indicator.ActiveLow); err != nil {
		return nil, err
	}
	hw.Indicator = led

	if hw.Ambient, err = BuildAmbient(BuildInput{Board: b, Sensor: cfg.Sensor}); err != nil {
		return nil, err
	}
	if cfg.Display.Enabled {
		hw.Display = b.Display(cfg.Display)
	}
	return hw, nil
}
