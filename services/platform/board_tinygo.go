//go:build tinygo

package platform

import (
	"context"
	"machine"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/dht"
	"tinygo.org/x/drivers/ssd1306"

	"sensenode-go/services/config"
	"sensenode-go/services/connectivity"
	"sensenode-go/services/display"
	"sensenode-go/services/sensor"
	"sensenode-go/services/supervisor"
)

func init() {
	RegisterAmbient("dht11", AmbientBuilderFunc(func(in BuildInput) (sensor.Ambient, error) {
		return buildDHT(in, dht.DHT11)
	}))
	RegisterAmbient("dht22", AmbientBuilderFunc(func(in BuildInput) (sensor.Ambient, error) {
		return buildDHT(in, dht.DHT22)
	}))
}

func buildDHT(in BuildInput, kind dht.DeviceType) (sensor.Ambient, error) {
	if in.Sensor.Pin < 0 {
		return nil, ErrNoPin
	}
	return sensor.NewDHT(dht.New(machine.Pin(in.Sensor.Pin), kind)), nil
}

// MCUBoard maps logical pin numbers directly to machine.Pin(n) and uses I2C0
// on the board's default pins at 400 kHz.
type MCUBoard struct {
	once   sync.Once
	i2c    *machine.I2C
	i2cErr error

	radioOnce sync.Once
	radio     *connectivity.NetlinkRadio
}

func NewMCUBoard() *MCUBoard { return &MCUBoard{} }

func (b *MCUBoard) Pin(n int) (Pin, error) {
	if n < 0 {
		return nil, ErrNoPin
	}
	return &mcuPin{p: machine.Pin(n), n: n}, nil
}

func (b *MCUBoard) I2C() (drivers.I2C, error) {
	b.once.Do(func() {
		bus := machine.I2C0
		b.i2cErr = bus.Configure(machine.I2CConfig{
			Frequency: 400 * machine.KHz,
			SDA:       machine.I2C0_SDA_PIN,
			SCL:       machine.I2C0_SCL_PIN,
		})
		b.i2c = bus
	})
	if b.i2cErr != nil {
		return nil, b.i2cErr
	}
	return b.i2c, nil
}

const ssd1306Nop = 0xE3

func (b *MCUBoard) Display(cfg config.DisplayConfig) display.Opener {
	return func() (drivers.Displayer, error) {
		bus, err := b.I2C()
		if err != nil {
			return nil, err
		}
		// Configure does not report a missing panel; a NOP command does.
		if err := bus.Tx(cfg.Address, []byte{0x00, ssd1306Nop}, nil); err != nil {
			return nil, err
		}
		dev := ssd1306.NewI2C(bus)
		dev.Configure(ssd1306.Config{
			Width:    cfg.Width,
			Height:   cfg.Height,
			Address:  cfg.Address,
			VccState: ssd1306.SWITCHCAPVCC,
		})
		dev.ClearDisplay()
		return dev, nil
	}
}

func (b *MCUBoard) Restarter() supervisor.Restarter {
	return supervisor.RestartFunc(func(context.Context) error {
		machine.CPUReset()
		return nil
	})
}

type mcuPin struct {
	p machine.Pin
	n int
}

func (r *mcuPin) ConfigureInput(pull Pull) error {
	mode := machine.PinInput
	switch pull {
	case PullUp:
		mode = machine.PinInputPullup
	case PullDown:
		mode = machine.PinInputPulldown
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *mcuPin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *mcuPin) Set(level bool) { r.p.Set(level) }
func (r *mcuPin) Get() bool      { return r.p.Get() }
func (r *mcuPin) Number() int    { return r.n }
