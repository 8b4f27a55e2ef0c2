//go:build !tinygo

package platform

import (
	"sync"

	"tinygo.org/x/drivers"

	"sensenode-go/drivers/aht20"
	"sensenode-go/services/config"
	"sensenode-go/services/connectivity"
	"sensenode-go/services/display"
	"sensenode-go/services/sensor"
	"sensenode-go/services/supervisor"
)

// HostOptions overrides the simulated peripherals. Zero fields get defaults.
type HostOptions struct {
	Framebuffer *display.Framebuffer
	Radio       connectivity.Radio
	// Climate feeds the simulated AHT20 bus.
	Climate sensor.Ambient
}

// HostBoard runs the agent on a development machine: fake pins, a simulated
// AHT20 on the I²C bus, an in-memory framebuffer and the host network.
type HostBoard struct {
	mu   sync.Mutex
	pins map[int]*FakePin
	bus  *SimAHT20Bus
	fb   *display.Framebuffer
	rad  connectivity.Radio
}

func NewHostBoard(opts HostOptions) *HostBoard {
	climate := opts.Climate
	if climate == nil {
		climate = sensor.NewSimAmbient(0)
	}
	return &HostBoard{
		pins: make(map[int]*FakePin),
		bus:  &SimAHT20Bus{Climate: climate},
		fb:   opts.Framebuffer,
		rad:  opts.Radio,
	}
}

// Pin returns a stable *FakePin per number.
func (b *HostBoard) Pin(n int) (Pin, error) {
	return b.FakePin(n), nil
}

// FakePin exposes a pin for tests and simulations.
func (b *HostBoard) FakePin(n int) *FakePin {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pins[n]
	if !ok {
		p = &FakePin{number: n}
		b.pins[n] = p
	}
	return p
}

func (b *HostBoard) I2C() (drivers.I2C, error) { return b.bus, nil }

func (b *HostBoard) Display(cfg config.DisplayConfig) display.Opener {
	return func() (drivers.Displayer, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.fb == nil {
			b.fb = display.NewFramebuffer(cfg.Width, cfg.Height)
		}
		return b.fb, nil
	}
}

// Framebuffer returns the panel once opened.
func (b *HostBoard) Framebuffer() *display.Framebuffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fb
}

func (b *HostBoard) Radio(cfg config.WiFiConfig) connectivity.Radio {
	if b.rad != nil {
		return b.rad
	}
	return connectivity.HostRadio{Interface: cfg.Interface}
}

func (b *HostBoard) Restarter() supervisor.Restarter { return supervisor.SoftRestart{} }

// ----------------------------- GPIO (host) -----------------------------------

// FakePin is an in-memory GPIO line.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
}

func (p *FakePin) ConfigureInput(Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

func (p *FakePin) Number() int { return p.number }

// ----------------------------- I²C (host) ------------------------------------

// SimAHT20Bus answers as an AHT20 at any address. Measurements come from
// Climate; a failed Climate reading produces a frame with a bad CRC.
type SimAHT20Bus struct {
	mu        sync.Mutex
	Climate   sensor.Ambient
	triggered bool
	Triggers  int
}

const (
	aht20Status  = 0x71
	aht20Trigger = 0xAC
	aht20Ready   = 0x08
)

func (s *SimAHT20Bus) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(w) > 0 {
		switch w[0] {
		case aht20Trigger:
			s.triggered = true
			s.Triggers++
		case aht20Status:
			if len(r) > 0 {
				r[0] = aht20Ready
			}
			return nil
		}
	}
	if len(w) == 0 && len(r) > 0 {
		s.fill(r)
	}
	return nil
}

func (s *SimAHT20Bus) fill(r []byte) {
	if !s.triggered {
		r[0] = aht20Ready | 0x80
		return
	}
	s.triggered = false
	t, h, err := s.Climate.Measure()
	f := aht20.Frame(aht20.SampleFrom(t, h))
	if err != nil {
		f[6] ^= 0xFF
	}
	copy(r, f[:])
}
