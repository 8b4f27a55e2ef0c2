// Package aht20 provides a driver for the AHT20 temperature/humidity sensor.
// It exposes a two-phase measurement API:
//
//	d.Trigger()              // start a measurement (fast)
//	err := d.Collect(&s)     // fetch when ready; returns ErrNotReady while busy
//
// d.Read(&s) performs trigger + bounded polling until ready. Every collected
// frame is CRC-8 checked; a mismatch is reported as ErrChecksum.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when both
// w and r are provided, without releasing the bus.
package aht20

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x38

const (
	cmdTrigger    = 0xAC
	cmdInitialize = 0xBE
	cmdSoftReset  = 0xBA
	cmdStatus     = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08

	crcPoly = 0x31
	crcInit = 0xFF
)

// Errors returned by the driver.
var (
	ErrTimeout  = errors.New("aht20: timeout")
	ErrNotReady = errors.New("aht20: not ready")
	ErrChecksum = errors.New("aht20: checksum mismatch")
)

// Config controls non-hardware behaviour. Zero fields take defaults.
type Config struct {
	Address        uint16        // default 0x38
	PollInterval   time.Duration // between Collect attempts in Read, default 15 ms
	CollectTimeout time.Duration // bound on the wait in Read, default 250 ms
	TriggerHint    time.Duration // nominal conversion time, default 80 ms
}

func (c Config) withDefaults() Config {
	if c.Address == 0 {
		c.Address = Address
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 15 * time.Millisecond
	}
	if c.CollectTimeout <= 0 {
		c.CollectTimeout = 250 * time.Millisecond
	}
	if c.TriggerHint <= 0 {
		c.TriggerHint = 80 * time.Millisecond
	}
	return c
}

// Device wraps an I2C connection to an AHT20 device.
type Device struct {
	bus drivers.I2C
	cfg Config
	buf [7]byte // status, 5 data bytes, crc

	configured bool
}

// New creates the Device object; it does not touch the device.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, cfg: Config{}.withDefaults()}
}

// Configure applies cfg and runs the calibration command if the device reports
// itself uncalibrated.
func (d *Device) Configure(cfg Config) error {
	d.cfg = cfg.withDefaults()
	d.configured = true

	st, err := d.Status()
	if err != nil {
		return err
	}
	if st&statusCalibrated != 0 {
		return nil
	}
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdInitialize, 0x08, 0x00}, nil); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

// Reset issues a soft reset. Give the device ~20ms afterwards before using.
func (d *Device) Reset() error {
	return d.bus.Tx(d.cfg.Address, []byte{cmdSoftReset}, nil)
}

// Status reads and returns the status byte.
func (d *Device) Status() (byte, error) {
	data := []byte{0}
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdStatus}, data); err != nil {
		return 0, err
	}
	return data[0], nil
}

// Trigger starts a measurement. It is a quick register write with no blocking.
func (d *Device) Trigger() error {
	if !d.configured {
		if err := d.Configure(d.cfg); err != nil {
			return err
		}
	}
	return d.bus.Tx(d.cfg.Address, []byte{cmdTrigger, 0x33, 0x00}, nil)
}

// TriggerHint returns the nominal conversion time to wait before Collect.
func (d *Device) TriggerHint() time.Duration { return d.cfg.TriggerHint }

// Collect attempts to read one measurement. ErrNotReady is returned while the
// device is busy, ErrChecksum when the frame fails its CRC.
func (d *Device) Collect(out *Sample) error {
	data := d.buf[:]
	if err := d.bus.Tx(d.cfg.Address, nil, data); err != nil {
		return err
	}
	if (data[0]&statusCalibrated) == 0 || (data[0]&statusBusy) != 0 {
		return ErrNotReady
	}
	if crc8(data[:6]) != data[6] {
		return ErrChecksum
	}
	out.RawHumidity = (uint32(data[1]) << 12) | (uint32(data[2]) << 4) | (uint32(data[3]) >> 4)
	out.RawTemp = (uint32(data[3]&0x0F) << 16) | (uint32(data[4]) << 8) | uint32(data[5])
	return nil
}

// Read performs a full measurement cycle: Trigger, wait the trigger hint,
// then poll Collect until it succeeds or CollectTimeout elapses.
func (d *Device) Read(out *Sample) error {
	if err := d.Trigger(); err != nil {
		return err
	}
	time.Sleep(d.cfg.TriggerHint)
	deadline := time.Now().Add(d.cfg.CollectTimeout)
	for {
		err := d.Collect(out)
		if err != ErrNotReady {
			return err
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(d.cfg.PollInterval)
	}
}

// Sample holds raw readings.
type Sample struct {
	RawHumidity uint32
	RawTemp     uint32
}

// RelHumidity returns relative humidity in percent.
func (s Sample) RelHumidity() float64 {
	return float64(s.RawHumidity) * 100 / 0x100000
}

// Celsius returns the temperature in °C.
func (s Sample) Celsius() float64 {
	return float64(s.RawTemp)*200/0x100000 - 50
}

// SampleFrom converts physical values to raw counts, clamping to the
// sensor's range.
func SampleFrom(celsius, relHumidity float64) Sample {
	toRaw := func(v float64) uint32 {
		switch {
		case v <= 0:
			return 0
		case v >= 1:
			return 0xFFFFF
		}
		return uint32(v * 0x100000)
	}
	return Sample{
		RawHumidity: toRaw(relHumidity / 100),
		RawTemp:     toRaw((celsius + 50) / 200),
	}
}

// Frame encodes s as the 7-byte ready response, CRC included. Simulated
// buses use it to answer a measurement read.
func Frame(s Sample) [7]byte {
	f := [7]byte{
		statusCalibrated,
		byte(s.RawHumidity >> 12),
		byte(s.RawHumidity >> 4),
		byte(s.RawHumidity<<4) | byte(s.RawTemp>>16)&0x0F,
		byte(s.RawTemp >> 8),
		byte(s.RawTemp),
	}
	f[6] = crc8(f[:6])
	return f
}

func crc8(data []byte) byte {
	crc := byte(crcInit)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ crcPoly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
