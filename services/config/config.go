// Package config holds the agent configuration. Defaults and embedded board
// profiles work everywhere; the file/env/flag loader is host only.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	Device     DeviceConfig     `json:"device"`
	Sensor     SensorConfig     `json:"sensor"`
	Motion     PinConfig        `json:"motion"`
	Indicator  IndicatorConfig  `json:"indicator"`
	Display    DisplayConfig    `json:"display"`
	WiFi       WiFiConfig       `json:"wifi"`
	NTP        NTPConfig        `json:"ntp"`
	Clock      ClockConfig      `json:"clock"`
	Upload     UploadConfig     `json:"upload"`
	Schedule   ScheduleConfig   `json:"schedule"`
	Supervisor SupervisorConfig `json:"supervisor"`
	Status     StatusConfig     `json:"status"`
	Log        LogConfig        `json:"log"`
}

type DeviceConfig struct {
	ID string `json:"id"`
}

type SensorConfig struct {
	// Type selects the ambient builder: "sim", "aht20", "dht11" or "dht22".
	Type      string `json:"type"`
	Pin       int    `json:"pin"`
	I2CAddr   uint16 `json:"i2c_addr"`
	FailEvery int    `json:"fail_every"`
}

type PinConfig struct {
	Pin int `json:"pin"`
}

type IndicatorConfig struct {
	Pin       int  `json:"pin"`
	ActiveLow bool `json:"active_low"`
}

type DisplayConfig struct {
	Enabled   bool   `json:"enabled"`
	IdleLabel string `json:"idle_label"`
	Width     int16  `json:"width"`
	Height    int16  `json:"height"`
	Address   uint16 `json:"address"`
}

type WiFiConfig struct {
	SSID         string        `json:"ssid"`
	Password     string        `json:"password"`
	Interface    string        `json:"interface"`
	Attempts     int           `json:"attempts"`
	BootAttempts int           `json:"boot_attempts"`
	PollInterval time.Duration `json:"-"`
}

type NTPConfig struct {
	Server  string        `json:"server"`
	Timeout time.Duration `json:"-"`
}

type ClockConfig struct {
	// Location is an IANA zone name, "Local" or "UTC".
	Location string `json:"location"`
}

type UploadConfig struct {
	// Transport is "http" or "mqtt".
	Transport string        `json:"transport"`
	URL       string        `json:"url"`
	Timeout   time.Duration `json:"-"`
	MQTT      MQTTConfig    `json:"mqtt"`
}

type MQTTConfig struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
}

type ScheduleConfig struct {
	Tick          time.Duration `json:"-"`
	DisplayWindow time.Duration `json:"-"`
	UploadWindow  time.Duration `json:"-"`
}

type SupervisorConfig struct {
	Cooldown time.Duration `json:"-"`
}

type StatusConfig struct {
	// Listen is the diagnostics HTTP address; empty disables the server.
	Listen string `json:"listen"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Defaults mirrors the reference board: DHT11 on GPIO14, PIR on GPIO26,
// LED on GPIO4, SSD1306 128x64 at 0x3C.
func Defaults() Config {
	return Config{
		Device:    DeviceConfig{ID: "esp32_01"},
		Sensor:    SensorConfig{Type: "sim", Pin: 14, I2CAddr: 0x38},
		Motion:    PinConfig{Pin: 26},
		Indicator: IndicatorConfig{Pin: 4},
		Display: DisplayConfig{
			Enabled:   true,
			IdleLabel: "sensenode",
			Width:     128,
			Height:    64,
			Address:   0x3C,
		},
		WiFi: WiFiConfig{
			Attempts:     20,
			BootAttempts: 20,
			PollInterval: time.Second,
		},
		NTP:   NTPConfig{Server: "pool.ntp.org", Timeout: 5 * time.Second},
		Clock: ClockConfig{Location: "Local"},
		Upload: UploadConfig{
			Transport: "http",
			URL:       "http://127.0.0.1:5000",
			Timeout:   10 * time.Second,
			MQTT:      MQTTConfig{Broker: "tcp://127.0.0.1:1883", TopicPrefix: "sensenode"},
		},
		Schedule: ScheduleConfig{
			Tick:          10 * time.Second,
			DisplayWindow: 3 * time.Second,
			UploadWindow:  10 * time.Second,
		},
		Supervisor: SupervisorConfig{Cooldown: 40 * time.Second},
		Status:     StatusConfig{Listen: ":8080"},
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.Device.ID) == "" {
		bad("device.id is required")
	}
	switch c.Sensor.Type {
	case "sim", "aht20", "dht11", "dht22":
	default:
		bad("sensor.type %q unknown", c.Sensor.Type)
	}
	if c.Sensor.FailEvery < 0 {
		bad("sensor.fail_every must be >= 0")
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		bad("display size %dx%d invalid", c.Display.Width, c.Display.Height)
	}
	if c.WiFi.Attempts < 1 || c.WiFi.BootAttempts < 1 {
		bad("wifi attempts must be >= 1")
	}
	if c.WiFi.PollInterval <= 0 {
		bad("wifi.poll_interval must be positive")
	}
	if c.Schedule.Tick <= 0 || c.Schedule.DisplayWindow <= 0 || c.Schedule.UploadWindow <= 0 {
		bad("schedule durations must be positive")
	}
	if c.Supervisor.Cooldown <= 0 {
		bad("supervisor.cooldown must be positive")
	}
	if c.Upload.Timeout <= 0 {
		bad("upload.timeout must be positive")
	}
	switch c.Upload.Transport {
	case "http":
		if u, err := url.Parse(c.Upload.URL); err != nil || u.Scheme == "" || u.Host == "" {
			bad("upload.url %q is not an absolute URL", c.Upload.URL)
		}
	case "mqtt":
		if c.Upload.MQTT.Broker == "" {
			bad("upload.mqtt.broker is required for mqtt transport")
		}
	default:
		bad("upload.transport %q unknown", c.Upload.Transport)
	}
	return errors.Join(errs...)
}

// -----------------------------------------------------------------------------
// Embedded board profiles
// -----------------------------------------------------------------------------

// EmbeddedProfileLookup allows overriding how board profiles are resolved.
var EmbeddedProfileLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedProfiles[board]
	return b, ok
}

// ForBoard overlays the embedded JSON profile for board onto Defaults.
// Durations are not part of profiles and keep their defaults.
func ForBoard(board string) (Config, error) {
	cfg := Defaults()
	raw, ok := EmbeddedProfileLookup(board)
	if !ok || len(raw) == 0 {
		return cfg, errors.New("no embedded profile for board: " + board)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("embedded profile %s: %w", board, err)
	}
	return cfg, cfg.Validate()
}
