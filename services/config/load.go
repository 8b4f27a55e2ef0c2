//go:build !tinygo

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "SENSENODE"

type LoadOptions struct {
	// Args are command line arguments without the program name.
	Args []string
	// EnvFiles are dotenv files loaded first; missing files are ignored.
	EnvFiles []string
	// ConfigPaths are searched for sensenode.{yaml,json,toml}.
	ConfigPaths []string
	// ConfigFile, if set, must exist.
	ConfigFile string
}

// Load resolves configuration with increasing precedence: defaults, board
// profile (--profile), config file, SENSENODE_* environment, flags.
func Load(opts LoadOptions) (Config, error) {
	for _, f := range envFiles(opts.EnvFiles) {
		_ = godotenv.Load(f) // ignore missing file
	}

	fs := newFlagSet()
	if err := fs.Parse(opts.Args); err != nil {
		return Config{}, err
	}

	base := Defaults()
	if profile, _ := fs.GetString("profile"); profile != "" {
		var err error
		if base, err = ForBoard(profile); err != nil {
			return Config{}, err
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, base)

	configFile := opts.ConfigFile
	if f, _ := fs.GetString("config"); f != "" {
		configFile = f
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("sensenode")
		for _, p := range configPaths(opts.ConfigPaths) {
			v.AddConfigPath(p)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
	}

	for key, name := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return Config{}, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// flagKeys maps config keys to flag names.
var flagKeys = map[string]string{
	"device.id":        "device-id",
	"sensor.type":      "sensor",
	"upload.url":       "upload-url",
	"upload.transport": "transport",
	"status.listen":    "listen",
	"log.level":        "log-level",
	"log.format":       "log-format",
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("sensenode", pflag.ContinueOnError)
	fs.String("config", "", "path to a config file")
	fs.String("profile", "", "embedded board profile (pico, dht, dht-active-low, sim)")
	fs.String("device-id", "", "device identifier sent with every reading")
	fs.String("sensor", "", "ambient sensor type (sim, aht20, dht11, dht22)")
	fs.String("upload-url", "", "collector base URL")
	fs.String("transport", "", "upload transport (http, mqtt)")
	fs.String("listen", "", "diagnostics listen address, empty to disable")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("log-format", "", "log format (text, json)")
	return fs
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("device.id", d.Device.ID)
	v.SetDefault("sensor.type", d.Sensor.Type)
	v.SetDefault("sensor.pin", d.Sensor.Pin)
	v.SetDefault("sensor.i2c_addr", d.Sensor.I2CAddr)
	v.SetDefault("sensor.fail_every", d.Sensor.FailEvery)
	v.SetDefault("motion.pin", d.Motion.Pin)
	v.SetDefault("indicator.pin", d.Indicator.Pin)
	v.SetDefault("indicator.active_low", d.Indicator.ActiveLow)
	v.SetDefault("display.enabled", d.Display.Enabled)
	v.SetDefault("display.idle_label", d.Display.IdleLabel)
	v.SetDefault("display.width", d.Display.Width)
	v.SetDefault("display.height", d.Display.Height)
	v.SetDefault("display.address", d.Display.Address)
	v.SetDefault("wifi.ssid", d.WiFi.SSID)
	v.SetDefault("wifi.password", d.WiFi.Password)
	v.SetDefault("wifi.interface", d.WiFi.Interface)
	v.SetDefault("wifi.attempts", d.WiFi.Attempts)
	v.SetDefault("wifi.boot_attempts", d.WiFi.BootAttempts)
	v.SetDefault("wifi.poll_interval", d.WiFi.PollInterval)
	v.SetDefault("ntp.server", d.NTP.Server)
	v.SetDefault("ntp.timeout", d.NTP.Timeout)
	v.SetDefault("clock.location", d.Clock.Location)
	v.SetDefault("upload.transport", d.Upload.Transport)
	v.SetDefault("upload.url", d.Upload.URL)
	v.SetDefault("upload.timeout", d.Upload.Timeout)
	v.SetDefault("upload.mqtt.broker", d.Upload.MQTT.Broker)
	v.SetDefault("upload.mqtt.client_id", d.Upload.MQTT.ClientID)
	v.SetDefault("upload.mqtt.username", d.Upload.MQTT.Username)
	v.SetDefault("upload.mqtt.password", d.Upload.MQTT.Password)
	v.SetDefault("upload.mqtt.topic_prefix", d.Upload.MQTT.TopicPrefix)
	v.SetDefault("schedule.tick", d.Schedule.Tick)
	v.SetDefault("schedule.display_window", d.Schedule.DisplayWindow)
	v.SetDefault("schedule.upload_window", d.Schedule.UploadWindow)
	v.SetDefault("supervisor.cooldown", d.Supervisor.Cooldown)
	v.SetDefault("status.listen", d.Status.Listen)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Device: DeviceConfig{ID: v.GetString("device.id")},
		Sensor: SensorConfig{
			Type:      strings.ToLower(v.GetString("sensor.type")),
			Pin:       v.GetInt("sensor.pin"),
			I2CAddr:   uint16(v.GetUint("sensor.i2c_addr")),
			FailEvery: v.GetInt("sensor.fail_every"),
		},
		Motion: PinConfig{Pin: v.GetInt("motion.pin")},
		Indicator: IndicatorConfig{
			Pin:       v.GetInt("indicator.pin"),
			ActiveLow: v.GetBool("indicator.active_low"),
		},
		Display: DisplayConfig{
			Enabled:   v.GetBool("display.enabled"),
			IdleLabel: v.GetString("display.idle_label"),
			Width:     int16(v.GetInt("display.width")),
			Height:    int16(v.GetInt("display.height")),
			Address:   uint16(v.GetUint("display.address")),
		},
		WiFi: WiFiConfig{
			SSID:         v.GetString("wifi.ssid"),
			Password:     v.GetString("wifi.password"),
			Interface:    v.GetString("wifi.interface"),
			Attempts:     v.GetInt("wifi.attempts"),
			BootAttempts: v.GetInt("wifi.boot_attempts"),
			PollInterval: v.GetDuration("wifi.poll_interval"),
		},
		NTP: NTPConfig{
			Server:  v.GetString("ntp.server"),
			Timeout: v.GetDuration("ntp.timeout"),
		},
		Clock: ClockConfig{Location: v.GetString("clock.location")},
		Upload: UploadConfig{
			Transport: strings.ToLower(v.GetString("upload.transport")),
			URL:       v.GetString("upload.url"),
			Timeout:   v.GetDuration("upload.timeout"),
			MQTT: MQTTConfig{
				Broker:      v.GetString("upload.mqtt.broker"),
				ClientID:    v.GetString("upload.mqtt.client_id"),
				Username:    v.GetString("upload.mqtt.username"),
				Password:    v.GetString("upload.mqtt.password"),
				TopicPrefix: v.GetString("upload.mqtt.topic_prefix"),
			},
		},
		Schedule: ScheduleConfig{
			Tick:          v.GetDuration("schedule.tick"),
			DisplayWindow: v.GetDuration("schedule.display_window"),
			UploadWindow:  v.GetDuration("schedule.upload_window"),
		},
		Supervisor: SupervisorConfig{Cooldown: v.GetDuration("supervisor.cooldown")},
		Status:     StatusConfig{Listen: v.GetString("status.listen")},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
}

func envFiles(files []string) []string {
	if len(files) == 0 {
		return []string{".env"}
	}
	return files
}

func configPaths(paths []string) []string {
	if len(paths) == 0 {
		return []string{".", "config", "/etc/sensenode"}
	}
	return paths
}
