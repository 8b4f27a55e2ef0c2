//go:build !tinygo

package app

import (
	"log/slog"

	"sensenode-go/services/config"
	"sensenode-go/services/telemetry"
)

func newUploader(cfg config.Config, link telemetry.Link, log *slog.Logger) (telemetry.Uploader, func() error, error) {
	if cfg.Upload.Transport != "mqtt" {
		return newHTTPUploader(cfg, link, log), nopClose, nil
	}
	m := cfg.Upload.MQTT
	clientID := m.ClientID
	if clientID == "" {
		clientID = cfg.Device.ID
	}
	up := telemetry.NewMQTT(link, telemetry.MQTTOptions{
		Broker:      m.Broker,
		ClientID:    clientID,
		Username:    m.Username,
		Password:    m.Password,
		TopicPrefix: m.TopicPrefix,
		Timeout:     cfg.Upload.Timeout,
		Logger:      log,
	})
	return up, up.Close, nil
}
