//go:build tinygo

package app

import (
	"errors"
	"log/slog"

	"sensenode-go/errcode"
	"sensenode-go/services/config"
	"sensenode-go/services/telemetry"
)

var errNoMQTT = errors.New("mqtt transport is not available on this target")

func newUploader(cfg config.Config, link telemetry.Link, log *slog.Logger) (telemetry.Uploader, func() error, error) {
	if cfg.Upload.Transport == "mqtt" {
		return nil, nil, errcode.Wrap(errcode.InvalidConfig, "app.uploader", errNoMQTT)
	}
	return newHTTPUploader(cfg, link, log), nopClose, nil
}
