// Package telemetry ships readings to the remote collector.
package telemetry

import (
	"context"
	"encoding/json"

	"sensenode-go/types"
	"sensenode-go/x/timex"
)

// Link reports whether the network is usable. The uploader never tries to
// connect on its own.
type Link interface {
	IsConnected() bool
}

// Uploader makes exactly one delivery attempt per call.
type Uploader interface {
	Upload(ctx context.Context, r types.Reading) error
}

// Payload maps a reading onto the collector's wire format. The timestamp key
// is always present and empty when the clock never synced.
func Payload(r types.Reading) types.TelemetryPayload {
	movement := "false"
	if r.Motion {
		movement = "true"
	}
	t, ok := r.TimeOfDay()
	return types.TelemetryPayload{
		DeviceID:    r.DeviceID,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Movement:    movement,
		Timestamp:   timex.ClockOrPlaceholder(t, ok, ""),
	}
}

func encode(r types.Reading) ([]byte, error) {
	return json.Marshal(Payload(r))
}
