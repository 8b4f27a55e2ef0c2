package types

import "time"

// ------------------------
// Temperature, humidity & motion
// ------------------------

// Reading is one sampled data point as it leaves the device.
type Reading struct {
	DeviceID    string
	Temperature float64 // °C
	Humidity    float64 // %RH, 0..100
	Motion      bool

	// SampledAt is the local wall-clock time of the sample. It is only
	// meaningful when ClockSynced is true.
	SampledAt   time.Time
	ClockSynced bool

	// Fallback marks a reading built from the last known good pair.
	Fallback bool
}

// TimeOfDay returns the sample time and whether the clock was ever synced.
func (r Reading) TimeOfDay() (time.Time, bool) {
	if !r.ClockSynced {
		return time.Time{}, false
	}
	return r.SampledAt, true
}

// TelemetryPayload is the collector's JSON wire format for POST /api/send-data.
type TelemetryPayload struct {
	DeviceID    string  `json:"device_id"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Movement    string  `json:"movement"`  // "true" | "false"
	Timestamp   string  `json:"timestamp"` // "HH:MM:SS", "" when the clock never synced
}
