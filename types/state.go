package types

// ------------------------
// Link state (connectivity manager)
// ------------------------

type LinkState uint8

const (
	LinkDisconnected LinkState = iota
	LinkConnecting
	LinkConnected
)

func (s LinkState) String() string {
	switch s {
	case LinkConnecting:
		return "connecting"
	case LinkConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ------------------------
// Agent state (retained on the bus)
// ------------------------

type AgentState struct {
	RunID      string  `json:"run_id"`
	DeviceID   string  `json:"device_id"`
	Ticks      uint64  `json:"ticks"`
	Link       string  `json:"link"`
	ShowIdle   bool    `json:"show_idle"`
	HasReading bool    `json:"has_reading"`
	Fallback   bool    `json:"fallback"`
	TempC      float64 `json:"temperature"`
	Humidity   float64 `json:"humidity"`
	Motion     bool    `json:"motion"`
	Timestamp  string  `json:"timestamp,omitempty"`
	LastUpload string  `json:"last_upload,omitempty"` // errcode of the last attempt, "ok" on success
	TS         int64   `json:"ts_ms"`                 // publish Unix ms
}
