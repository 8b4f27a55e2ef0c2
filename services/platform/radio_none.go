//go:build tinygo && !ninafw

package platform

import (
	"sensenode-go/services/config"
	"sensenode-go/services/connectivity"
)

// Radio on boards without a supported wireless chip never associates.
func (b *MCUBoard) Radio(config.WiFiConfig) connectivity.Radio {
	return connectivity.NoRadio{}
}
