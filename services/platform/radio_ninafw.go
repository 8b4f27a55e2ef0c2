//go:build tinygo && ninafw

package platform

import (
	"tinygo.org/x/drivers/netlink/probe"

	"sensenode-go/services/config"
	"sensenode-go/services/connectivity"
)

func (b *MCUBoard) Radio(cfg config.WiFiConfig) connectivity.Radio {
	b.radioOnce.Do(func() {
		link, _ := probe.Probe()
		b.radio = connectivity.NewNetlinkRadio(link, cfg.SSID, cfg.Password)
	})
	return b.radio
}
