//go:build !tinygo

package connectivity

import (
	"context"
	"net"
)

// HostRadio reports the link up when a non-loopback interface is up with an
// address. The OS owns association, so Connect does nothing.
type HostRadio struct {
	// Interface restricts the check to one interface name.
	Interface string
}

func (HostRadio) Connect(context.Context) error { return nil }

func (h HostRadio) Associated() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, ifi := range ifaces {
		if h.Interface != "" && ifi.Name != h.Interface {
			continue
		}
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		if addrs, err := ifi.Addrs(); err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}
