package connectivity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"tinygo.org/x/drivers/netlink"
)

// NetlinkRadio drives a TinyGo netlink device. NetConnect blocks for the
// driver's connect timeout, so it runs in the background and Associated
// follows the driver's up/down events.
type NetlinkRadio struct {
	link   netlink.Netlinker
	params netlink.ConnectParams

	once    sync.Once
	up      atomic.Bool
	pending atomic.Bool
	lastErr atomic.Value // error
}

func NewNetlinkRadio(link netlink.Netlinker, ssid, passphrase string) *NetlinkRadio {
	return &NetlinkRadio{
		link: link,
		params: netlink.ConnectParams{
			Ssid:       ssid,
			Passphrase: passphrase,
			Retries:    1,
		},
	}
}

func (r *NetlinkRadio) Connect(ctx context.Context) error {
	r.once.Do(func() {
		r.link.NetNotify(func(e netlink.Event) {
			r.up.Store(e == netlink.EventNetUp)
		})
	})
	if r.up.Load() {
		return nil
	}
	if !r.pending.CompareAndSwap(false, true) {
		return nil
	}
	params := r.params
	go func() {
		defer r.pending.Store(false)
		err := r.link.NetConnect(&params)
		switch {
		case err == nil, errors.Is(err, netlink.ErrConnected):
			r.up.Store(true)
		default:
			r.lastErr.Store(err)
		}
	}()
	return ctx.Err()
}

func (r *NetlinkRadio) Associated() bool { return r.up.Load() }

// LastError returns the most recent background connect failure.
func (r *NetlinkRadio) LastError() error {
	err, _ := r.lastErr.Load().(error)
	return err
}
