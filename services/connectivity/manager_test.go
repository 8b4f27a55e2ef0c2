package connectivity

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers/netlink"

	"sensenode-go/types"
)

type sleepLog struct {
	calls []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

type fixedClock struct {
	off   time.Duration
	err   error
	calls int
}

func (c *fixedClock) Offset(context.Context) (time.Duration, error) {
	c.calls++
	return c.off, c.err
}

func newManager(r Radio, c TimeSource, s *sleepLog, states *[]types.LinkState) *Manager {
	return NewManager(r, c, Options{
		PollInterval: time.Second,
		Location:     time.UTC,
		Sleep:        s.sleep,
		Now:          func() time.Time { return time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC) },
		OnState: func(st types.LinkState) {
			if states != nil {
				*states = append(*states, st)
			}
		},
	})
}

func TestEnsureConnectedAssociates(t *testing.T) {
	radio := &SimRadio{AfterPolls: 3}
	var sl sleepLog
	var states []types.LinkState
	m := newManager(radio, nil, &sl, &states)

	require.True(t, m.EnsureConnected(context.Background(), 20))
	assert.Equal(t, types.LinkConnected, m.State())
	assert.Equal(t, 1, radio.Connects())
	assert.Len(t, sl.calls, 3)
	assert.Equal(t, time.Second, sl.calls[0])
	assert.Equal(t, []types.LinkState{types.LinkConnecting, types.LinkConnected}, states)
}

func TestEnsureConnectedIsIdempotent(t *testing.T) {
	radio := &SimRadio{}
	var sl sleepLog
	m := newManager(radio, nil, &sl, nil)

	require.True(t, m.EnsureConnected(context.Background(), 1))
	require.True(t, m.EnsureConnected(context.Background(), 1))
	assert.Equal(t, 1, radio.Connects(), "no association attempt when already up")
}

func TestEnsureConnectedTimesOut(t *testing.T) {
	radio := &SimRadio{Never: true}
	var sl sleepLog
	var states []types.LinkState
	m := newManager(radio, nil, &sl, &states)

	assert.False(t, m.EnsureConnected(context.Background(), 20))
	assert.Equal(t, types.LinkDisconnected, m.State())
	assert.Len(t, sl.calls, 20)
	// Disconnected -> Connecting -> Disconnected
	assert.Equal(t, []types.LinkState{types.LinkConnecting, types.LinkDisconnected}, states)
}

func TestEnsureConnectedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var sl sleepLog
	m := newManager(&SimRadio{Never: true}, nil, &sl, nil)

	assert.False(t, m.EnsureConnected(ctx, 20))
	assert.Len(t, sl.calls, 1)
	assert.Equal(t, types.LinkDisconnected, m.State())
}

func TestIsConnectedDetectsLinkLoss(t *testing.T) {
	radio := &SimRadio{}
	var sl sleepLog
	m := newManager(radio, nil, &sl, nil)

	assert.False(t, m.IsConnected())
	require.True(t, m.EnsureConnected(context.Background(), 3))
	assert.True(t, m.IsConnected())

	radio.Drop()
	assert.False(t, m.IsConnected())
	assert.Equal(t, types.LinkDisconnected, m.State())
}

func TestEnsureConnectedAfterLinkLoss(t *testing.T) {
	radio := &SimRadio{}
	var sl sleepLog
	var states []types.LinkState
	m := newManager(radio, nil, &sl, &states)

	require.True(t, m.EnsureConnected(context.Background(), 3))
	states = states[:0]

	radio.Drop()
	radio.Never = true
	assert.False(t, m.EnsureConnected(context.Background(), 2))
	assert.Equal(t, []types.LinkState{
		types.LinkDisconnected,
		types.LinkConnecting,
		types.LinkDisconnected,
	}, states)
}

func TestEnsureConnectedReassociatesAfterLinkLoss(t *testing.T) {
	radio := &SimRadio{}
	var sl sleepLog
	var states []types.LinkState
	m := newManager(radio, nil, &sl, &states)

	require.True(t, m.EnsureConnected(context.Background(), 3))
	states = states[:0]

	radio.Drop()
	require.True(t, m.EnsureConnected(context.Background(), 3))
	assert.Equal(t, []types.LinkState{
		types.LinkDisconnected,
		types.LinkConnecting,
		types.LinkConnected,
	}, states)
	assert.Equal(t, 2, radio.Connects())
}

func TestNoRadioNeverAssociates(t *testing.T) {
	var sl sleepLog
	var states []types.LinkState
	m := newManager(NoRadio{}, nil, &sl, &states)

	assert.False(t, m.EnsureConnected(context.Background(), 2))
	assert.Equal(t, []types.LinkState{types.LinkConnecting, types.LinkDisconnected}, states)
	assert.Len(t, sl.calls, 2)
	assert.False(t, m.IsConnected())
}

func TestSyncClock(t *testing.T) {
	radio := &SimRadio{}
	clock := &fixedClock{off: 90 * time.Minute}
	var sl sleepLog
	m := newManager(radio, clock, &sl, nil)

	m.SyncClock(context.Background())
	assert.Equal(t, 0, clock.calls, "no query while disconnected")
	_, ok := m.TimeOfDay()
	assert.False(t, ok)

	require.True(t, m.EnsureConnected(context.Background(), 1))
	m.SyncClock(context.Background())
	tod, ok := m.TimeOfDay()
	require.True(t, ok)
	assert.Equal(t, "11:30:00", tod.Format("15:04:05"))
}

func TestSyncClockFailureKeepsPreviousOffset(t *testing.T) {
	radio := &SimRadio{}
	clock := &fixedClock{off: time.Hour}
	var sl sleepLog
	m := newManager(radio, clock, &sl, nil)
	require.True(t, m.EnsureConnected(context.Background(), 1))

	m.SyncClock(context.Background())
	clock.err, clock.off = errors.New("i/o timeout"), 0
	m.SyncClock(context.Background())

	tod, ok := m.TimeOfDay()
	require.True(t, ok)
	assert.Equal(t, 11, tod.Hour())
}

func TestNilRadio(t *testing.T) {
	m := NewManager(nil, nil, Options{})
	assert.False(t, m.EnsureConnected(context.Background(), 1))
	assert.False(t, m.IsConnected())
}

type fakeLink struct {
	mu       sync.Mutex
	cb       func(netlink.Event)
	err      error
	params   *netlink.ConnectParams
	connects int
	done     chan struct{}
}

func (f *fakeLink) NetConnect(p *netlink.ConnectParams) error {
	f.mu.Lock()
	f.connects++
	f.params = p
	f.mu.Unlock()
	defer close(f.done)
	return f.err
}
func (f *fakeLink) NetDisconnect()                             {}
func (f *fakeLink) NetNotify(cb func(netlink.Event))           { f.cb = cb }
func (f *fakeLink) GetHardwareAddr() (net.HardwareAddr, error) { return nil, nil }

func TestNetlinkRadio(t *testing.T) {
	link := &fakeLink{done: make(chan struct{})}
	r := NewNetlinkRadio(link, "lab", "secret-pass")

	require.NoError(t, r.Connect(context.Background()))
	<-link.done
	assert.Eventually(t, r.Associated, time.Second, time.Millisecond)
	assert.Equal(t, "lab", link.params.Ssid)
	assert.Equal(t, "secret-pass", link.params.Passphrase)

	link.cb(netlink.EventNetDown)
	assert.False(t, r.Associated())
	link.cb(netlink.EventNetUp)
	assert.True(t, r.Associated())
}

func TestNetlinkRadioConnectFailure(t *testing.T) {
	link := &fakeLink{done: make(chan struct{}), err: netlink.ErrAuthFailure}
	r := NewNetlinkRadio(link, "lab", "wrong-pass")

	require.NoError(t, r.Connect(context.Background()))
	<-link.done
	assert.Eventually(t, func() bool { return r.LastError() != nil }, time.Second, time.Millisecond)
	assert.ErrorIs(t, r.LastError(), netlink.ErrAuthFailure)
	assert.False(t, r.Associated())
}
