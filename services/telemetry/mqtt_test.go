//go:build !tinygo

package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensenode-go/errcode"
	"sensenode-go/internal/logging"
	"sensenode-go/types"
)

type fakeToken struct {
	err     error
	pending bool
}

func (t *fakeToken) Wait() bool { return !t.pending }
func (t *fakeToken) WaitTimeout(time.Duration) bool {
	return !t.pending
}
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.pending {
		close(ch)
	}
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeBroker struct {
	connected  bool
	connectErr error
	pubToken   *fakeToken
	connects   int
	msgs       []published
}

func (f *fakeBroker) IsConnected() bool { return f.connected }
func (f *fakeBroker) Connect() paho.Token {
	f.connects++
	if f.connectErr == nil {
		f.connected = true
	}
	return &fakeToken{err: f.connectErr}
}
func (f *fakeBroker) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.msgs = append(f.msgs, published{topic, qos, retained, payload.([]byte)})
	if f.pubToken != nil {
		return f.pubToken
	}
	return &fakeToken{}
}
func (f *fakeBroker) Disconnect(uint) { f.connected = false }

func newTestMQTT(b *fakeBroker, link Link) *MQTTUploader {
	return newMQTT(b, link, MQTTOptions{TopicPrefix: "/lab/"}, logging.Discard())
}

func TestMQTTPublish(t *testing.T) {
	b := &fakeBroker{}
	u := newTestMQTT(b, linkFlag(true))

	require.NoError(t, u.Upload(context.Background(), reading()))
	require.NoError(t, u.Upload(context.Background(), reading()))

	assert.Equal(t, 1, b.connects, "connect once, reuse after")
	require.Len(t, b.msgs, 2)
	assert.Equal(t, "lab/esp32_01", b.msgs[0].topic)
	assert.Equal(t, byte(0), b.msgs[0].qos)
	assert.False(t, b.msgs[0].retained)

	var p types.TelemetryPayload
	require.NoError(t, json.Unmarshal(b.msgs[0].payload, &p))
	assert.Equal(t, "true", p.Movement)
	assert.Equal(t, "09:03:07", p.Timestamp)

	require.NoError(t, u.Close())
	assert.False(t, b.connected)
}

func TestMQTTNotConnected(t *testing.T) {
	b := &fakeBroker{}
	err := newTestMQTT(b, linkFlag(false)).Upload(context.Background(), reading())
	assert.Equal(t, errcode.NotConnected, errcode.Of(err))
	assert.Zero(t, b.connects)
}

func TestMQTTFailuresAreTransport(t *testing.T) {
	b := &fakeBroker{connectErr: errors.New("connection refused")}
	err := newTestMQTT(b, linkFlag(true)).Upload(context.Background(), reading())
	assert.Equal(t, errcode.Transport, errcode.Of(err))

	b = &fakeBroker{pubToken: &fakeToken{pending: true}}
	err = newTestMQTT(b, linkFlag(true)).Upload(context.Background(), reading())
	assert.Equal(t, errcode.Transport, errcode.Of(err))
	assert.ErrorIs(t, err, errTimeout)
}

func TestMQTTDefaultTopicRoot(t *testing.T) {
	u := newMQTT(&fakeBroker{}, nil, MQTTOptions{}, nil)
	assert.Equal(t, "sensenode/dev1", u.Topic("dev1"))
}
