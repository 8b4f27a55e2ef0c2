//go:build !tinygo

package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"sensenode-go/errcode"
	"sensenode-go/internal/logging"
	"sensenode-go/types"
)

const (
	_defaultQoS      = 0
	_defaultRetained = false
	DefaultTopicRoot = "sensenode"
)

var errTimeout = errors.New("mqtt: timed out waiting for broker")

// mqttClient is the part of paho.Client the uploader uses.
type mqttClient interface {
	IsConnected() bool
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

type MQTTOptions struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Timeout     time.Duration
	Logger      *slog.Logger
}

// MQTTUploader publishes the same JSON body to {prefix}/{device_id}.
type MQTTUploader struct {
	client  mqttClient
	link    Link
	prefix  string
	timeout time.Duration
	log     *slog.Logger
}

// NewMQTT builds a paho client. The broker connection is made lazily on the
// first upload.
func NewMQTT(link Link, opts MQTTOptions) *MQTTUploader {
	log := logging.OrDiscard(opts.Logger).With("component", "telemetry", "transport", "mqtt")
	pahoOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetAutoReconnect(false).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn("connection lost to MQTT broker", "error", err)
		}).
		SetKeepAlive(30 * time.Second).
		SetConnectTimeout(5 * time.Second)
	return newMQTT(paho.NewClient(pahoOpts), link, opts, log)
}

func newMQTT(c mqttClient, link Link, opts MQTTOptions, log *slog.Logger) *MQTTUploader {
	u := &MQTTUploader{
		client:  c,
		link:    link,
		prefix:  strings.Trim(opts.TopicPrefix, "/"),
		timeout: opts.Timeout,
		log:     logging.OrDiscard(log),
	}
	if u.prefix == "" {
		u.prefix = DefaultTopicRoot
	}
	if u.timeout <= 0 {
		u.timeout = DefaultTimeout
	}
	return u
}

// Topic returns the publish topic for a device.
func (u *MQTTUploader) Topic(deviceID string) string {
	return u.prefix + "/" + deviceID
}

func (u *MQTTUploader) Upload(ctx context.Context, r types.Reading) error {
	const op = "telemetry.publish"
	if u.link != nil && !u.link.IsConnected() {
		return errcode.Wrap(errcode.NotConnected, op, nil)
	}
	if err := ctx.Err(); err != nil {
		return errcode.Wrap(errcode.Transport, op, err)
	}

	if !u.client.IsConnected() {
		if err := u.wait(u.client.Connect()); err != nil {
			return errcode.Wrap(errcode.Transport, op, err)
		}
		u.log.Info("connected to MQTT broker")
	}

	body, err := encode(r)
	if err != nil {
		return errcode.Wrap(errcode.Error, op, err)
	}
	topic := u.Topic(r.DeviceID)
	if err := u.wait(u.client.Publish(topic, _defaultQoS, _defaultRetained, body)); err != nil {
		return errcode.Wrap(errcode.Transport, op, err)
	}
	u.log.Debug("published", "topic", topic)
	return nil
}

// Close disconnects from the broker.
func (u *MQTTUploader) Close() error {
	if u.client.IsConnected() {
		u.client.Disconnect(250)
	}
	return nil
}

func (u *MQTTUploader) wait(t paho.Token) error {
	if !t.WaitTimeout(u.timeout) {
		return errTimeout
	}
	return t.Error()
}
