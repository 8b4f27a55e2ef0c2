package platform

import (
	"fmt"
	"sync"

	"sensenode-go/errcode"
	"sensenode-go/services/config"
	"sensenode-go/services/sensor"
)

// BuildInput is handed to an ambient builder.
type BuildInput struct {
	Board  Board
	Sensor config.SensorConfig
}

// AmbientBuilder constructs an ambient source for one sensor type.
type AmbientBuilder interface {
	Build(in BuildInput) (sensor.Ambient, error)
}

// AmbientBuilderFunc adapts a function to AmbientBuilder.
type AmbientBuilderFunc func(in BuildInput) (sensor.Ambient, error)

func (f AmbientBuilderFunc) Build(in BuildInput) (sensor.Ambient, error) { return f(in) }

var (
	muBuilders sync.RWMutex
	builders   = map[string]AmbientBuilder{}
)

// RegisterAmbient installs a builder for a sensor type string.
// It panics on duplicate registration to catch mistakes at start-up.
func RegisterAmbient(sensorType string, b AmbientBuilder) {
	muBuilders.Lock()
	defer muBuilders.Unlock()
	if sensorType == "" {
		panic("platform: empty sensor type for builder")
	}
	if _, exists := builders[sensorType]; exists {
		panic(fmt.Sprintf("platform: builder already registered for type %q", sensorType))
	}
	builders[sensorType] = b
}

func findBuilder(sensorType string) (AmbientBuilder, bool) {
	muBuilders.RLock()
	defer muBuilders.RUnlock()
	b, ok := builders[sensorType]
	return b, ok
}

// BuildAmbient looks up and runs the builder for in.Sensor.Type.
func BuildAmbient(in BuildInput) (sensor.Ambient, error) {
	b, ok := findBuilder(in.Sensor.Type)
	if !ok {
		return nil, errcode.Wrap(errcode.InvalidConfig, "platform.ambient", fmt.Errorf("no builder for sensor type %q", in.Sensor.Type))
	}
	a, err := b.Build(in)
	if err != nil {
		return nil, errcode.Wrap(errcode.Fatal, "platform.ambient", err)
	}
	return a, nil
}

// HasAmbient reports whether a builder is registered for sensorType on this
// target.
func HasAmbient(sensorType string) bool {
	_, ok := findBuilder(sensorType)
	return ok
}
