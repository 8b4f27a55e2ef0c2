package platform

import (
	"sensenode-go/drivers/aht20"
	"sensenode-go/services/sensor"
)

func init() {
	RegisterAmbient("sim", AmbientBuilderFunc(func(in BuildInput) (sensor.Ambient, error) {
		return sensor.NewSimAmbient(in.Sensor.FailEvery), nil
	}))
	RegisterAmbient("aht20", AmbientBuilderFunc(buildAHT20))
}

func buildAHT20(in BuildInput) (sensor.Ambient, error) {
	bus, err := in.Board.I2C()
	if err != nil {
		return nil, err
	}
	dev := aht20.New(bus)
	if err := dev.Configure(aht20.Config{Address: in.Sensor.I2CAddr}); err != nil {
		return nil, err
	}
	return sensor.NewAHT20(dev), nil
}
