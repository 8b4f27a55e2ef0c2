package sensor

import (
	"sensenode-go/drivers/aht20"
)

// AHT20 adapts the aht20 driver to Ambient.
type AHT20 struct {
	dev *aht20.Device
}

func NewAHT20(dev *aht20.Device) *AHT20 { return &AHT20{dev: dev} }

func (a *AHT20) Measure() (float64, float64, error) {
	var s aht20.Sample
	if err := a.dev.Read(&s); err != nil {
		return 0, 0, err
	}
	return s.Celsius(), s.RelHumidity(), nil
}
