package sensor

// dhtDevice is the subset of tinygo.org/x/drivers/dht.Device we use. The
// driver package itself needs "machine", so only TinyGo platforms import it.
type dhtDevice interface {
	ReadMeasurements() error
	Measurements() (temperature int16, humidity uint16, err error)
}

// DHT adapts a DHT11/DHT22 to Ambient. The driver reports tenths of °C and
// tenths of %RH.
type DHT struct {
	dev dhtDevice
}

func NewDHT(dev dhtDevice) *DHT { return &DHT{dev: dev} }

func (d *DHT) Measure() (float64, float64, error) {
	if err := d.dev.ReadMeasurements(); err != nil {
		return 0, 0, err
	}
	t, h, err := d.dev.Measurements()
	if err != nil {
		return 0, 0, err
	}
	return float64(t) / 10, float64(h) / 10, nil
}
