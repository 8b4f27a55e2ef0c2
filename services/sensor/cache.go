package sensor

// Cache holds the last valid (temperature, humidity) pair. It is only ever
// overwritten by a newer valid sample and is never cleared.
type Cache struct {
	temp, hum float64
	ok        bool
}

func (c *Cache) Put(tempC, relHumidity float64) {
	c.temp, c.hum, c.ok = tempC, relHumidity, true
}

func (c *Cache) Get() (tempC, relHumidity float64, ok bool) {
	return c.temp, c.hum, c.ok
}
