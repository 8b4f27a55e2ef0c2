package config

// Board profiles compiled into firmware images. Keys follow Config's JSON
// tags; anything absent keeps its default.

const profilePico = `{
  "device": {"id": "pico_01"},
  "sensor": {"type": "aht20", "i2c_addr": 56},
  "motion": {"pin": 15},
  "indicator": {"pin": 16},
  "display": {"address": 60},
  "status": {"listen": ""}
}`

const profileDHT = `{
  "sensor": {"type": "dht11", "pin": 14},
  "motion": {"pin": 26},
  "indicator": {"pin": 4},
  "status": {"listen": ""}
}`

const profileDHTActiveLow = `{
  "device": {"id": "esp8266_01"},
  "sensor": {"type": "dht11", "pin": 14},
  "motion": {"pin": 12},
  "indicator": {"pin": 2, "active_low": true},
  "status": {"listen": ""}
}`

const profileSim = `{
  "device": {"id": "sim_01"},
  "sensor": {"type": "sim", "fail_every": 7}
}`

var embeddedProfiles = map[string][]byte{
	"pico":           []byte(profilePico),
	"dht":            []byte(profileDHT),
	"dht-active-low": []byte(profileDHTActiveLow),
	"sim":            []byte(profileSim),
}
