// Package metrics exposes the agent's counters and gauges to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"sensenode-go/errcode"
	"sensenode-go/types"
)

const namespace = "sensenode"

// Sample outcome label values.
const (
	SampleOK       = "ok"
	SampleFallback = "fallback"
	SampleNoData   = "no_data"
)

type Metrics struct {
	ticks       prometheus.Counter
	samples     *prometheus.CounterVec
	uploads     *prometheus.CounterVec
	restarts    *prometheus.CounterVec
	link        prometheus.Gauge
	temperature prometheus.Gauge
	humidity    prometheus.Gauge
}

// New builds the collectors and registers them on reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Scheduler ticks completed.",
		}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Sensor samples by outcome (ok, fallback, no_data).",
		}, []string{"outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Telemetry upload attempts by result code.",
		}, []string{"code"}),
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restarts_total",
			Help:      "Supervisor restarts by fault code.",
		}, []string{"code"}),
		link: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_state",
			Help:      "Wireless link state (0 disconnected, 1 connecting, 2 connected).",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last reported temperature.",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "humidity_percent",
			Help:      "Last reported relative humidity.",
		}),
	}

	reg.MustRegister(
		m.ticks,
		m.samples,
		m.uploads,
		m.restarts,
		m.link,
		m.temperature,
		m.humidity,
	)
	return m
}

func (m *Metrics) ObserveTick() { m.ticks.Inc() }

// ObserveSample records the outcome of one sensor cycle.
func (m *Metrics) ObserveSample(r *types.Reading, err error) {
	switch {
	case err != nil || r == nil:
		m.samples.WithLabelValues(SampleNoData).Inc()
		return
	case r.Fallback:
		m.samples.WithLabelValues(SampleFallback).Inc()
	default:
		m.samples.WithLabelValues(SampleOK).Inc()
	}
	m.temperature.Set(r.Temperature)
	m.humidity.Set(r.Humidity)
}

func (m *Metrics) ObserveUpload(err error) {
	m.uploads.WithLabelValues(string(errcode.Of(err))).Inc()
}

func (m *Metrics) ObserveLink(s types.LinkState) { m.link.Set(float64(s)) }

func (m *Metrics) ObserveRestart(err error) {
	m.restarts.WithLabelValues(string(errcode.Of(err))).Inc()
}
