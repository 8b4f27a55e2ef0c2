// Package sensor samples the ambient temperature/humidity source and the
// motion input, keeping the last known good pair for fallback.
package sensor

import (
	"log/slog"

	"sensenode-go/errcode"
	"sensenode-go/internal/logging"
	"sensenode-go/x/mathx"
)

// Ambient is one temperature/humidity source. Measure runs a single
// measurement cycle bounded by the driver's own timeout.
type Ambient interface {
	Measure() (tempC, relHumidity float64, err error)
}

// DigitalIn is a level input such as a PIR motion sensor.
type DigitalIn interface {
	Get() bool
}

// DigitalOut is a level output such as an indicator LED.
type DigitalOut interface {
	Set(level bool)
}

// Sample is the fragment of a reading produced by the reader. Motion is
// always populated; Cause holds the live fault when Fallback is set.
type Sample struct {
	Temperature float64
	Humidity    float64
	Motion      bool
	Fallback    bool
	Cause       error
}

type Options struct {
	// ActiveLowIndicator drives the indicator low when motion is present.
	ActiveLowIndicator bool
	Logger             *slog.Logger
}

// Reader is not safe for concurrent use; the agent loop is its only caller.
type Reader struct {
	ambient   Ambient
	motion    DigitalIn
	indicator DigitalOut
	activeLow bool
	cache     Cache
	log       *slog.Logger
}

func NewReader(ambient Ambient, motion DigitalIn, indicator DigitalOut, opts Options) *Reader {
	return &Reader{
		ambient:   ambient,
		motion:    motion,
		indicator: indicator,
		activeLow: opts.ActiveLowIndicator,
		log:       logging.OrDiscard(opts.Logger).With("component", "sensor"),
	}
}

// Sample performs one measurement cycle. It never retries. On a live fault it
// returns the cached pair flagged as Fallback, or errcode.NoData when nothing
// valid was ever sampled. The returned Sample carries Motion in every case.
func (r *Reader) Sample() (Sample, error) {
	s := Sample{Motion: r.readMotion()}

	t, h, err := r.measure()
	if err == nil {
		r.cache.Put(t, h)
		s.Temperature, s.Humidity = t, h
		r.log.Debug("sample", "temperature", t, "humidity", h, "motion", s.Motion)
		return s, nil
	}

	cause := errcode.Wrap(errcode.TransientRead, "sensor.measure", err)
	ct, ch, ok := r.cache.Get()
	if !ok {
		r.log.Warn("sample failed, no cached value", "error", err, "motion", s.Motion)
		return s, errcode.Wrap(errcode.NoData, "sensor.sample", cause)
	}
	s.Temperature, s.Humidity = ct, ch
	s.Fallback = true
	s.Cause = cause
	r.log.Warn("sample failed, using last known good", "error", err, "temperature", ct, "humidity", ch)
	return s, nil
}

// LastKnownGood exposes the cached pair.
func (r *Reader) LastKnownGood() (tempC, relHumidity float64, ok bool) {
	return r.cache.Get()
}

func (r *Reader) measure() (float64, float64, error) {
	if r.ambient == nil {
		return 0, 0, errNoAmbient
	}
	t, h, err := r.ambient.Measure()
	if err != nil {
		return 0, 0, err
	}
	if !mathx.Finite(t, h) {
		return 0, 0, errInvalidValue
	}
	return t, mathx.Clamp(h, 0, 100), nil
}

func (r *Reader) readMotion() bool {
	motion := false
	if r.motion != nil {
		motion = r.motion.Get()
	}
	if r.indicator != nil {
		r.indicator.Set(motion != r.activeLow)
	}
	return motion
}
