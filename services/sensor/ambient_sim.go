package sensor

import (
	"errors"
	"sync"
)

var errSimFault = errors.New("sim: checksum mismatch")

// SimAmbient is a deterministic host simulator. Readings drift slowly from
// the base values; every FailEvery-th call (if > 0) fails.
type SimAmbient struct {
	BaseTempC    float64
	BaseHumidity float64
	FailEvery    int

	mu    sync.Mutex
	calls int
}

func NewSimAmbient(failEvery int) *SimAmbient {
	return &SimAmbient{BaseTempC: 22.5, BaseHumidity: 41.0, FailEvery: failEvery}
}

func (s *SimAmbient) Measure() (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.FailEvery > 0 && s.calls%s.FailEvery == 0 {
		return 0, 0, errSimFault
	}
	step := float64(s.calls % 10)
	return s.BaseTempC + step*0.1, s.BaseHumidity + step*0.2, nil
}

// SimPin is an in-memory digital pin usable as input or output.
type SimPin struct {
	mu    sync.Mutex
	level bool
}

func (p *SimPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *SimPin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}
