package agent

import (
	"context"
	"errors"
	"time"

	"sensenode-go/types"
)

type measurement struct {
	t, h float64
	err  error
}

// scriptAmbient replays measurements; the last one repeats.
type scriptAmbient struct {
	steps []measurement
	i     int
}

func (s *scriptAmbient) Measure() (float64, float64, error) {
	m := s.steps[min(s.i, len(s.steps)-1)]
	s.i++
	return m.t, m.h, m.err
}

var errCRC = errors.New("crc mismatch")

type recordingSurface struct {
	views []types.View
}

func (r *recordingSurface) Render(v types.View) { r.views = append(r.views, v) }

func (r *recordingSurface) last() types.View { return r.views[len(r.views)-1] }

type fakeLink struct {
	available  bool
	associated bool
	ensures    []int
	syncs      int
	tod        time.Time
	synced     bool
}

func (l *fakeLink) EnsureConnected(_ context.Context, attempts int) bool {
	l.ensures = append(l.ensures, attempts)
	l.associated = l.available
	return l.associated
}
func (l *fakeLink) IsConnected() bool { return l.associated }
func (l *fakeLink) SyncClock(context.Context) {
	l.syncs++
}
func (l *fakeLink) TimeOfDay() (time.Time, bool) { return l.tod, l.synced }
func (l *fakeLink) State() types.LinkState {
	if l.associated {
		return types.LinkConnected
	}
	return types.LinkDisconnected
}

type recordingUploader struct {
	sent []types.Reading
	err  error
}

func (u *recordingUploader) Upload(_ context.Context, r types.Reading) error {
	u.sent = append(u.sent, r)
	return u.err
}

type countingRecorder struct {
	ticks, samples, uploads int
	uploadErrs              []error
	links                   []types.LinkState
}

func (c *countingRecorder) ObserveTick()                        { c.ticks++ }
func (c *countingRecorder) ObserveSample(*types.Reading, error) { c.samples++ }
func (c *countingRecorder) ObserveUpload(err error) {
	c.uploads++
	c.uploadErrs = append(c.uploadErrs, err)
}
func (c *countingRecorder) ObserveLink(s types.LinkState) { c.links = append(c.links, s) }
