// Package display renders agent views on a small monochrome panel.
package display

import (
	"fmt"
	"image/color"
	"log/slog"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"sensenode-go/internal/logging"
	"sensenode-go/types"
	"sensenode-go/x/timex"
)

const DefaultIdleLabel = "sensenode"

const (
	lineHeight = 14
	firstLine  = 12
	leftMargin = 2
)

var (
	on  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	off = color.RGBA{A: 255}
)

// Opener acquires the panel. It is called once per Surface.
type Opener func() (drivers.Displayer, error)

// bufferClearer is implemented by panels with a local frame buffer, such as
// ssd1306.Device.
type bufferClearer interface {
	ClearBuffer()
}

type Options struct {
	IdleLabel string
	Font      tinyfont.Fonter
	Logger    *slog.Logger
}

// Surface draws views. All failures are logged and swallowed; after a failed
// open every Render is a no-op.
type Surface struct {
	dev   drivers.Displayer
	font  tinyfont.Fonter
	idle  string
	log   *slog.Logger
	ready bool
}

func New(open Opener, opts Options) *Surface {
	s := &Surface{
		font: opts.Font,
		idle: opts.IdleLabel,
		log:  logging.OrDiscard(opts.Logger).With("component", "display"),
	}
	if s.font == nil {
		s.font = &tinyfont.Org01
	}
	if s.idle == "" {
		s.idle = DefaultIdleLabel
	}
	if open == nil {
		s.log.Warn("no display configured")
		return s
	}
	dev, err := open()
	if err != nil || dev == nil {
		s.log.Error("display init failed, rendering disabled", "error", err)
		return s
	}
	s.dev, s.ready = dev, true
	return s
}

// Ready reports whether the panel opened.
func (s *Surface) Ready() bool { return s.ready }

// Render clears the panel, draws v and flushes.
func (s *Surface) Render(v types.View) {
	if !s.ready {
		return
	}
	s.clear()
	if v.Kind == types.ViewIdle {
		s.drawCentered(s.idle)
	} else {
		for i, line := range StatusLines(v) {
			tinyfont.WriteLine(s.dev, s.font, leftMargin, int16(firstLine+i*lineHeight), line, on)
		}
	}
	if err := s.dev.Display(); err != nil {
		s.log.Warn("display flush failed", "error", err)
		return
	}
	s.log.Debug("rendered", "view", v.Kind.String())
}

// StatusLines formats the four status rows.
func StatusLines(v types.View) []string {
	temp, hum := "Temp: Error", "Humidity: Error"
	if v.Temperature != nil {
		temp = fmt.Sprintf("Temp: %.1fC", *v.Temperature)
	}
	if v.Humidity != nil {
		hum = fmt.Sprintf("Humidity: %.1f%%", *v.Humidity)
	}
	motion := "Motion: No"
	if v.Motion {
		motion = "Motion: Yes"
	}
	return []string{
		temp,
		hum,
		motion,
		"Time: " + timex.ClockOrPlaceholder(v.TimeOfDay, v.TimeSynced, "--:--:--"),
	}
}

func (s *Surface) drawCentered(text string) {
	w, h := s.dev.Size()
	_, outer := tinyfont.LineWidth(s.font, text)
	x := (w - int16(outer)) / 2
	if x < 0 {
		x = 0
	}
	tinyfont.WriteLine(s.dev, s.font, x, h/2, text, on)
}

func (s *Surface) clear() {
	if c, ok := s.dev.(bufferClearer); ok {
		c.ClearBuffer()
		return
	}
	w, h := s.dev.Size()
	for y := int16(0); y < h; y++ {
		for x := int16(0); x < w; x++ {
			s.dev.SetPixel(x, y, off)
		}
	}
}
