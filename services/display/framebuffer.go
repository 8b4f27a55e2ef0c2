package display

import (
	"image/color"
	"strings"
	"sync"
)

// Framebuffer is an in-memory monochrome panel implementing
// drivers.Displayer. It stands in for the OLED on host builds.
type Framebuffer struct {
	mu      sync.Mutex
	w, h    int16
	pix     []bool
	shown   []bool
	flushes int
	// FlushErr, if set, is returned by Display.
	FlushErr error
}

func NewFramebuffer(w, h int16) *Framebuffer {
	n := int(w) * int(h)
	return &Framebuffer{w: w, h: h, pix: make([]bool, n), shown: make([]bool, n)}
}

func (f *Framebuffer) Size() (int16, int16) { return f.w, f.h }

func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return
	}
	f.mu.Lock()
	f.pix[int(y)*int(f.w)+int(x)] = c.R|c.G|c.B != 0
	f.mu.Unlock()
}

func (f *Framebuffer) ClearBuffer() {
	f.mu.Lock()
	clear(f.pix)
	f.mu.Unlock()
}

func (f *Framebuffer) Display() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FlushErr != nil {
		return f.FlushErr
	}
	copy(f.shown, f.pix)
	f.flushes++
	return nil
}

// Flushes counts successful Display calls.
func (f *Framebuffer) Flushes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}

// Lit counts set pixels on the last flushed frame.
func (f *Framebuffer) Lit() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.shown {
		if p {
			n++
		}
	}
	return n
}

// Bounds returns the bounding box of the lit pixels on the last flushed frame.
// ok is false for a blank frame.
func (f *Framebuffer) Bounds() (x0, y0, x1, y1 int16, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	x0, y0 = f.w, f.h
	for i, p := range f.shown {
		if !p {
			continue
		}
		x, y := int16(i%int(f.w)), int16(i/int(f.w))
		x0, y0 = min(x0, x), min(y0, y)
		x1, y1 = max(x1, x), max(y1, y)
		ok = true
	}
	return
}

// String renders the last flushed frame as ASCII art.
func (f *Framebuffer) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var b strings.Builder
	for y := 0; y < int(f.h); y++ {
		for x := 0; x < int(f.w); x++ {
			if f.shown[y*int(f.w)+x] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
