//go:build gui

package gui

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"voicemode/indicator"
)

// ANSI 256 approximations, indexed like indicator palettes.
var (
	colorsActive = [indicator.PaletteSize]color.RGBA{
		{0, 0, 0, 255},
		{255, 255, 0, 255},
		{255, 215, 0, 255},
		{255, 175, 0, 255},
		{255, 135, 0, 255},
		{255, 0, 0, 255},
		{215, 0, 0, 255},
		{175, 0, 0, 255},
		{135, 0, 0, 255},
		{95, 0, 0, 255},
		{48, 48, 48, 255},
		{48, 48, 48, 255},
		{48, 48, 48, 255},
		{48, 48, 48, 255},
		{255, 255, 255, 255},
		{180, 180, 180, 255},
	}

	colorsIdle = [indicator.PaletteSize]color.RGBA{
		{0, 0, 0, 255},
		{255, 255, 255, 255},
		{255, 215, 215, 255},
		{255, 175, 175, 255},
		{255, 135, 135, 255},
		{215, 0, 0, 255},
		{175, 0, 0, 255},
		{135, 0, 0, 255},
		{95, 0, 0, 255},
		{48, 48, 48, 255},
		{48, 48, 48, 255},
		{48, 48, 48, 255},
		{48, 48, 48, 255},
		{48, 48, 48, 255},
		{255, 255, 255, 255},
		{180, 180, 180, 255},
	}
)

// Meter is the floating recording indicator: rings that swell with the
// input level.
type Meter struct {
	widget.BaseWidget

	mu     sync.Mutex
	frame  int
	level  indicator.Level
	active bool
	stopCh chan struct{}
}

func NewMeter() *Meter {
	m := &Meter{stopCh: make(chan struct{})}
	m.ExtendBaseWidget(m)
	go m.animate()
	return m
}

func (m *Meter) SetActive(on bool) {
	m.mu.Lock()
	m.active = on
	if !on {
		m.level.Reset()
	}
	m.mu.Unlock()
}

func (m *Meter) SetLevel(l float64) {
	m.mu.Lock()
	if m.active {
		m.level.Update(l)
	}
	m.mu.Unlock()
}

func (m *Meter) Stop() {
	select {
	case <-m.stopCh:
	default:
		close(m.stopCh)
	}
}

func (m *Meter) animate() {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.mu.Lock()
			m.frame++
			m.mu.Unlock()
			fyne.Do(m.Refresh)
		}
	}
}

func (m *Meter) MinSize() fyne.Size {
	return fyne.NewSize(float32(indicator.Width*8), float32(indicator.Height*16))
}

func (m *Meter) CreateRenderer() fyne.WidgetRenderer {
	r := &meterRenderer{meter: m}
	r.rects = make([][]*canvas.Rectangle, indicator.Height)
	for y := range r.rects {
		r.rects[y] = make([]*canvas.Rectangle, indicator.Width)
		for x := range r.rects[y] {
			r.rects[y][x] = canvas.NewRectangle(color.Black)
		}
	}
	return r
}

type meterRenderer struct {
	meter *Meter
	rects [][]*canvas.Rectangle
}

func (r *meterRenderer) Layout(size fyne.Size) {
	cellW := size.Width / float32(indicator.Width)
	cellH := size.Height / float32(indicator.Height)
	for y, row := range r.rects {
		for x, rect := range row {
			rect.Move(fyne.NewPos(float32(x)*cellW, float32(y)*cellH))
			rect.Resize(fyne.NewSize(cellW, cellH))
		}
	}
}

func (r *meterRenderer) MinSize() fyne.Size {
	return r.meter.MinSize()
}

func (r *meterRenderer) Refresh() {
	r.meter.mu.Lock()
	frame := r.meter.frame
	level := r.meter.level.Value()
	active := r.meter.active
	r.meter.mu.Unlock()

	palette := &colorsIdle
	if active {
		palette = &colorsActive
	}
	cells := indicator.Cells(indicator.Pixels(frame, level, active))
	for y, row := range cells {
		for x, c := range row {
			rect := r.rects[y][x]
			rect.FillColor = blend(palette[c[0]], palette[c[1]])
			rect.Refresh()
		}
	}
}

// blend averages the two half-block pixels a rect stands for.
func blend(top, bot color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8((uint16(top.R) + uint16(bot.R)) / 2),
		G: uint8((uint16(top.G) + uint16(bot.G)) / 2),
		B: uint8((uint16(top.B) + uint16(bot.B)) / 2),
		A: 255,
	}
}

func (r *meterRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, indicator.Width*indicator.Height)
	for _, row := range r.rects {
		for _, rect := range row {
			objs = append(objs, rect)
		}
	}
	return objs
}

func (r *meterRenderer) Destroy() {
	r.meter.Stop()
}
