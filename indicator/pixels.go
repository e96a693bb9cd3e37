// Package indicator holds the frontend-neutral parts of the recording
// indicator: the ring animation, level smoothing, status text, menu
// model and tray icon. The terminal and menu-bar frontends both draw
// from it.
package indicator

import "math"

const (
	Width       = 44
	Height      = 15
	PixelHeight = Height * 2 // two pixels per cell via half blocks
)

// Palette indices 1..13 are rings from the core outward, 14 and 15 are
// glass highlights. 0 is background.
const PaletteSize = 16

type ring struct {
	radius     float64
	breatheAmt float64
	colorIdx   int
}

var rings = []ring{
	{0.6, 0.30, 1},
	{1.3, 0.35, 2},
	{2.0, 0.30, 3},
	{2.8, 0.20, 4},
	{3.5, 0.18, 5},
	{4.2, 0.15, 6},
	{5.0, 0.12, 7},
	{5.8, 0.08, 8},
	{6.5, 0.03, 9},
	{7.2, 0.0, 10},
	{8.0, 0.0, 11},
	{10.0, 0.0, 12},
	{12.0, 0.0, 13},
}

type spot struct {
	ox, oy float64
	radius float64
	color  int
}

var spots = func() []spot {
	const (
		dSide  = 9.0
		dSide2 = 7.2
		dTop   = 10.0
		dTop2  = 8.2
	)
	return []spot{
		{-dSide * 0.707, -dSide * 0.707, 0.7, 14},
		{-dSide2 * 0.707, -dSide2 * 0.707, 0.4, 15},
		{0, -dTop, 0.8, 14},
		{0, -dTop2, 0.6, 15},
		{dSide * 0.707, -dSide * 0.707, 0.7, 14},
		{dSide2 * 0.707, -dSide2 * 0.707, 0.4, 15},
		{0, -2.0, 0.6, 14},
	}
}()

// maxRadius keeps a loud input from flooding the whole grid.
const maxRadius = 10.0

// Pixels renders one animation frame as a PixelHeight x Width grid of
// palette indices. While active the rings swell with level.
func Pixels(frame int, level float64, active bool) [][]int {
	centerX := float64(Width) / 2
	centerY := float64(PixelHeight) / 2

	var breathe float64
	if active {
		breathe = math.Sin(float64(frame)*0.15)*0.08 + level*15.0
	} else {
		breathe = math.Sin(float64(frame)*0.10) * 0.05
	}

	pixels := make([][]int, PixelHeight)
	for i := range pixels {
		pixels[i] = make([]int, Width)
	}

	for y := 0; y < PixelHeight; y++ {
		for x := 0; x < Width; x++ {
			dx := float64(x) - centerX
			dy := float64(y) - centerY
			dist := math.Sqrt(dx*dx + dy*dy)
			for _, r := range rings {
				radius := min(r.radius+breathe*r.breatheAmt*20, maxRadius)
				if dist < radius {
					pixels[y][x] = r.colorIdx
					break
				}
			}
		}
	}

	// glass reflections
	for y := 0; y < PixelHeight; y++ {
		for x := 0; x < Width; x++ {
			px := float64(x) - centerX
			py := float64(y) - centerY
			for _, s := range spots {
				dx := px - s.ox
				dy := py - s.oy
				rLen := math.Sqrt(s.ox*s.ox + s.oy*s.oy)
				if rLen < 0.001 {
					rLen = 1
				}
				tx, ty := -s.oy/rLen, s.ox/rLen
				dt := dx*tx + dy*ty
				dn := dx*(-ty) + dy*tx
				if (dt*dt)/9.0+dn*dn < s.radius*s.radius {
					pixels[y][x] = s.color
				}
			}
		}
	}
	return pixels
}

// Cells folds a pixel grid into Height rows of (top, bottom) index pairs
// for half-block rendering.
func Cells(pixels [][]int) [][][2]int {
	cells := make([][][2]int, Height)
	for cy := range cells {
		cells[cy] = make([][2]int, Width)
		for cx := 0; cx < Width; cx++ {
			cells[cy][cx] = [2]int{pixels[cy*2][cx], pixels[cy*2+1][cx]}
		}
	}
	return cells
}
