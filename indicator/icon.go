package indicator

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"voicemode/state"
)

const IconSize = 22

var (
	iconMu    sync.Mutex
	iconCache = map[state.AppState][]byte{}
)

func iconCore(s state.AppState) color.RGBA {
	switch s {
	case state.Recording:
		return color.RGBA{255, 30, 30, 255}
	case state.Processing, state.Refining, state.Copying:
		return color.RGBA{255, 190, 0, 255}
	case state.Error:
		return color.RGBA{160, 0, 160, 255}
	case state.Paused, state.Initializing:
		return color.RGBA{120, 120, 120, 255}
	}
	return color.RGBA{255, 50, 50, 255}
}

// TrayIcon returns a PNG of the ring icon tinted for s.
func TrayIcon(s state.AppState) []byte {
	iconMu.Lock()
	defer iconMu.Unlock()
	if b, ok := iconCache[s]; ok {
		return b
	}
	b := renderIcon(iconCore(s))
	iconCache[s] = b
	return b
}

func renderIcon(core color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, IconSize, IconSize))
	center := float64(IconSize) / 2
	for y := 0; y < IconSize; y++ {
		for x := 0; x < IconSize; x++ {
			dx := float64(x) - center + 0.5
			dy := float64(y) - center + 0.5
			dist := math.Sqrt(dx*dx + dy*dy)
			switch {
			case dist < 4:
				img.Set(x, y, core)
			case dist < 7:
				t := (dist - 4) / 3
				img.Set(x, y, color.RGBA{
					R: uint8(float64(core.R) * (1 - t*0.4)),
					G: uint8(float64(core.G) * (1 - t*0.4)),
					B: uint8(float64(core.B) * (1 - t*0.4)),
					A: 255,
				})
			case dist < 9:
				img.Set(x, y, color.RGBA{80, 20, 20, 255})
			case dist < 10:
				img.Set(x, y, color.RGBA{40, 10, 10, 255})
			}
		}
	}
	var buf bytes.Buffer
	// encoding an in-memory RGBA image cannot fail
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
