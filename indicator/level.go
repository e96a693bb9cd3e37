package indicator

// Level smooths raw RMS readings: fast attack, slow release.
type Level struct {
	v float64
}

func (l *Level) Update(x float64) float64 {
	if x > l.v {
		l.v = l.v*0.2 + x*0.8
	} else {
		l.v = l.v*0.7 + x*0.3
	}
	return l.v
}

func (l *Level) Value() float64 { return l.v }

func (l *Level) Reset() { l.v = 0 }

// Bar renders v (0..1 after gain) as a fixed-width meter of filled and
// empty runes.
func Bar(v float64, width int, fill, empty rune) string {
	if width <= 0 {
		return ""
	}
	n := int(min(max(v*10, 0), 1) * float64(width))
	out := make([]rune, width)
	for i := range out {
		if i < n {
			out[i] = fill
		} else {
			out[i] = empty
		}
	}
	return string(out)
}
