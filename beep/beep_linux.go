//go:build linux

package beep

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

var (
	cues      map[Cue][]int16
	soundOnce sync.Once
)

func initSound() {
	cues = map[Cue][]int16{
		Start: cueSamples(Start, 0.2, 0.2),
		Stop:  cueSamples(Stop, 0.2, 0.2),
		Error: cueSamples(Error, 0.2, 0.2),
	}
}

func Init() {
	soundOnce.Do(initSound)
}

func play(c Cue) {
	go playSamples(cues[c])
}

// playSamples opens a fresh pulse client per cue; cues are rare and a
// long-lived playback stream would hold the sink open.
func playSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}
	c, err := pulse.NewClient()
	if err != nil {
		return
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}
