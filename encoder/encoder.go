package encoder

import (
	"fmt"
	"time"
)

const (
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}

// Stats describes one whole-buffer encode.
type Stats struct {
	Frames       uint64
	RawBytes     int
	EncodedBytes int
	EncodeTime   time.Duration
}

func (s Stats) CompressionPct() float64 {
	if s.RawBytes == 0 {
		return 0
	}
	return (1 - float64(s.EncodedBytes)/float64(s.RawBytes)) * 100
}

// EncodeFLAC encodes mono 16-bit samples in BlockSize frames.
func EncodeFLAC(samples []int16, sampleRate int) ([]byte, Stats, error) {
	start := time.Now()
	enc, err := NewFlac(sampleRate)
	if err != nil {
		return nil, Stats{}, err
	}
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return nil, Stats{}, fmt.Errorf("block at %d: %w", i, err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, Stats{}, err
	}
	data := enc.Bytes()
	return data, Stats{
		Frames:       enc.TotalFrames(),
		RawBytes:     len(samples) * 2,
		EncodedBytes: len(data),
		EncodeTime:   time.Since(start),
	}, nil
}
