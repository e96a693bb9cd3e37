package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("invalid WAV file")

// WriteWAV encodes buf as 16-bit mono PCM.
func WriteWAV(w io.WriteSeeker, buf Buffer) error {
	enc := wav.NewEncoder(w, buf.SampleRate, 16, 1, 1)
	pcm := Float32ToPCM16(buf.Samples)
	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}
	ib := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: buf.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}

// ReadWAV decodes PCM WAV, mixing multi-channel audio down to mono.
func ReadWAV(r io.ReadSeeker) (Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Buffer{}, ErrInvalidWAV
	}
	ib, err := dec.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("decode wav: %w", err)
	}
	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}
	bits := int(dec.BitDepth)
	if bits == 0 {
		bits = 16
	}
	scale := float32(int(1) << (bits - 1))
	n := len(ib.Data) / channels
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += float32(ib.Data[i*channels+ch]) / scale
		}
		samples[i] = sum / float32(channels)
	}
	return Buffer{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

func LoadWAV(path string) (Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, err
	}
	defer f.Close()
	return ReadWAV(f)
}

// SaveWAV writes buf to a new file at path.
func SaveWAV(path string, buf Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
