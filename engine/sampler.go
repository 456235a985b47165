package engine

import (
	"fmt"
	"os"

	"github.com/gopxl/beep/wav"
)

// Sample is a decoded sample file: stereo interleaved float32 at its native
// rate. The voice resamples on playback.
type Sample struct {
	Data []float32
	Rate int
}

// LoadSample decodes a .wav file into memory. Mono files are duplicated to
// both channels by the decoder's stereo streamer.
func LoadSample(path string) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open sample: %w", err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not decode sample %s: %w", path, err)
	}
	defer streamer.Close()
	ret := &Sample{Rate: int(format.SampleRate)}
	buf := make([][2]float64, 512)
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			ret.Data = append(ret.Data, float32(buf[i][0]), float32(buf[i][1]))
		}
		if !ok {
			break
		}
	}
	return ret, nil
}

// sampleCache loads each sample path once. A failed load is cached as nil, so
// a missing file costs one attempt and the track just stays silent.
type sampleCache struct {
	samples map[string]*Sample
}

func newSampleCache() *sampleCache {
	return &sampleCache{samples: make(map[string]*Sample)}
}

func (c *sampleCache) get(path string) *Sample {
	if path == "" {
		return nil
	}
	if s, ok := c.samples[path]; ok {
		return s
	}
	s, err := LoadSample(path)
	if err != nil {
		s = nil
	}
	c.samples[path] = s
	return s
}
