// Package oto is the audio playback backend, pulling buffers from a
// rytmi.AudioRenderer and pushing them to the sound card.
package oto

import (
	"encoding/binary"
	"fmt"
	"math"

	oto "github.com/ebitengine/oto/v3"

	"github.com/rytmi/rytmi"
)

// Context wraps an oto context and the single player pulling from the
// renderer. Implements rytmi.AudioContext.
type Context struct {
	context *oto.Context
	player  *oto.Player
}

// NewContext opens the audio device and starts pulling from the renderer.
// Process gets called on oto's audio goroutine.
func NewContext(renderer rytmi.AudioRenderer) (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   rytmi.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	context, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	player := context.NewPlayer(&rendererReader{renderer: renderer})
	player.Play()
	return &Context{context: context, player: player}, nil
}

func (c *Context) Close() error {
	if err := c.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

// rendererReader adapts the float32 Process interface to oto's io.Reader
// pull. Reads are truncated to whole stereo frames.
type rendererReader struct {
	renderer rytmi.AudioRenderer
	buffer   []float32
}

const bytesPerFrame = 8 // 2 channels, 4 bytes each

func (r *rendererReader) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	samples := frames * 2
	if cap(r.buffer) < samples {
		r.buffer = make([]float32, samples)
	}
	buffer := r.buffer[:samples]
	r.renderer.Process(buffer)
	for i, v := range buffer {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return samples * 4, nil
}
