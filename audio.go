package rytmi

// SampleRate is the fixed render rate of the engine, in Hz.
const SampleRate = 44100

type (
	// AudioRenderer fills buffers with stereo interleaved float32 samples.
	// The engine's player implements this; audio backends pull from it on the
	// real-time thread.
	AudioRenderer interface {
		Process(buffer []float32)
	}

	// AudioContext is an audio playback backend driving an AudioRenderer.
	AudioContext interface {
		Close() error
	}
)
