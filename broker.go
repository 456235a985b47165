package rytmi

import (
	"sync/atomic"
	"time"
)

type (
	// Broker is the single crossing point between the editing model and the
	// real-time engine. It is one buffered channel per recipient; every send
	// through it is fire-and-forget via TrySend, so the editing goroutine
	// never waits on the engine and tolerates the engine being absent (the
	// channel simply fills up and sends are declined).
	//
	// CloseEngine has a capacity of 1, so requesting closure never blocks; a
	// full channel means someone already asked. FinishedEngine is closed by
	// the engine once it has cleaned up, so shutdown can wait on it, best
	// combined with TimeoutReceive to avoid deadlocks.
	Broker struct {
		ToEngine chan any
		ToModel  chan MsgToModel

		CloseEngine    chan struct{}
		FinishedEngine chan struct{}

		// midiEventsToModel is true if MIDI input should be routed to the
		// model (note entry on the selection) instead of the engine (preview).
		midiEventsToModel atomic.Bool
	}

	// MsgToModel carries engine feedback. The frequently sent fields (play
	// position, levels) are not boxed to avoid allocations; infrequent
	// messages travel boxed in Data.
	MsgToModel struct {
		HasPosition  bool
		PlayPosition float64 // playhead, in beats
		Playing      bool
		TrackLevels  []float32

		Data any
	}

	// TrackDescriptor is the full declarative state of one track as the
	// engine needs it: the tree plus everything that shapes its sound.
	TrackDescriptor struct {
		TrackID    TrackID
		Kind       InstrumentKind
		Root       PatternNode
		BaseMeter  float64
		Volume     float64
		Pan        float64
		Mute       bool
		Solo       bool
		Settings   map[string]float64
		SamplePath string
	}

	// Messages to the engine. All are declarative state pushes; the engine
	// applies whatever arrives and never replies.

	MsgUpdatePatternTree struct {
		TrackID   TrackID
		Root      PatternNode
		BaseMeter float64
	}

	MsgUpdateTrack struct {
		Track TrackDescriptor
	}

	MsgRemoveTrack struct {
		TrackID TrackID
	}

	MsgUpdateTrackVolume struct {
		TrackID TrackID
		Volume  float64
	}

	MsgUpdateTrackPan struct {
		TrackID TrackID
		Pan     float64
	}

	MsgUpdateTrackSettings struct {
		TrackID  TrackID
		Settings map[string]float64
	}

	MsgUpdateEffect struct {
		EffectID int
		Settings map[string]float64
	}

	MsgUpdateEnvelope struct {
		EnvelopeID int
		Settings   map[string]float64
	}

	MsgUpdateAutomation struct {
		Automation ParameterAutomation
	}

	MsgDeleteAutomation struct {
		Key string
	}

	MsgSetPlaying struct {
		Playing bool
	}

	MsgSetBPM struct {
		BPM int
	}

	MsgNoteOn struct {
		TrackID  TrackID
		Pitch    int
		Velocity float64
	}

	MsgNoteOff struct {
		TrackID TrackID
		Pitch   int
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToEngine:       make(chan any, 1024),
		ToModel:        make(chan MsgToModel, 1024),
		CloseEngine:    make(chan struct{}, 1),
		FinishedEngine: make(chan struct{}),
	}
}

// SetMIDIEventsToModel routes MIDI input to the model (true) or to the engine
// for preview (false). Safe to call from any goroutine.
func (b *Broker) SetMIDIEventsToModel(value bool) {
	b.midiEventsToModel.Store(value)
}

// TrySend is a helper to send a value to a channel if it is not full. It is
// guaranteed to be non-blocking. Returns true if the value was sent.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TrySendToMIDI sends a MIDI-originated message to whichever recipient the
// broker currently routes MIDI to.
func (b *Broker) TrySendToMIDI(v any) bool {
	if b.midiEventsToModel.Load() {
		return TrySend(b.ToModel, MsgToModel{Data: v})
	}
	return TrySend(b.ToEngine, v)
}

// TimeoutReceive blocks until a value is received from c or until t has
// passed. ok is false on timeout or a closed channel.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
