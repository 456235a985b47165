// Package engine is the real-time side: it renders audio from the declarative
// track state pushed through the broker and never touches the editing model
// directly. All methods run on the audio goroutine; the only crossing points
// are the broker's channels.
package engine

import (
	"math"
	"sort"

	"github.com/rytmi/rytmi"
	"github.com/viterin/vek/vek32"
)

// chunkSize is the scheduling quantum in frames. Note starts and automation
// updates quantize to it, about 3 ms at the fixed sample rate.
const chunkSize = 128

type (
	// Player implements rytmi.AudioRenderer. Each Process call first drains
	// pending messages, then renders, so an edit is audible on the next
	// buffer at the latest.
	Player struct {
		broker *rytmi.Broker

		tracks map[rytmi.TrackID]*track
		order  []rytmi.TrackID

		effects     map[int]map[string]float64
		envelopes   map[int]map[string]float64
		automations map[string]rytmi.ParameterAutomation

		samples *sampleCache

		bpm     int
		playing bool
		beat    float64
		closed  bool

		scratch []float32
		levels  []float32
	}

	track struct {
		desc   rytmi.TrackDescriptor
		events []rytmi.NoteEvent
		span   float64
		voices []*voice
		sample *Sample
		level  float32
	}
)

func NewPlayer(broker *rytmi.Broker) *Player {
	return &Player{
		broker:      broker,
		tracks:      make(map[rytmi.TrackID]*track),
		effects:     make(map[int]map[string]float64),
		envelopes:   make(map[int]map[string]float64),
		automations: make(map[string]rytmi.ParameterAutomation),
		samples:     newSampleCache(),
		bpm:         120,
	}
}

// Process renders one stereo interleaved buffer. Implements
// rytmi.AudioRenderer.
func (p *Player) Process(buffer []float32) {
	p.processMessages()
	for i := range buffer {
		buffer[i] = 0
	}
	if p.closed {
		return
	}
	for pos := 0; pos < len(buffer); pos += 2 * chunkSize {
		end := pos + 2*chunkSize
		if end > len(buffer) {
			end = len(buffer)
		}
		p.renderChunk(buffer[pos:end])
	}
	p.sendFeedback()
}

func (p *Player) renderChunk(chunk []float32) {
	frames := len(chunk) / 2
	beatsPerFrame := float64(p.bpm) / 60 / rytmi.SampleRate
	chunkBeats := beatsPerFrame * float64(frames)
	if p.playing {
		p.applyAutomations()
		p.triggerEvents(chunkBeats)
	}
	if cap(p.scratch) < len(chunk) {
		p.scratch = make([]float32, len(chunk))
	}
	scratch := p.scratch[:len(chunk)]
	anySolo := p.anySolo()
	for _, id := range p.order {
		t := p.tracks[id]
		if len(t.voices) == 0 {
			t.level = 0
			continue
		}
		for i := range scratch {
			scratch[i] = 0
		}
		gainL, gainR := panGains(t.desc.Volume, t.desc.Pan)
		kept := t.voices[:0]
		for _, v := range t.voices {
			v.render(scratch, gainL, gainR)
			if !v.done {
				kept = append(kept, v)
			}
		}
		t.voices = kept
		// voices on an inaudible track still advance and prune, their output
		// is just not mixed in
		if t.desc.Mute || (anySolo && !t.desc.Solo) {
			t.level = 0
			continue
		}
		t.level = peak(scratch)
		vek32.Add_Inplace(chunk, scratch)
	}
	if gain := p.masterGain(); gain != 1 {
		vek32.MulNumber_Inplace(chunk, float32(gain))
	}
	if p.playing {
		p.beat += chunkBeats
	}
}

// triggerEvents starts voices for every note whose start falls inside the
// chunk. Each track loops over its own span, so trees of different lengths
// phase against each other. Muted and solo-gated tracks trigger nothing.
func (p *Player) triggerEvents(chunkBeats float64) {
	secondsPerBeat := 60 / float64(p.bpm)
	anySolo := p.anySolo()
	for _, id := range p.order {
		t := p.tracks[id]
		if t.desc.Mute || (anySolo && !t.desc.Solo) {
			continue
		}
		if t.span <= 0 || len(t.events) == 0 {
			continue
		}
		local := math.Mod(p.beat, t.span)
		for i := range t.events {
			ev := t.events[i]
			starts := ev.Start >= local && ev.Start < local+chunkBeats
			// the chunk may wrap past the end of the span
			if !starts && local+chunkBeats > t.span {
				starts = ev.Start < local+chunkBeats-t.span
			}
			if starts {
				t.trigger(ev, secondsPerBeat, p.samples)
			}
		}
	}
}

func (t *track) trigger(ev rytmi.NoteEvent, secondsPerBeat float64, samples *sampleCache) {
	view := rytmi.Instrument{Kind: t.desc.Kind, Settings: t.desc.Settings}
	v := &voice{
		kind:     t.desc.Kind,
		pitch:    ev.Pitch,
		velocity: ev.Velocity,
		holdFor:  ev.Duration * secondsPerBeat,
		noise:    uint32(ev.NodeID)*2654435761 + 1,
	}
	switch {
	case t.desc.Kind == rytmi.KindSample:
		v.sample = samples.get(t.desc.SamplePath)
		if v.sample == nil {
			return
		}
		v.attack = view.Setting("attack")
		v.relTime = view.Setting("release")
		v.transpose = view.Setting("transpose") + float64(ev.Pitch-rytmi.DefaultPitch)
	case t.desc.Kind.Percussive():
		v.perc = view.Percussive()
		v.holdFor = -1 // one-shots die with their own envelope
	default:
		v.mel = view.Melodic()
	}
	t.voices = append(t.voices, v)
}

// applyAutomations folds every automation curve into the stored parameter
// state at the current playhead. The stored value doubles as the fallback, so
// a record with no points leaves the manual setting alone.
func (p *Player) applyAutomations() {
	for _, a := range p.automations {
		var params map[string]float64
		switch a.TargetType {
		case rytmi.TargetEffect:
			params = p.effectParams(a.TargetID)
		case rytmi.TargetEnvelope:
			params = p.envelopeParams(a.TargetID)
		default:
			continue
		}
		current, ok := params[a.ParameterKey]
		if !ok {
			current = (a.Min + a.Max) / 2
		}
		params[a.ParameterKey] = a.ValueAt(p.beat, current)
	}
}

func (p *Player) effectParams(id int) map[string]float64 {
	if p.effects[id] == nil {
		p.effects[id] = make(map[string]float64)
	}
	return p.effects[id]
}

func (p *Player) envelopeParams(id int) map[string]float64 {
	if p.envelopes[id] == nil {
		p.envelopes[id] = make(map[string]float64)
	}
	return p.envelopes[id]
}

// masterGain multiplies the gain parameters of every gain-bearing effect.
func (p *Player) masterGain() float64 {
	gain := 1.0
	for _, params := range p.effects {
		if g, ok := params["gain"]; ok {
			gain *= g
		}
	}
	return gain
}

func (p *Player) sendFeedback() {
	if cap(p.levels) < len(p.order) {
		p.levels = make([]float32, len(p.order))
	}
	levels := p.levels[:0]
	for _, id := range p.order {
		levels = append(levels, p.tracks[id].level)
	}
	sent := make([]float32, len(levels))
	copy(sent, levels)
	rytmi.TrySend(p.broker.ToModel, rytmi.MsgToModel{
		HasPosition:  true,
		PlayPosition: p.beat,
		Playing:      p.playing,
		TrackLevels:  sent,
	})
}

func (p *Player) processMessages() {
	for {
		select {
		case <-p.broker.CloseEngine:
			if !p.closed {
				p.closed = true
				close(p.broker.FinishedEngine)
			}
		case msg := <-p.broker.ToEngine:
			p.apply(msg)
		default:
			return
		}
	}
}

func (p *Player) apply(msg any) {
	switch e := msg.(type) {
	case rytmi.MsgUpdateTrack:
		p.updateTrack(e.Track)
	case rytmi.MsgUpdatePatternTree:
		if t, ok := p.tracks[e.TrackID]; ok {
			t.desc.Root = e.Root
			t.desc.BaseMeter = e.BaseMeter
			t.recompute()
		}
	case rytmi.MsgRemoveTrack:
		delete(p.tracks, e.TrackID)
		p.rebuildOrder()
	case rytmi.MsgUpdateTrackVolume:
		if t, ok := p.tracks[e.TrackID]; ok {
			t.desc.Volume = e.Volume
		}
	case rytmi.MsgUpdateTrackPan:
		if t, ok := p.tracks[e.TrackID]; ok {
			t.desc.Pan = e.Pan
		}
	case rytmi.MsgUpdateTrackSettings:
		if t, ok := p.tracks[e.TrackID]; ok {
			t.desc.Settings = e.Settings
		}
	case rytmi.MsgUpdateEffect:
		p.effects[e.EffectID] = e.Settings
	case rytmi.MsgUpdateEnvelope:
		p.envelopes[e.EnvelopeID] = e.Settings
	case rytmi.MsgUpdateAutomation:
		p.automations[e.Automation.Key()] = e.Automation
	case rytmi.MsgDeleteAutomation:
		delete(p.automations, e.Key)
	case rytmi.MsgSetPlaying:
		if e.Playing && !p.playing {
			p.beat = 0
		}
		p.playing = e.Playing
		if !e.Playing {
			p.releaseAll()
		}
	case rytmi.MsgSetBPM:
		if e.BPM >= 1 {
			p.bpm = e.BPM
		}
	case rytmi.MsgNoteOn:
		if t, ok := p.tracks[e.TrackID]; ok {
			t.trigger(rytmi.NoteEvent{
				Start: -1, Duration: -1,
				Pitch:    e.Pitch,
				Velocity: e.Velocity,
			}, 60/float64(p.bpm), p.samples)
			// preview notes hold until the matching note off
			if len(t.voices) > 0 {
				t.voices[len(t.voices)-1].holdFor = -1
			}
		}
	case rytmi.MsgNoteOff:
		if t, ok := p.tracks[e.TrackID]; ok {
			for _, v := range t.voices {
				if v.pitch == e.Pitch && !v.released {
					v.release()
				}
			}
		}
	}
}

func (p *Player) updateTrack(desc rytmi.TrackDescriptor) {
	t, ok := p.tracks[desc.TrackID]
	if !ok {
		t = &track{}
		p.tracks[desc.TrackID] = t
		p.rebuildOrder()
	}
	t.desc = desc
	t.sample = p.samples.get(desc.SamplePath)
	t.recompute()
}

func (t *track) recompute() {
	baseMeter := t.desc.BaseMeter
	if baseMeter <= 0 {
		baseMeter = rytmi.DefaultBaseMeter
	}
	t.span = baseMeter
	t.events = rytmi.ResolveTiming(t.desc.Root, baseMeter)
}

func (p *Player) rebuildOrder() {
	p.order = p.order[:0]
	for id := range p.tracks {
		p.order = append(p.order, id)
	}
	sort.Slice(p.order, func(i, j int) bool { return p.order[i] < p.order[j] })
}

func (p *Player) anySolo() bool {
	for _, t := range p.tracks {
		if t.desc.Solo {
			return true
		}
	}
	return false
}

func (p *Player) releaseAll() {
	for _, t := range p.tracks {
		for _, v := range t.voices {
			v.release()
		}
	}
}

// panGains is a constant-power pan law combined with the track volume.
func panGains(volume, pan float64) (gainL, gainR float32) {
	angle := (pan + 1) * math.Pi / 4
	return float32(volume * math.Cos(angle)), float32(volume * math.Sin(angle))
}

func peak(buffer []float32) float32 {
	hi := vek32.Max(buffer)
	lo := vek32.Min(buffer)
	if -lo > hi {
		return -lo
	}
	return hi
}
