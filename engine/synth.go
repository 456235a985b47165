package engine

import (
	"math"

	"github.com/rytmi/rytmi"
)

// voice is one sounding note. Percussive kinds are one-shots that die with
// their decay envelope; melodic kinds run an ADSR and release either when the
// note's span ends (holdFor) or on an explicit note off (holdFor < 0).
type voice struct {
	kind     rytmi.InstrumentKind
	pitch    int
	velocity float64

	perc rytmi.PercussiveSettings
	mel  rytmi.MelodicSettings

	sample    *Sample
	samplePos float64
	attack    float64
	relTime   float64
	transpose float64

	age      float64 // seconds since trigger
	holdFor  float64 // seconds until self-release; <0 means wait for note off
	released bool
	relAge   float64
	relLevel float64

	phase   float64
	phase2  float64
	lowpass float64
	noise   uint32

	done bool
}

const secondsPerFrame = 1.0 / rytmi.SampleRate

func midiToFreq(pitch int) float64 {
	return 440 * math.Pow(2, float64(pitch-69)/12)
}

// render adds the voice into the stereo interleaved buffer, applying the
// already combined track and note gains per channel.
func (v *voice) render(out []float32, gainL, gainR float32) {
	for i := 0; i+1 < len(out); i += 2 {
		if v.done {
			return
		}
		if !v.released && v.holdFor >= 0 && v.age >= v.holdFor {
			v.release()
		}
		var l, r float64
		switch {
		case v.sample != nil:
			l, r = v.sampleFrame()
		case v.kind.Percussive():
			l = v.percussiveFrame()
			r = l
		default:
			l = v.melodicFrame()
			r = l
		}
		out[i] += float32(l) * gainL
		out[i+1] += float32(r) * gainR
		v.age += secondsPerFrame
		if v.released {
			v.relAge += secondsPerFrame
		}
	}
}

func (v *voice) release() {
	if v.released {
		return
	}
	v.relLevel = v.adsr()
	v.released = true
	v.relAge = 0
}

// noiseFrame is a xorshift32 white noise source, one state per voice so
// voices do not correlate.
func (v *voice) noiseFrame() float64 {
	v.noise ^= v.noise << 13
	v.noise ^= v.noise >> 17
	v.noise ^= v.noise << 5
	return float64(int32(v.noise)) / (1 << 31)
}

func (v *voice) percussiveFrame() float64 {
	decay := v.perc.Decay
	if decay < 0.01 {
		decay = 0.01
	}
	env := math.Exp(-v.age / (decay * 0.35))
	if env < 0.001 {
		v.done = true
		return 0
	}
	tone := v.perc.Tone
	snap := v.perc.Snap
	var s float64
	switch v.kind {
	case rytmi.KindKick:
		// pitch envelope drops from a snap-scaled start down to the body
		// frequency over the first few tens of milliseconds
		body := 40 + tone*40
		freq := body + 160*(0.3+snap)*math.Exp(-v.age*45)
		v.phase += freq * secondsPerFrame
		s = math.Sin(2 * math.Pi * v.phase)
	case rytmi.KindSnare:
		v.phase += (150 + tone*100) * secondsPerFrame
		body := math.Sin(2*math.Pi*v.phase) * math.Exp(-v.age/(decay*0.15))
		s = v.noiseFrame()*(0.4+0.5*snap) + body*0.6
	case rytmi.KindHihat, rytmi.KindShaker:
		n := v.noiseFrame()
		v.lowpass += (n - v.lowpass) * (0.2 + 0.6*tone)
		s = (n - v.lowpass) * 1.5
		env = math.Exp(-v.age / (decay * 0.15))
		if env < 0.001 {
			v.done = true
			return 0
		}
	case rytmi.KindCymbal:
		n := v.noiseFrame()
		v.lowpass += (n - v.lowpass) * (0.3 + 0.5*tone)
		s = n - v.lowpass*0.5
	case rytmi.KindClap:
		burst := 0.6 + 0.4*math.Sin(2*math.Pi*v.age*(40+snap*40))
		s = v.noiseFrame() * burst
	case rytmi.KindTom:
		freq := (80 + tone*100) * (1 + 0.5*math.Exp(-v.age*25))
		v.phase += freq * secondsPerFrame
		s = math.Sin(2 * math.Pi * v.phase)
	case rytmi.KindRimshot:
		v.phase += (400 + tone*300) * secondsPerFrame
		s = math.Sin(2*math.Pi*v.phase)*0.5 + v.noiseFrame()*0.5
		env = math.Exp(-v.age / 0.03)
		if env < 0.001 {
			v.done = true
			return 0
		}
	default:
		s = v.noiseFrame()
	}
	return s * env * v.velocity
}

// adsr is the current melodic envelope gain, release excluded.
func (v *voice) adsr() float64 {
	m := v.mel
	switch {
	case m.Attack > 0 && v.age < m.Attack:
		return v.age / m.Attack
	case m.Decay > 0 && v.age < m.Attack+m.Decay:
		t := (v.age - m.Attack) / m.Decay
		return 1 + (m.Sustain-1)*t
	}
	return m.Sustain
}

func (v *voice) melodicFrame() float64 {
	gain := v.adsr()
	if v.released {
		if v.mel.Release <= 0 || v.relAge >= v.mel.Release {
			v.done = true
			return 0
		}
		gain = v.relLevel * (1 - v.relAge/v.mel.Release)
	}
	freq := midiToFreq(v.pitch)
	detune := v.mel.Detune * 0.01
	var s float64
	switch v.kind {
	case rytmi.KindBass:
		v.phase += freq * 0.5 * secondsPerFrame
		s = saw(v.phase)
	case rytmi.KindFM:
		v.phase2 += freq * 2 * secondsPerFrame
		mod := math.Sin(2*math.Pi*v.phase2) * (0.5 + v.mel.Resonance*4)
		v.phase += freq * secondsPerFrame
		s = math.Sin(2*math.Pi*v.phase + mod)
	case rytmi.KindSupersaw:
		v.phase += freq * secondsPerFrame
		v.phase2 += freq * (1 + detune*4) * secondsPerFrame
		s = (saw(v.phase) + saw(v.phase2) + saw(v.phase*(1-detune*2))) / 3
	case rytmi.KindPluck:
		v.phase += freq * secondsPerFrame
		s = triangle(v.phase) * math.Exp(-v.age*6)
	case rytmi.KindOrgan:
		v.phase += freq * secondsPerFrame
		p := 2 * math.Pi * v.phase
		s = (math.Sin(p) + 0.5*math.Sin(2*p) + 0.25*math.Sin(3*p)) / 1.75
	case rytmi.KindWavetable:
		v.phase += freq * secondsPerFrame
		t := v.mel.FilterCutoff / 20000
		s = math.Sin(2*math.Pi*v.phase)*(1-t) + saw(v.phase)*t
	default: // subtractive, pad
		v.phase += freq * secondsPerFrame
		v.phase2 += freq * (1 + detune) * secondsPerFrame
		s = (saw(v.phase) + saw(v.phase2)) * 0.5
	}
	// one-pole lowpass; the coefficient tracks the cutoff setting
	coef := 1 - math.Exp(-2*math.Pi*v.mel.FilterCutoff*secondsPerFrame)
	v.lowpass += (s - v.lowpass) * coef
	s = v.lowpass + (s-v.lowpass)*v.mel.Resonance*0.5
	return s * gain * v.velocity * 0.5
}

func (v *voice) sampleFrame() (l, r float64) {
	data := v.sample.Data
	idx := int(v.samplePos) * 2
	if idx+3 >= len(data) {
		v.done = true
		return 0, 0
	}
	frac := v.samplePos - math.Floor(v.samplePos)
	l = float64(data[idx])*(1-frac) + float64(data[idx+2])*frac
	r = float64(data[idx+1])*(1-frac) + float64(data[idx+3])*frac
	gain := 1.0
	if v.attack > 0 && v.age < v.attack {
		gain = v.age / v.attack
	}
	if v.released {
		if v.relTime <= 0 || v.relAge >= v.relTime {
			v.done = true
			return 0, 0
		}
		gain *= 1 - v.relAge/v.relTime
	}
	rate := float64(v.sample.Rate) / rytmi.SampleRate * math.Pow(2, v.transpose/12)
	v.samplePos += rate
	gain *= v.velocity
	return l * gain, r * gain
}

func saw(phase float64) float64 {
	return 2*(phase-math.Floor(phase)) - 1
}

func triangle(phase float64) float64 {
	return 2*math.Abs(saw(phase)) - 1
}
