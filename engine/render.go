package engine

import (
	"fmt"

	"github.com/rytmi/rytmi"
)

// LoadProject installs every track, effect, envelope and automation of the
// project directly, bypassing the broker. Used for offline rendering and for
// seeding a player before the audio device starts pulling.
func (p *Player) LoadProject(project rytmi.Project) {
	if project.BPM >= 1 {
		p.bpm = project.BPM
	}
	for _, id := range project.TrackIDs() {
		instr, baseMeter := project.InstrumentForTrack(id)
		if instr == nil {
			continue
		}
		settings := make(map[string]float64, len(instr.Settings))
		for k, v := range instr.Settings {
			settings[k] = v
		}
		p.updateTrack(rytmi.TrackDescriptor{
			TrackID:    id,
			Kind:       instr.Kind,
			Root:       instr.Root.Copy(),
			BaseMeter:  baseMeter,
			Volume:     instr.Volume,
			Pan:        instr.Pan,
			Mute:       instr.Mute,
			Solo:       instr.Solo,
			Settings:   settings,
			SamplePath: instr.SamplePath,
		})
	}
	for _, e := range project.Effects {
		settings := make(map[string]float64, len(e.Settings))
		for k, v := range e.Settings {
			settings[k] = v
		}
		p.effects[e.ID] = settings
	}
	for _, e := range project.Envelopes {
		p.envelopes[e.ID] = map[string]float64{
			"attack": e.Attack, "decay": e.Decay, "sustain": e.Sustain, "release": e.Release,
		}
	}
	for _, a := range project.Automations {
		p.automations[a.Key()] = a.Copy()
	}
}

// RenderProject renders the given number of beats of the project offline and
// returns the stereo interleaved buffer.
func RenderProject(project rytmi.Project, beats float64) ([]float32, error) {
	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("cannot render invalid project: %w", err)
	}
	if beats <= 0 {
		return nil, fmt.Errorf("cannot render %v beats", beats)
	}
	p := NewPlayer(rytmi.NewBroker())
	p.LoadProject(project)
	p.playing = true
	frames := int(beats * 60 / float64(p.bpm) * rytmi.SampleRate)
	buffer := make([]float32, 2*frames)
	const step = 2 * 4096
	for pos := 0; pos < len(buffer); pos += step {
		end := pos + step
		if end > len(buffer) {
			end = len(buffer)
		}
		p.Process(buffer[pos:end])
	}
	return buffer, nil
}
