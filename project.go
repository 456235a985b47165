package rytmi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type (
	// Effect is an audio effect whose parameters can be automated. The engine
	// interprets the kind; the core only stores and addresses it.
	Effect struct {
		ID       int                `yaml:"id" json:"id"`
		Kind     string             `yaml:"kind" json:"kind"`
		Settings map[string]float64 `yaml:"settings,flow,omitempty" json:"settings,omitempty"`
	}

	// Envelope is a modulation envelope addressable by automation curves.
	Envelope struct {
		ID      int     `yaml:"id" json:"id"`
		Attack  float64 `yaml:"attack" json:"attack"`
		Decay   float64 `yaml:"decay" json:"decay"`
		Sustain float64 `yaml:"sustain" json:"sustain"`
		Release float64 `yaml:"release" json:"release"`
	}

	// Project is the root of the persisted state: standalone instruments,
	// patterns with their pattern-scoped instruments, effects, envelopes and
	// the automation map keyed by AutomationKey. The core never owns the
	// current project; it only transforms snapshots passed in by the state
	// layer.
	Project struct {
		Name        string                         `yaml:"name,omitempty" json:"name,omitempty"`
		BPM         int                            `yaml:"bpm" json:"bpm"`
		Instruments []Instrument                   `yaml:"instruments,omitempty" json:"instruments,omitempty"`
		Patterns    []Pattern                      `yaml:"patterns,omitempty" json:"patterns,omitempty"`
		Effects     []Effect                       `yaml:"effects,omitempty" json:"effects,omitempty"`
		Envelopes   []Envelope                     `yaml:"envelopes,omitempty" json:"envelopes,omitempty"`
		Automations map[string]ParameterAutomation `yaml:"automations,omitempty" json:"automations,omitempty"`
	}
)

// Copy makes a deep copy of the project, used for history snapshots.
func (p *Project) Copy() Project {
	ret := *p
	if p.Instruments != nil {
		ret.Instruments = make([]Instrument, len(p.Instruments))
		for i := range p.Instruments {
			ret.Instruments[i] = p.Instruments[i].Copy()
		}
	}
	if p.Patterns != nil {
		ret.Patterns = make([]Pattern, len(p.Patterns))
		for i := range p.Patterns {
			ret.Patterns[i] = p.Patterns[i].Copy()
		}
	}
	if p.Effects != nil {
		ret.Effects = make([]Effect, len(p.Effects))
		for i, e := range p.Effects {
			ret.Effects[i] = e
			if e.Settings != nil {
				ret.Effects[i].Settings = make(map[string]float64, len(e.Settings))
				for k, v := range e.Settings {
					ret.Effects[i].Settings[k] = v
				}
			}
		}
	}
	if p.Envelopes != nil {
		ret.Envelopes = make([]Envelope, len(p.Envelopes))
		copy(ret.Envelopes, p.Envelopes)
	}
	if p.Automations != nil {
		ret.Automations = make(map[string]ParameterAutomation, len(p.Automations))
		for k, a := range p.Automations {
			ret.Automations[k] = a.Copy()
		}
	}
	return ret
}

// Pattern returns a pointer to the pattern with the given id, or nil.
func (p *Project) Pattern(id int) *Pattern {
	for i := range p.Patterns {
		if p.Patterns[i].ID == id {
			return &p.Patterns[i]
		}
	}
	return nil
}

// StandaloneInstrument returns a pointer to the standalone instrument with the
// given id, or nil.
func (p *Project) StandaloneInstrument(id int) *Instrument {
	for i := range p.Instruments {
		if p.Instruments[i].ID == id {
			return &p.Instruments[i]
		}
	}
	return nil
}

// InstrumentForTrack resolves a track id to the instrument it addresses and
// the base meter its tree subdivides. Synthetic pattern track ids resolve
// through the owning pattern; everything else is looked up as a standalone
// instrument id. A nil result is routine (deleted mid-flight, stale context).
func (p *Project) InstrumentForTrack(id TrackID) (instr *Instrument, baseMeter float64) {
	if patternID, instrumentID, ok := ParsePatternTrackID(id); ok {
		pattern := p.Pattern(patternID)
		if pattern == nil {
			return nil, DefaultBaseMeter
		}
		return pattern.Instrument(instrumentID), pattern.Meter()
	}
	for i := range p.Instruments {
		if StandaloneTrackID(p.Instruments[i].ID) == id {
			return &p.Instruments[i], DefaultBaseMeter
		}
	}
	return nil, DefaultBaseMeter
}

// TrackIDs returns the track ids of every instrument in the project,
// standalone first, then pattern-scoped.
func (p *Project) TrackIDs() []TrackID {
	ret := make([]TrackID, 0, len(p.Instruments))
	for i := range p.Instruments {
		ret = append(ret, StandaloneTrackID(p.Instruments[i].ID))
	}
	for i := range p.Patterns {
		for j := range p.Patterns[i].Instruments {
			ret = append(ret, PatternTrackID(p.Patterns[i].ID, p.Patterns[i].Instruments[j].ID))
		}
	}
	return ret
}

// Effect returns a pointer to the effect with the given id, or nil.
func (p *Project) Effect(id int) *Effect {
	for i := range p.Effects {
		if p.Effects[i].ID == id {
			return &p.Effects[i]
		}
	}
	return nil
}

// Envelope returns a pointer to the envelope with the given id, or nil.
func (p *Project) Envelope(id int) *Envelope {
	for i := range p.Envelopes {
		if p.Envelopes[i].ID == id {
			return &p.Envelopes[i]
		}
	}
	return nil
}

// Automation returns the automation record stored under the exact key, if any.
func (p *Project) Automation(key string) (ParameterAutomation, bool) {
	a, ok := p.Automations[key]
	return a, ok
}

// DeleteAutomationsFor removes every automation record targeting the given
// object, called when the owning effect or envelope is deleted.
func (p *Project) DeleteAutomationsFor(targetType TargetType, targetID int) {
	for k, a := range p.Automations {
		if a.TargetType == targetType && a.TargetID == targetID {
			delete(p.Automations, k)
		}
	}
}

// Validate checks the invariants a well-formed project upholds.
func (p *Project) Validate() error {
	if p.BPM < 1 {
		return errors.New("BPM should be > 0")
	}
	seen := map[TrackID]bool{}
	for _, id := range p.TrackIDs() {
		if seen[id] {
			return fmt.Errorf("duplicate track id %q", id)
		}
		seen[id] = true
	}
	for i := range p.Automations {
		a := p.Automations[i]
		if a.Min > a.Max {
			return fmt.Errorf("automation %q has min > max", a.Key())
		}
		if a.Key() != i {
			return fmt.Errorf("automation stored under %q but keyed %q", i, a.Key())
		}
	}
	return nil
}

// UnmarshalProject parses a project from JSON or YAML. JSON is tried first as
// it is the persisted transport contract; YAML serves the human-edited files.
func UnmarshalProject(b []byte) (Project, error) {
	var project Project
	if errJSON := json.Unmarshal(b, &project); errJSON != nil {
		if errYaml := yaml.Unmarshal(b, &project); errYaml != nil {
			return Project{}, fmt.Errorf("unmarshaling project failed: %v / %v", errYaml, errJSON)
		}
	}
	return project, nil
}

// ReadProject reads a project from r, accepting JSON or YAML.
func ReadProject(r io.Reader) (Project, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Project{}, fmt.Errorf("reading project failed: %w", err)
	}
	return UnmarshalProject(b)
}

// WriteJSON writes the project as JSON, the transport contract format. A
// serialize-deserialize round trip reproduces an identical project, ids and
// all, which undo/redo and save/load depend on.
func (p *Project) WriteJSON(w io.Writer) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling project failed: %w", err)
	}
	_, err = w.Write(b)
	return err
}

// WriteYAML writes the project as YAML for human-edited files.
func (p *Project) WriteYAML(w io.Writer) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling project failed: %w", err)
	}
	_, err = w.Write(b)
	return err
}
