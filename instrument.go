package rytmi

type (
	// InstrumentKind is the fixed enumeration of instrument types. Percussive
	// kinds trigger one-shot sounds and ignore note pitch in the editors;
	// melodic kinds are pitched synthesizers; KindSample plays back a sample
	// file.
	InstrumentKind string

	// SettingParameter documents one settings key an instrument kind takes,
	// with its valid range and default. The settings of an instrument are kept
	// as a flat map at the serialization boundary, but every edit goes through
	// this schema so out-of-range values never enter the model.
	SettingParameter struct {
		Name    string
		Min     float64
		Max     float64
		Default float64
	}

	// Instrument wraps exactly one pattern tree plus its sound settings. An
	// instrument either lives directly in the project (standalone, addressed
	// by its own id) or inside a Pattern (addressed by the composite pattern
	// track id).
	Instrument struct {
		ID         int                `yaml:"id" json:"id"`
		Name       string             `yaml:"name,omitempty" json:"name,omitempty"`
		Kind       InstrumentKind     `yaml:"kind" json:"kind"`
		Color      string             `yaml:"color,omitempty" json:"color,omitempty"`
		Volume     float64            `yaml:"volume" json:"volume"`
		Pan        float64            `yaml:"pan" json:"pan"`
		Mute       bool               `yaml:"mute,omitempty" json:"mute,omitempty"`
		Solo       bool               `yaml:"solo,omitempty" json:"solo,omitempty"`
		SamplePath string             `yaml:"samplePath,omitempty" json:"samplePath,omitempty"`
		Settings   map[string]float64 `yaml:"settings,flow,omitempty" json:"settings,omitempty"`
		Root       PatternNode        `yaml:"root" json:"root"`
	}

	// MelodicSettings is the typed view of a melodic instrument's settings.
	MelodicSettings struct {
		Attack       float64
		Decay        float64
		Sustain      float64
		Release      float64
		FilterCutoff float64
		Resonance    float64
		Detune       float64
	}

	// PercussiveSettings is the typed view of a percussive instrument's
	// settings.
	PercussiveSettings struct {
		Decay float64
		Tone  float64
		Snap  float64
	}
)

const (
	KindKick    InstrumentKind = "kick"
	KindSnare   InstrumentKind = "snare"
	KindHihat   InstrumentKind = "hihat"
	KindClap    InstrumentKind = "clap"
	KindTom     InstrumentKind = "tom"
	KindCymbal  InstrumentKind = "cymbal"
	KindShaker  InstrumentKind = "shaker"
	KindRimshot InstrumentKind = "rimshot"

	KindBass        InstrumentKind = "bass"
	KindSubtractive InstrumentKind = "subtractive"
	KindFM          InstrumentKind = "fm"
	KindWavetable   InstrumentKind = "wavetable"
	KindSupersaw    InstrumentKind = "supersaw"
	KindPluck       InstrumentKind = "pluck"
	KindPad         InstrumentKind = "pad"
	KindOrgan       InstrumentKind = "organ"

	KindSample InstrumentKind = "sample"
)

var percussiveSchema = []SettingParameter{
	{Name: "decay", Min: 0.01, Max: 4, Default: 0.3},
	{Name: "tone", Min: 0, Max: 1, Default: 0.5},
	{Name: "snap", Min: 0, Max: 1, Default: 0.5},
}

var melodicSchema = []SettingParameter{
	{Name: "attack", Min: 0, Max: 4, Default: 0.005},
	{Name: "decay", Min: 0, Max: 4, Default: 0.2},
	{Name: "sustain", Min: 0, Max: 1, Default: 0.6},
	{Name: "release", Min: 0, Max: 8, Default: 0.2},
	{Name: "filterCutoff", Min: 20, Max: 20000, Default: 8000},
	{Name: "resonance", Min: 0, Max: 1, Default: 0.1},
	{Name: "detune", Min: 0, Max: 1, Default: 0.1},
}

var sampleSchema = []SettingParameter{
	{Name: "attack", Min: 0, Max: 4, Default: 0},
	{Name: "release", Min: 0, Max: 8, Default: 0.05},
	{Name: "transpose", Min: -24, Max: 24, Default: 0},
}

// KindSettings documents all the settings keys each instrument kind takes.
var KindSettings = map[InstrumentKind][]SettingParameter{
	KindKick:    percussiveSchema,
	KindSnare:   percussiveSchema,
	KindHihat:   percussiveSchema,
	KindClap:    percussiveSchema,
	KindTom:     percussiveSchema,
	KindCymbal:  percussiveSchema,
	KindShaker:  percussiveSchema,
	KindRimshot: percussiveSchema,

	KindBass:        melodicSchema,
	KindSubtractive: melodicSchema,
	KindFM:          melodicSchema,
	KindWavetable:   melodicSchema,
	KindSupersaw:    melodicSchema,
	KindPluck:       melodicSchema,
	KindPad:         melodicSchema,
	KindOrgan:       melodicSchema,

	KindSample: sampleSchema,
}

func (k InstrumentKind) Valid() bool {
	_, ok := KindSettings[k]
	return ok
}

func (k InstrumentKind) Percussive() bool {
	switch k {
	case KindKick, KindSnare, KindHihat, KindClap, KindTom, KindCymbal, KindShaker, KindRimshot:
		return true
	}
	return false
}

func (k InstrumentKind) Melodic() bool {
	return k.Valid() && !k.Percussive() && k != KindSample
}

// ClampSetting clamps value to the valid range of the named setting for the
// kind. The second return value is false if the kind has no such setting, in
// which case the edit should be ignored.
func ClampSetting(kind InstrumentKind, name string, value float64) (float64, bool) {
	for _, p := range KindSettings[kind] {
		if p.Name != name {
			continue
		}
		if value < p.Min {
			value = p.Min
		}
		if value > p.Max {
			value = p.Max
		}
		return value, true
	}
	return 0, false
}

// Setting returns the instrument's value for the named setting, falling back
// to the schema default when unset.
func (i *Instrument) Setting(name string) float64 {
	if v, ok := i.Settings[name]; ok {
		return v
	}
	for _, p := range KindSettings[i.Kind] {
		if p.Name == name {
			return p.Default
		}
	}
	return 0
}

// Melodic returns the typed settings of a melodic instrument, defaults filled
// in. The map stays the single serialized representation; this is just the
// typed view the engine reads.
func (i *Instrument) Melodic() MelodicSettings {
	return MelodicSettings{
		Attack:       i.Setting("attack"),
		Decay:        i.Setting("decay"),
		Sustain:      i.Setting("sustain"),
		Release:      i.Setting("release"),
		FilterCutoff: i.Setting("filterCutoff"),
		Resonance:    i.Setting("resonance"),
		Detune:       i.Setting("detune"),
	}
}

// Percussive returns the typed settings of a percussive instrument.
func (i *Instrument) Percussive() PercussiveSettings {
	return PercussiveSettings{
		Decay: i.Setting("decay"),
		Tone:  i.Setting("tone"),
		Snap:  i.Setting("snap"),
	}
}

// Copy makes a deep copy of the instrument, tree included.
func (i *Instrument) Copy() Instrument {
	ret := *i
	if i.Settings != nil {
		ret.Settings = make(map[string]float64, len(i.Settings))
		for k, v := range i.Settings {
			ret.Settings[k] = v
		}
	}
	ret.Root = i.Root.Copy()
	return ret
}

// ClampVolume clamps an instrument volume to its valid range 0-2.
func ClampVolume(value float64) float64 {
	return clampFloat(value, 0, 2)
}

// ClampPan clamps a pan position to its valid range -1-1.
func ClampPan(value float64) float64 {
	return clampFloat(value, -1, 1)
}

func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
