package rytmi

import (
	"fmt"
	"strconv"
	"strings"
)

type (
	// TrackID addresses one instrument at engine time. Standalone instruments
	// use their own decimal id; pattern-scoped instruments use the synthetic
	// composite id built by PatternTrackID. The two namespaces can never
	// collide because the synthetic ids always carry the pattern prefix.
	TrackID string

	// Pattern is a reusable container of instruments with its own base meter,
	// the total beat span every contained tree's root subdivides.
	Pattern struct {
		ID          int          `yaml:"id" json:"id"`
		Name        string       `yaml:"name,omitempty" json:"name,omitempty"`
		BaseMeter   int          `yaml:"baseMeter" json:"baseMeter"`
		Instruments []Instrument `yaml:"instruments,omitempty" json:"instruments,omitempty"`
	}
)

const patternTrackPrefix = "__pattern_"

// PatternTrackID builds the synthetic track id for a pattern-scoped
// instrument. The format is part of the persisted contract and must be
// preserved exactly, as it is also used as a map key.
func PatternTrackID(patternID, instrumentID int) TrackID {
	return TrackID(fmt.Sprintf("%s%d_%d", patternTrackPrefix, patternID, instrumentID))
}

// StandaloneTrackID builds the track id of a standalone instrument.
func StandaloneTrackID(instrumentID int) TrackID {
	return TrackID(strconv.Itoa(instrumentID))
}

// ParsePatternTrackID recovers (patternID, instrumentID) from a synthetic
// pattern track id. ok is false for standalone ids and malformed input.
func ParsePatternTrackID(id TrackID) (patternID, instrumentID int, ok bool) {
	rest, found := strings.CutPrefix(string(id), patternTrackPrefix)
	if !found {
		return 0, 0, false
	}
	pat, instr, found := strings.Cut(rest, "_")
	if !found {
		return 0, 0, false
	}
	patternID, err := strconv.Atoi(pat)
	if err != nil {
		return 0, 0, false
	}
	instrumentID, err = strconv.Atoi(instr)
	if err != nil {
		return 0, 0, false
	}
	return patternID, instrumentID, true
}

// Meter returns the pattern's base meter in beats, defaulting when unset.
func (p *Pattern) Meter() float64 {
	if p.BaseMeter < 1 {
		return DefaultBaseMeter
	}
	return float64(p.BaseMeter)
}

// Instrument returns a pointer to the pattern-scoped instrument with the given
// id, or nil if the pattern has no such instrument.
func (p *Pattern) Instrument(instrumentID int) *Instrument {
	for i := range p.Instruments {
		if p.Instruments[i].ID == instrumentID {
			return &p.Instruments[i]
		}
	}
	return nil
}

// Copy makes a deep copy of the pattern.
func (p *Pattern) Copy() Pattern {
	ret := *p
	if p.Instruments != nil {
		ret.Instruments = make([]Instrument, len(p.Instruments))
		for i := range p.Instruments {
			ret.Instruments[i] = p.Instruments[i].Copy()
		}
	}
	return ret
}
