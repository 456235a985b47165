package editor

import (
	"github.com/rytmi/rytmi"
)

// UpdateContext identifies the owning context of a tree edit: either a
// standalone track, or an instrument inside a pattern. Exactly one of the two
// is set; a context that resolves to nothing (the instrument or pattern was
// deleted meanwhile) simply makes the push a no-op.
type UpdateContext struct {
	TrackID rytmi.TrackID `json:"trackId,omitempty"`

	PatternScoped bool `json:"patternScoped,omitempty"`
	PatternID     int  `json:"patternId,omitempty"`
	InstrumentID  int  `json:"instrumentId,omitempty"`
}

// StandaloneContext addresses the standalone instrument with the given id.
func StandaloneContext(instrumentID int) UpdateContext {
	return UpdateContext{TrackID: rytmi.StandaloneTrackID(instrumentID)}
}

// PatternContext addresses an instrument inside a pattern.
func PatternContext(patternID, instrumentID int) UpdateContext {
	return UpdateContext{PatternScoped: true, PatternID: patternID, InstrumentID: instrumentID}
}

// Resolve maps the context to the engine track id it addresses.
func (c UpdateContext) Resolve() (rytmi.TrackID, bool) {
	if c.PatternScoped {
		return rytmi.PatternTrackID(c.PatternID, c.InstrumentID), true
	}
	if c.TrackID == "" {
		return "", false
	}
	return c.TrackID, true
}

// instrument resolves the context against the project. Returns nil when the
// addressed instrument no longer exists.
func (c UpdateContext) instrument(p *rytmi.Project) (*rytmi.Instrument, float64) {
	id, ok := c.Resolve()
	if !ok {
		return nil, rytmi.DefaultBaseMeter
	}
	return p.InstrumentForTrack(id)
}

// PushTreeUpdate sends the current tree of the context's instrument to the
// engine. Declines silently when the context is stale or the engine's queue
// is full; the next successful push carries the full state anyway.
func (m *Model) PushTreeUpdate(c UpdateContext) bool {
	if m.broker == nil {
		return false
	}
	id, ok := c.Resolve()
	if !ok {
		return false
	}
	instr, baseMeter := m.d.Project.InstrumentForTrack(id)
	if instr == nil {
		return false
	}
	return rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgUpdatePatternTree{
		TrackID:   id,
		Root:      instr.Root.Copy(),
		BaseMeter: baseMeter,
	}))
}
