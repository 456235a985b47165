package editor

import (
	"fmt"

	"github.com/rytmi/rytmi"
)

// Instrument and pattern lifecycle plus track-level edits: volume, pan,
// settings, mute and solo. Value edits push targeted messages; structural
// changes push the whole track descriptor.

// AddInstrument creates a standalone instrument of the given kind and returns
// its context.
func (m *Model) AddInstrument(kind rytmi.InstrumentKind) (UpdateContext, bool) {
	if !kind.Valid() {
		return UpdateContext{}, false
	}
	m.saveUndo("AddInstrument", 0)
	instr := m.newInstrument(kind)
	m.d.Project.Instruments = append(m.d.Project.Instruments, instr)
	c := StandaloneContext(instr.ID)
	if id, ok := c.Resolve(); ok {
		m.pushTrack(id)
	}
	return c, true
}

// AddPatternInstrument creates an instrument of the given kind inside the
// pattern and returns its context.
func (m *Model) AddPatternInstrument(patternID int, kind rytmi.InstrumentKind) (UpdateContext, bool) {
	pattern := m.d.Project.Pattern(patternID)
	if pattern == nil || !kind.Valid() {
		return UpdateContext{}, false
	}
	m.saveUndo("AddPatternInstrument", 0)
	instr := m.newInstrument(kind)
	pattern.Instruments = append(pattern.Instruments, instr)
	c := PatternContext(patternID, instr.ID)
	if id, ok := c.Resolve(); ok {
		m.pushTrack(id)
	}
	return c, true
}

// DeleteInstrument removes the instrument the context addresses, its track in
// the engine, and any selection pointing into it.
func (m *Model) DeleteInstrument(c UpdateContext) bool {
	id, ok := c.Resolve()
	if !ok {
		return false
	}
	if c.PatternScoped {
		pattern := m.d.Project.Pattern(c.PatternID)
		if pattern == nil {
			return false
		}
		for i := range pattern.Instruments {
			if pattern.Instruments[i].ID == c.InstrumentID {
				m.saveUndo("DeleteInstrument", 0)
				m.releaseTreeIDs(&pattern.Instruments[i].Root)
				pattern.Instruments = append(pattern.Instruments[:i], pattern.Instruments[i+1:]...)
				m.afterInstrumentDelete(c, id)
				return true
			}
		}
		return false
	}
	for i := range m.d.Project.Instruments {
		if rytmi.StandaloneTrackID(m.d.Project.Instruments[i].ID) == id {
			m.saveUndo("DeleteInstrument", 0)
			m.releaseTreeIDs(&m.d.Project.Instruments[i].Root)
			m.d.Project.Instruments = append(m.d.Project.Instruments[:i], m.d.Project.Instruments[i+1:]...)
			m.afterInstrumentDelete(c, id)
			return true
		}
	}
	return false
}

// DuplicateInstrument clones the addressed instrument next to the original,
// with a fresh instrument id and fresh node ids throughout its tree.
func (m *Model) DuplicateInstrument(c UpdateContext) (UpdateContext, bool) {
	instr, _ := c.instrument(&m.d.Project)
	if instr == nil {
		return UpdateContext{}, false
	}
	m.saveUndo("DuplicateInstrument", 0)
	clone := instr.Copy()
	clone.ID = m.nextInstrumentID()
	clone.Name = fmt.Sprintf("%s copy", instr.Name)
	m.nodeIDs.AssignFreshIDs(&clone.Root)
	var ret UpdateContext
	if c.PatternScoped {
		pattern := m.d.Project.Pattern(c.PatternID)
		pattern.Instruments = append(pattern.Instruments, clone)
		ret = PatternContext(c.PatternID, clone.ID)
	} else {
		m.d.Project.Instruments = append(m.d.Project.Instruments, clone)
		ret = StandaloneContext(clone.ID)
	}
	if id, ok := ret.Resolve(); ok {
		m.pushTrack(id)
	}
	return ret, true
}

// AddPattern creates an empty pattern with the given base meter.
func (m *Model) AddPattern(name string, baseMeter int) int {
	if baseMeter < 1 {
		baseMeter = rytmi.DefaultBaseMeter
	}
	m.saveUndo("AddPattern", 0)
	id := 1
	for i := range m.d.Project.Patterns {
		if m.d.Project.Patterns[i].ID >= id {
			id = m.d.Project.Patterns[i].ID + 1
		}
	}
	m.d.Project.Patterns = append(m.d.Project.Patterns, rytmi.Pattern{ID: id, Name: name, BaseMeter: baseMeter})
	return id
}

// DeletePattern removes the pattern and all its instrument tracks.
func (m *Model) DeletePattern(patternID int) bool {
	for i := range m.d.Project.Patterns {
		if m.d.Project.Patterns[i].ID != patternID {
			continue
		}
		m.saveUndo("DeletePattern", 0)
		pattern := &m.d.Project.Patterns[i]
		for j := range pattern.Instruments {
			m.releaseTreeIDs(&pattern.Instruments[j].Root)
			if m.broker != nil {
				trackID := rytmi.PatternTrackID(patternID, pattern.Instruments[j].ID)
				rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgRemoveTrack{TrackID: trackID}))
			}
		}
		m.d.Project.Patterns = append(m.d.Project.Patterns[:i], m.d.Project.Patterns[i+1:]...)
		if m.d.Selection.Context.PatternScoped && m.d.Selection.Context.PatternID == patternID {
			m.d.Selection = Selection{}
		}
		return true
	}
	return false
}

// SetInstrumentVolume sets the addressed instrument's volume, clamped to 0-2.
func (m *Model) SetInstrumentVolume(c UpdateContext, value float64, skipHistory bool) bool {
	return m.editInstrument(c, "SetInstrumentVolume", skipHistory, func(instr *rytmi.Instrument, id rytmi.TrackID) {
		instr.Volume = rytmi.ClampVolume(value)
		rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgUpdateTrackVolume{TrackID: id, Volume: instr.Volume}))
	})
}

// SetInstrumentPan sets the addressed instrument's pan, clamped to -1-1.
func (m *Model) SetInstrumentPan(c UpdateContext, value float64, skipHistory bool) bool {
	return m.editInstrument(c, "SetInstrumentPan", skipHistory, func(instr *rytmi.Instrument, id rytmi.TrackID) {
		instr.Pan = rytmi.ClampPan(value)
		rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgUpdateTrackPan{TrackID: id, Pan: instr.Pan}))
	})
}

// SetInstrumentSetting sets one named sound setting, clamped to the schema
// range of the instrument's kind. Settings unknown to the kind are ignored.
func (m *Model) SetInstrumentSetting(c UpdateContext, name string, value float64, skipHistory bool) bool {
	instr, _ := c.instrument(&m.d.Project)
	if instr == nil {
		return false
	}
	clamped, ok := rytmi.ClampSetting(instr.Kind, name, value)
	if !ok {
		return false
	}
	return m.editInstrument(c, "SetInstrumentSetting:"+name, skipHistory, func(instr *rytmi.Instrument, id rytmi.TrackID) {
		if instr.Settings == nil {
			instr.Settings = make(map[string]float64)
		}
		instr.Settings[name] = clamped
		settings := make(map[string]float64, len(instr.Settings))
		for k, v := range instr.Settings {
			settings[k] = v
		}
		rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgUpdateTrackSettings{TrackID: id, Settings: settings}))
	})
}

// SetInstrumentMute mutes or unmutes the track.
func (m *Model) SetInstrumentMute(c UpdateContext, value bool) bool {
	return m.editInstrument(c, "SetInstrumentMute", false, func(instr *rytmi.Instrument, id rytmi.TrackID) {
		instr.Mute = value
		m.pushTrack(id)
	})
}

// SetInstrumentSolo solos or unsolos the track.
func (m *Model) SetInstrumentSolo(c UpdateContext, value bool) bool {
	return m.editInstrument(c, "SetInstrumentSolo", false, func(instr *rytmi.Instrument, id rytmi.TrackID) {
		instr.Solo = value
		m.pushTrack(id)
	})
}

// SetInstrumentSample points a sample instrument at a sample file.
func (m *Model) SetInstrumentSample(c UpdateContext, path string) bool {
	return m.editInstrument(c, "SetInstrumentSample", false, func(instr *rytmi.Instrument, id rytmi.TrackID) {
		instr.SamplePath = path
		m.pushTrack(id)
	})
}

// PreviewNote plays a one-off note on the addressed track without touching
// the project.
func (m *Model) PreviewNote(c UpdateContext, pitch int, velocity float64) {
	if m.broker == nil {
		return
	}
	id, ok := c.Resolve()
	if !ok {
		return
	}
	rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgNoteOn{
		TrackID:  id,
		Pitch:    rytmi.ClampPitch(float64(pitch)),
		Velocity: rytmi.ClampVelocity(velocity),
	}))
}

func (m *Model) editInstrument(c UpdateContext, kind string, skipHistory bool, edit func(*rytmi.Instrument, rytmi.TrackID)) bool {
	instr, _ := c.instrument(&m.d.Project)
	id, _ := c.Resolve()
	if instr == nil {
		return false
	}
	if skipHistory {
		m.BeginDrag()
	}
	m.saveUndo(kind, 10)
	edit(instr, id)
	if !skipHistory && m.dragging {
		m.EndDrag()
	}
	return true
}

func (m *Model) newInstrument(kind rytmi.InstrumentKind) rytmi.Instrument {
	return rytmi.Instrument{
		ID:     m.nextInstrumentID(),
		Name:   string(kind),
		Kind:   kind,
		Volume: 1,
		Root:   rytmi.PatternNode{ID: m.nodeIDs.Next(), Division: 1},
	}
}

// nextInstrumentID returns an instrument id unused anywhere in the project.
// Instrument ids are globally unique, so the synthetic pattern track ids can
// never collide with standalone ones.
func (m *Model) nextInstrumentID() int {
	id := 1
	for i := range m.d.Project.Instruments {
		if m.d.Project.Instruments[i].ID >= id {
			id = m.d.Project.Instruments[i].ID + 1
		}
	}
	for i := range m.d.Project.Patterns {
		for j := range m.d.Project.Patterns[i].Instruments {
			if m.d.Project.Patterns[i].Instruments[j].ID >= id {
				id = m.d.Project.Patterns[i].Instruments[j].ID + 1
			}
		}
	}
	return id
}

func (m *Model) releaseTreeIDs(root *rytmi.PatternNode) {
	m.nodeIDs.Free(root)
}

func (m *Model) afterInstrumentDelete(c UpdateContext, id rytmi.TrackID) {
	if m.d.Selection.Context == c {
		m.d.Selection = Selection{}
	}
	if m.broker != nil {
		rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgRemoveTrack{TrackID: id}))
	}
}
