package editor

import (
	"github.com/rytmi/rytmi"
)

// Effect, envelope and automation editing. Automation records are lazily
// created on the first point added; deleting an effect or envelope cascades
// to every record that targets it.

// AddEffect creates an effect of the given kind and returns its id.
func (m *Model) AddEffect(kind string) int {
	m.saveUndo("AddEffect", 0)
	id := 1
	for i := range m.d.Project.Effects {
		if m.d.Project.Effects[i].ID >= id {
			id = m.d.Project.Effects[i].ID + 1
		}
	}
	m.d.Project.Effects = append(m.d.Project.Effects, rytmi.Effect{ID: id, Kind: kind})
	return id
}

// DeleteEffect removes the effect and every automation record targeting it.
func (m *Model) DeleteEffect(id int) bool {
	for i := range m.d.Project.Effects {
		if m.d.Project.Effects[i].ID != id {
			continue
		}
		m.saveUndo("DeleteEffect", 0)
		m.d.Project.Effects = append(m.d.Project.Effects[:i], m.d.Project.Effects[i+1:]...)
		m.deleteAutomationsFor(rytmi.TargetEffect, id)
		return true
	}
	return false
}

// SetEffectSetting sets one effect parameter.
func (m *Model) SetEffectSetting(id int, name string, value float64, skipHistory bool) bool {
	effect := m.d.Project.Effect(id)
	if effect == nil {
		return false
	}
	if skipHistory {
		m.BeginDrag()
	}
	m.saveUndo("SetEffectSetting:"+name, 10)
	if effect.Settings == nil {
		effect.Settings = make(map[string]float64)
	}
	effect.Settings[name] = value
	m.pushEffect(effect)
	if !skipHistory && m.dragging {
		m.EndDrag()
	}
	return true
}

// AddEnvelope creates an envelope and returns its id.
func (m *Model) AddEnvelope() int {
	m.saveUndo("AddEnvelope", 0)
	id := 1
	for i := range m.d.Project.Envelopes {
		if m.d.Project.Envelopes[i].ID >= id {
			id = m.d.Project.Envelopes[i].ID + 1
		}
	}
	m.d.Project.Envelopes = append(m.d.Project.Envelopes, rytmi.Envelope{
		ID: id, Attack: 0.01, Decay: 0.2, Sustain: 0.7, Release: 0.3,
	})
	return id
}

// DeleteEnvelope removes the envelope and every automation record targeting it.
func (m *Model) DeleteEnvelope(id int) bool {
	for i := range m.d.Project.Envelopes {
		if m.d.Project.Envelopes[i].ID != id {
			continue
		}
		m.saveUndo("DeleteEnvelope", 0)
		m.d.Project.Envelopes = append(m.d.Project.Envelopes[:i], m.d.Project.Envelopes[i+1:]...)
		m.deleteAutomationsFor(rytmi.TargetEnvelope, id)
		return true
	}
	return false
}

// SetEnvelope replaces the envelope's stage times.
func (m *Model) SetEnvelope(id int, attack, decay, sustain, release float64, skipHistory bool) bool {
	envelope := m.d.Project.Envelope(id)
	if envelope == nil {
		return false
	}
	if skipHistory {
		m.BeginDrag()
	}
	m.saveUndo("SetEnvelope", 10)
	envelope.Attack = attack
	envelope.Decay = decay
	envelope.Sustain = sustain
	envelope.Release = release
	m.pushEnvelope(envelope)
	if !skipHistory && m.dragging {
		m.EndDrag()
	}
	return true
}

// AddAutomationPoint adds a breakpoint, creating the automation record on
// first use. The record's target must exist.
func (m *Model) AddAutomationPoint(targetType rytmi.TargetType, targetID int, timelineInstanceID, parameterKey string, min, max, beat, value float64, skipHistory bool) bool {
	if !m.automationTargetExists(targetType, targetID) || min > max {
		return false
	}
	key := rytmi.AutomationKey(targetType, targetID, timelineInstanceID, parameterKey)
	if skipHistory {
		m.BeginDrag()
	}
	m.saveUndo("AddAutomationPoint:"+key, 0)
	if m.d.Project.Automations == nil {
		m.d.Project.Automations = make(map[string]rytmi.ParameterAutomation)
	}
	a, ok := m.d.Project.Automations[key]
	if !ok {
		a = rytmi.ParameterAutomation{
			ParameterKey:       parameterKey,
			TargetType:         targetType,
			TargetID:           targetID,
			TimelineInstanceID: timelineInstanceID,
			Min:                min,
			Max:                max,
		}
	}
	a.AddPoint(beat, value)
	m.d.Project.Automations[key] = a
	m.pushAutomation(a)
	if !skipHistory && m.dragging {
		m.EndDrag()
	}
	return true
}

// MoveAutomationPoint drags one breakpoint to a new beat and value.
func (m *Model) MoveAutomationPoint(key string, index int, beat, value float64, skipHistory bool) bool {
	a, ok := m.d.Project.Automations[key]
	if !ok || index < 0 || index >= len(a.Points) {
		return false
	}
	if skipHistory {
		m.BeginDrag()
	}
	m.saveUndo("MoveAutomationPoint:"+key, 10)
	a = a.Copy()
	a.Points[index] = rytmi.AutomationPoint{Beat: beat, Value: clampTo(value, a.Min, a.Max)}
	m.d.Project.Automations[key] = a
	m.pushAutomation(a)
	if !skipHistory && m.dragging {
		m.EndDrag()
	}
	return true
}

// DeleteAutomationPoint removes one breakpoint. Removing the last point
// leaves an empty record whose consumers fall back to the base value.
func (m *Model) DeleteAutomationPoint(key string, index int) bool {
	a, ok := m.d.Project.Automations[key]
	if !ok || index < 0 || index >= len(a.Points) {
		return false
	}
	m.saveUndo("DeleteAutomationPoint:"+key, 0)
	a = a.Copy()
	a.DeletePoint(index)
	m.d.Project.Automations[key] = a
	m.pushAutomation(a)
	return true
}

// DeleteAutomation removes the whole automation record.
func (m *Model) DeleteAutomation(key string) bool {
	if _, ok := m.d.Project.Automations[key]; !ok {
		return false
	}
	m.saveUndo("DeleteAutomation", 0)
	delete(m.d.Project.Automations, key)
	if m.broker != nil {
		rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgDeleteAutomation{Key: key}))
	}
	return true
}

func (m *Model) automationTargetExists(targetType rytmi.TargetType, targetID int) bool {
	switch targetType {
	case rytmi.TargetEffect:
		return m.d.Project.Effect(targetID) != nil
	case rytmi.TargetEnvelope:
		return m.d.Project.Envelope(targetID) != nil
	}
	return false
}

func (m *Model) deleteAutomationsFor(targetType rytmi.TargetType, targetID int) {
	for key, a := range m.d.Project.Automations {
		if a.TargetType == targetType && a.TargetID == targetID {
			delete(m.d.Project.Automations, key)
			if m.broker != nil {
				rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgDeleteAutomation{Key: key}))
			}
		}
	}
}

func (m *Model) pushAutomation(a rytmi.ParameterAutomation) {
	if m.broker == nil {
		return
	}
	rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgUpdateAutomation{Automation: a.Copy()}))
}

func (m *Model) pushEffect(e *rytmi.Effect) {
	if m.broker == nil {
		return
	}
	settings := make(map[string]float64, len(e.Settings))
	for k, v := range e.Settings {
		settings[k] = v
	}
	rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgUpdateEffect{EffectID: e.ID, Settings: settings}))
}

func (m *Model) pushEnvelope(e *rytmi.Envelope) {
	if m.broker == nil {
		return
	}
	rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgUpdateEnvelope{EnvelopeID: e.ID, Settings: map[string]float64{
		"attack": e.Attack, "decay": e.Decay, "sustain": e.Sustain, "release": e.Release,
	}}))
}

func clampTo(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
