package rytmi

import (
	"fmt"
	"slices"
)

type (
	// TargetType says what kind of object a parameter automation drives.
	TargetType string

	// AutomationPoint is one breakpoint of a parameter curve, keyed by beat
	// position. Values are raw parameter units, not normalized.
	AutomationPoint struct {
		Beat  float64 `yaml:"beat" json:"beat"`
		Value float64 `yaml:"value" json:"value"`
	}

	// ParameterAutomation is a sparse, linearly interpolated parameter curve
	// for one effect or envelope parameter. Points are not required to be
	// sorted; every consumer sorts by beat (stably, so two points at the same
	// beat keep their insertion order) before interpolating.
	ParameterAutomation struct {
		ParameterKey       string            `yaml:"parameterKey" json:"parameterKey"`
		TargetType         TargetType        `yaml:"targetType" json:"targetType"`
		TargetID           int               `yaml:"targetId" json:"targetId"`
		TimelineInstanceID string            `yaml:"timelineInstanceId,omitempty" json:"timelineInstanceId,omitempty"`
		Points             []AutomationPoint `yaml:"points,flow,omitempty" json:"points,omitempty"`
		Min                float64           `yaml:"min" json:"min"`
		Max                float64           `yaml:"max" json:"max"`
	}
)

const (
	TargetEffect   TargetType = "effect"
	TargetEnvelope TargetType = "envelope"
)

// AutomationKey builds the storage key for an automation record. The colon
// delimited format, with the timeline instance segment present only when
// non-empty, is part of the persisted contract and used verbatim as a map key.
func AutomationKey(targetType TargetType, targetID int, timelineInstanceID, parameterKey string) string {
	if timelineInstanceID != "" {
		return fmt.Sprintf("%s:%d:%s:%s", targetType, targetID, timelineInstanceID, parameterKey)
	}
	return fmt.Sprintf("%s:%d:%s", targetType, targetID, parameterKey)
}

// Key returns the storage key of this automation record.
func (a *ParameterAutomation) Key() string {
	return AutomationKey(a.TargetType, a.TargetID, a.TimelineInstanceID, a.ParameterKey)
}

// EvaluateAutomation evaluates a parameter curve at the given beat. An empty
// curve returns the caller-supplied fallback (automation absent). Before the
// first point the first point's value holds; after the last, the last holds;
// in between the two bracketing points are linearly interpolated. The result
// is clamped to [min, max]. The input slice is not mutated.
func EvaluateAutomation(points []AutomationPoint, beat, min, max, fallback float64) float64 {
	if len(points) == 0 {
		return fallback
	}
	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b AutomationPoint) int {
		switch {
		case a.Beat < b.Beat:
			return -1
		case a.Beat > b.Beat:
			return 1
		}
		return 0
	})
	var value float64
	switch {
	case beat <= sorted[0].Beat:
		value = sorted[0].Value
	case beat >= sorted[len(sorted)-1].Beat:
		value = sorted[len(sorted)-1].Value
	default:
		for i := 1; i < len(sorted); i++ {
			if beat > sorted[i].Beat {
				continue
			}
			p0, p1 := sorted[i-1], sorted[i]
			if p1.Beat == p0.Beat {
				// two points at the same beat: a vertical step, the
				// first-sorted point wins as the left bracket
				value = p0.Value
			} else {
				value = p0.Value + (p1.Value-p0.Value)*(beat-p0.Beat)/(p1.Beat-p0.Beat)
			}
			break
		}
	}
	return clampFloat(value, min, max)
}

// ValueAt evaluates the automation at the given beat, using fallback when the
// curve has no points.
func (a *ParameterAutomation) ValueAt(beat, fallback float64) float64 {
	return EvaluateAutomation(a.Points, beat, a.Min, a.Max, fallback)
}

// AddPoint appends a point without deduplication; two points at the same beat
// are legal and resolve by insertion order.
func (a *ParameterAutomation) AddPoint(beat, value float64) {
	a.Points = append(a.Points, AutomationPoint{Beat: beat, Value: clampFloat(value, a.Min, a.Max)})
}

// DeletePoint removes the point at the index; out of range is a no-op.
func (a *ParameterAutomation) DeletePoint(index int) {
	if index < 0 || index >= len(a.Points) {
		return
	}
	a.Points = append(a.Points[:index], a.Points[index+1:]...)
}

// Copy makes a deep copy of the automation record.
func (a *ParameterAutomation) Copy() ParameterAutomation {
	ret := *a
	ret.Points = slices.Clone(a.Points)
	return ret
}
