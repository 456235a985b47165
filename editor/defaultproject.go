package editor

import (
	"github.com/rytmi/rytmi"
)

func pitch(p int) *int            { return &p }
func velocity(v float64) *float64 { return &v }

// defaultProject is the demo project a fresh session starts with: a
// four-on-the-floor kick, a hi-hat with a duplet against a triplet, a simple
// bass line and one pattern holding a pad. Node ids are unique across the
// whole project so the id pool seeds cleanly.
var defaultProject = rytmi.Project{
	Name: "demo",
	BPM:  120,
	Instruments: []rytmi.Instrument{
		{
			ID: 1, Name: "kick", Kind: rytmi.KindKick, Volume: 1,
			Root: rytmi.PatternNode{ID: 1, Division: 1, Children: []rytmi.PatternNode{
				{ID: 2, Division: 1},
				{ID: 3, Division: 1},
				{ID: 4, Division: 1},
				{ID: 5, Division: 1},
			}},
		},
		{
			ID: 2, Name: "hihat", Kind: rytmi.KindHihat, Volume: 0.7, Pan: 0.2,
			Root: rytmi.PatternNode{ID: 6, Division: 1, Children: []rytmi.PatternNode{
				{ID: 7, Division: 1, Children: []rytmi.PatternNode{
					{ID: 8, Division: 1},
					{ID: 9, Division: 1, Velocity: velocity(0.5)},
				}},
				{ID: 10, Division: 1, Children: []rytmi.PatternNode{
					{ID: 11, Division: 1},
					{ID: 12, Division: 1, Velocity: velocity(0.4)},
					{ID: 13, Division: 1, Velocity: velocity(0.6)},
				}},
			}},
		},
		{
			ID: 3, Name: "bass", Kind: rytmi.KindBass, Volume: 0.9,
			Root: rytmi.PatternNode{ID: 14, Division: 1, Children: []rytmi.PatternNode{
				{ID: 15, Division: 1, Pitch: pitch(36)},
				{ID: 16, Division: 1, Pitch: pitch(43)},
				{ID: 17, Division: 2, Pitch: pitch(40)},
			}},
		},
	},
	Patterns: []rytmi.Pattern{
		{
			ID: 1, Name: "verse", BaseMeter: 4,
			Instruments: []rytmi.Instrument{
				{
					ID: 4, Name: "pad", Kind: rytmi.KindPad, Volume: 0.6, Pan: -0.3,
					Root: rytmi.PatternNode{ID: 18, Division: 1, Children: []rytmi.PatternNode{
						{ID: 19, Division: 1, Pitch: pitch(48)},
						{ID: 20, Division: 3, Pitch: pitch(55), Velocity: velocity(0.5)},
					}},
				},
			},
		},
	},
	Effects: []rytmi.Effect{
		{ID: 1, Kind: "gain", Settings: map[string]float64{"gain": 1}},
	},
}
