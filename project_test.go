package rytmi_test

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/rytmi/rytmi"
)

func testProject() rytmi.Project {
	pitch := 40
	velocity := 0.5
	return rytmi.Project{
		Name: "test",
		BPM:  128,
		Instruments: []rytmi.Instrument{
			{ID: 1, Name: "kick", Kind: rytmi.KindKick, Volume: 1,
				Settings: map[string]float64{"decay": 0.4},
				Root: rytmi.PatternNode{ID: 1, Division: 1, Children: []rytmi.PatternNode{
					{ID: 2, Division: 1}, {ID: 3, Division: 1},
				}}},
		},
		Patterns: []rytmi.Pattern{
			{ID: 1, Name: "verse", BaseMeter: 3, Instruments: []rytmi.Instrument{
				{ID: 2, Kind: rytmi.KindBass, Volume: 0.8,
					Root: rytmi.PatternNode{ID: 4, Division: 1, Children: []rytmi.PatternNode{
						{ID: 5, Division: 1, Pitch: &pitch, Velocity: &velocity},
					}}},
			}},
		},
		Effects:   []rytmi.Effect{{ID: 1, Kind: "gain", Settings: map[string]float64{"gain": 0.9}}},
		Envelopes: []rytmi.Envelope{{ID: 1, Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.2}},
		Automations: map[string]rytmi.ParameterAutomation{
			"effect:1:gain": {ParameterKey: "gain", TargetType: rytmi.TargetEffect, TargetID: 1,
				Points: []rytmi.AutomationPoint{{Beat: 0, Value: 1}, {Beat: 4, Value: 0.5}},
				Min:    0, Max: 2},
		},
	}
}

func TestProjectJSONRoundTripIdentical(t *testing.T) {
	project := testProject()
	var buf bytes.Buffer
	if err := project.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	back, err := rytmi.UnmarshalProject(buf.Bytes())
	if err != nil {
		t.Fatalf("UnmarshalProject failed: %v", err)
	}
	if !reflect.DeepEqual(project, back) {
		t.Errorf("round trip changed the project:\n%#v\n%#v", project, back)
	}
}

func TestProjectYAMLRoundTrip(t *testing.T) {
	project := testProject()
	var buf bytes.Buffer
	if err := project.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	back, err := rytmi.UnmarshalProject(buf.Bytes())
	if err != nil {
		t.Fatalf("UnmarshalProject failed: %v", err)
	}
	if !reflect.DeepEqual(project, back) {
		t.Errorf("round trip changed the project:\n%#v\n%#v", project, back)
	}
}

func TestUnmarshalProjectGarbage(t *testing.T) {
	if _, err := rytmi.UnmarshalProject([]byte("{:::")); err == nil {
		t.Error("expected an error for garbage input")
	}
}

func TestTrackIDs(t *testing.T) {
	if id := rytmi.StandaloneTrackID(42); id != "42" {
		t.Errorf("got %q", id)
	}
	id := rytmi.PatternTrackID(3, 7)
	if id != "__pattern_3_7" {
		t.Errorf("got %q", id)
	}
	patternID, instrumentID, ok := rytmi.ParsePatternTrackID(id)
	if !ok || patternID != 3 || instrumentID != 7 {
		t.Errorf("parse gave %d, %d, %v", patternID, instrumentID, ok)
	}
	if _, _, ok := rytmi.ParsePatternTrackID("42"); ok {
		t.Error("standalone id parsed as a pattern id")
	}
	if _, _, ok := rytmi.ParsePatternTrackID("__pattern_x_y"); ok {
		t.Error("malformed id parsed as a pattern id")
	}
}

func TestProjectCopyIsDeep(t *testing.T) {
	project := testProject()
	clone := project.Copy()
	clone.Instruments[0].Root.Children[0].Division = 99
	clone.Instruments[0].Settings["decay"] = 99
	a := clone.Automations["effect:1:gain"]
	a.Points[0].Value = 99
	if project.Instruments[0].Root.Children[0].Division == 99 {
		t.Error("tree is shared between copies")
	}
	if project.Instruments[0].Settings["decay"] == 99 {
		t.Error("settings map is shared between copies")
	}
	if project.Automations["effect:1:gain"].Points[0].Value == 99 {
		t.Error("automation points are shared between copies")
	}
}

func TestInstrumentForTrack(t *testing.T) {
	project := testProject()
	instr, baseMeter := project.InstrumentForTrack(rytmi.StandaloneTrackID(1))
	if instr == nil || instr.Kind != rytmi.KindKick || baseMeter != rytmi.DefaultBaseMeter {
		t.Errorf("standalone lookup gave %v, %v", instr, baseMeter)
	}
	instr, baseMeter = project.InstrumentForTrack(rytmi.PatternTrackID(1, 2))
	if instr == nil || instr.Kind != rytmi.KindBass || baseMeter != 3 {
		t.Errorf("pattern lookup gave %v, %v", instr, baseMeter)
	}
	if instr, _ := project.InstrumentForTrack("999"); instr != nil {
		t.Error("missing track should resolve to nil")
	}
	if instr, _ := project.InstrumentForTrack(rytmi.PatternTrackID(9, 9)); instr != nil {
		t.Error("missing pattern track should resolve to nil")
	}
}

func TestValidate(t *testing.T) {
	project := testProject()
	if err := project.Validate(); err != nil {
		t.Errorf("valid project rejected: %v", err)
	}
	bad := project.Copy()
	bad.BPM = 0
	if bad.Validate() == nil {
		t.Error("zero BPM accepted")
	}
	bad = project.Copy()
	bad.Instruments = append(bad.Instruments, rytmi.Instrument{ID: 1, Kind: rytmi.KindSnare})
	if bad.Validate() == nil {
		t.Error("duplicate track id accepted")
	}
	bad = project.Copy()
	bad.Automations["wrong:key"] = bad.Automations["effect:1:gain"]
	if bad.Validate() == nil {
		t.Error("mismatched automation key accepted")
	}
}

func TestClampSetting(t *testing.T) {
	if v, ok := rytmi.ClampSetting(rytmi.KindKick, "decay", 100); !ok || v != 4 {
		t.Errorf("got %v, %v", v, ok)
	}
	if _, ok := rytmi.ClampSetting(rytmi.KindKick, "filterCutoff", 100); ok {
		t.Error("percussive kind accepted a melodic setting")
	}
	if v, ok := rytmi.ClampSetting(rytmi.KindSample, "transpose", -100); !ok || v != -24 {
		t.Errorf("got %v, %v", v, ok)
	}
}

func TestDeleteAutomationsFor(t *testing.T) {
	project := testProject()
	project.DeleteAutomationsFor(rytmi.TargetEffect, 1)
	if len(project.Automations) != 0 {
		t.Error("automation targeting the deleted effect survived")
	}
}

func TestProjectJSONIsValidJSON(t *testing.T) {
	project := testProject()
	var buf bytes.Buffer
	if err := project.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	if !json.Valid(buf.Bytes()) {
		t.Error("WriteJSON produced invalid JSON")
	}
}
