package editor

import (
	"testing"

	"github.com/rytmi/rytmi"
)

func TestSelectionDropsStaleIDs(t *testing.T) {
	m, _ := newTestModel()
	m.SetSelection(StandaloneContext(1), []rytmi.NodeID{2, 3, 999})
	if len(m.Selection().NodeIDs) != 2 {
		t.Errorf("selection %v, expected the stale id dropped", m.Selection().NodeIDs)
	}
	m.Select(StandaloneContext(1), 2) // already selected, no duplicate
	if len(m.Selection().NodeIDs) != 2 {
		t.Error("duplicate select grew the selection")
	}
	m.Deselect(3)
	if len(m.Selection().NodeIDs) != 1 {
		t.Error("deselect did not remove the id")
	}
}

func TestSelectSwitchingContextClears(t *testing.T) {
	m, _ := newTestModel()
	m.Select(StandaloneContext(1), 2)
	m.Select(StandaloneContext(2), 8)
	sel := m.Selection()
	if sel.Context != StandaloneContext(2) || len(sel.NodeIDs) != 1 || sel.NodeIDs[0] != 8 {
		t.Errorf("selection after context switch: %+v", sel)
	}
}

func TestCommonAndMixedValues(t *testing.T) {
	m, _ := newTestModel()
	m.SetSelection(StandaloneContext(1), []rytmi.NodeID{2, 3})
	// both unset: common is the default, not mixed
	if m.CommonPitch() != rytmi.DefaultPitch || m.MixedPitch() {
		t.Errorf("unset pitches: common %d mixed %v", m.CommonPitch(), m.MixedPitch())
	}
	m.SetNodePitch(2, 72, false)
	if !m.MixedPitch() {
		t.Error("one set, one unset should read as mixed")
	}
	m.SetNodePitch(3, 72, false)
	if m.CommonPitch() != 72 || m.MixedPitch() {
		t.Errorf("equal pitches: common %d mixed %v", m.CommonPitch(), m.MixedPitch())
	}
	m.SetSelection(StandaloneContext(1), []rytmi.NodeID{2})
	if m.MixedPitch() {
		t.Error("a single node is never mixed")
	}
	m.SetSelection(StandaloneContext(1), nil)
	if m.CommonVelocity() != rytmi.DefaultVelocity || m.MixedVelocity() {
		t.Error("empty selection should read default and not mixed")
	}
}

func TestFanOutAbsolute(t *testing.T) {
	m, _ := newTestModel()
	m.SetSelection(StandaloneContext(1), []rytmi.NodeID{2, 3, 4})
	if !m.SetSelectionPitch(70, false) {
		t.Fatal("fan-out declined")
	}
	for _, id := range []rytmi.NodeID{2, 3, 4} {
		if p := kickRoot(m).Find(id).Pitch; p == nil || *p != 70 {
			t.Errorf("node %d pitch %v, expected 70", id, p)
		}
	}
	if m.UndoDepth() != 1 {
		t.Errorf("fan-out should be one history entry, got %d", m.UndoDepth())
	}
}

func TestFanOutSkipsBranches(t *testing.T) {
	m, _ := newTestModel()
	// the kick root (id 1) is a branch; pitch must not land on it
	m.SetSelection(StandaloneContext(1), []rytmi.NodeID{1, 2})
	m.SetSelectionPitch(70, false)
	if kickRoot(m).Pitch != nil {
		t.Error("branch node got a pitch")
	}
	if p := kickRoot(m).Find(2).Pitch; p == nil || *p != 70 {
		t.Error("leaf did not get the pitch")
	}
	// a selection of branches only has no eligible target
	m.SetSelection(StandaloneContext(1), []rytmi.NodeID{1})
	if m.SetSelectionPitch(70, false) {
		t.Error("branch-only selection should decline pitch edits")
	}
}

func TestTransposeClampsPerNode(t *testing.T) {
	m, _ := newTestModel()
	m.SetSelection(StandaloneContext(1), []rytmi.NodeID{2, 3})
	m.SetSelectionPitch(120, false)
	m.SetSelection(StandaloneContext(1), []rytmi.NodeID{2, 3, 4})
	// node 4 is unset and transposes from the default
	if !m.TransposeSelection(12) {
		t.Fatal("transpose declined")
	}
	if p := kickRoot(m).Find(2).Pitch; *p != 127 {
		t.Errorf("node 2 pitch %d, expected clamp at 127", *p)
	}
	if p := kickRoot(m).Find(4).Pitch; *p != rytmi.DefaultPitch+12 {
		t.Errorf("node 4 pitch %d, expected %d", *p, rytmi.DefaultPitch+12)
	}
}

func TestSetSelectionDivisionIncludesBranches(t *testing.T) {
	m, _ := newTestModel()
	m.SetSelection(StandaloneContext(1), []rytmi.NodeID{1, 2})
	if !m.SetSelectionDivision(3, false) {
		t.Fatal("division fan-out declined")
	}
	if kickRoot(m).Division != 3 || kickRoot(m).Find(2).Division != 3 {
		t.Error("division fan-out should hit branches and leaves alike")
	}
}

func TestStaleContextDeclines(t *testing.T) {
	m, _ := newTestModel()
	m.SetSelection(StandaloneContext(999), []rytmi.NodeID{2})
	if m.SetSelectionPitch(70, false) {
		t.Error("edit against a stale context should decline")
	}
	if m.PushTreeUpdate(StandaloneContext(999)) {
		t.Error("push against a stale context should decline")
	}
	if m.PushTreeUpdate(UpdateContext{}) {
		t.Error("push against an empty context should decline")
	}
}

func TestRootSelectionAddressesInstrument(t *testing.T) {
	m, _ := newTestModel()
	m.SelectRoot(StandaloneContext(1))
	if sel := m.Selection(); !sel.IsRoot || len(sel.NodeIDs) != 0 {
		t.Fatalf("root selection: %+v", sel)
	}
	if m.SetSelectionPitch(70, false) {
		t.Error("node edit should decline while the root is selected")
	}
	if !m.SetSelectionVolume(0.5, false) {
		t.Fatal("root-addressed volume edit declined")
	}
	if m.Project().Instruments[0].Volume != 0.5 {
		t.Error("volume not applied to the selected instrument")
	}
	if !m.SetSelectionPan(-0.25, false) {
		t.Fatal("root-addressed pan edit declined")
	}
	m.Select(StandaloneContext(1), 2)
	if m.Selection().IsRoot {
		t.Error("selecting a node should clear the root flag")
	}
	if m.SetSelectionVolume(1, false) {
		t.Error("instrument edit should decline without a root selection")
	}
	m.SelectRoot(StandaloneContext(999))
	if m.Selection().IsRoot {
		t.Error("root selection of a missing instrument accepted")
	}
}

func TestPatternContextEdits(t *testing.T) {
	m, broker := newTestModel()
	c := PatternContext(1, 4) // the pad inside the verse pattern
	m.SetSelection(c, []rytmi.NodeID{19})
	drainEngine(broker)
	if !m.SetSelectionPitch(50, false) {
		t.Fatal("pattern-scoped edit declined")
	}
	project := m.Project()
	pad := project.Pattern(1).Instrument(4)
	if p := pad.Root.Find(19).Pitch; p == nil || *p != 50 {
		t.Error("pattern-scoped pitch not applied")
	}
	for _, msg := range drainEngine(broker) {
		if e, ok := msg.(rytmi.MsgUpdatePatternTree); ok {
			if e.TrackID != rytmi.PatternTrackID(1, 4) {
				t.Errorf("pushed to %q, expected the synthetic pattern track id", e.TrackID)
			}
			return
		}
	}
	t.Error("no tree update reached the engine")
}
