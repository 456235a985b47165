package editor

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rytmi/rytmi"
)

// newTestModel returns a model with a broker attached, selected on the kick
// track of the default project.
func newTestModel() (*Model, *rytmi.Broker) {
	broker := rytmi.NewBroker()
	m := NewModel(broker, "")
	drainEngine(broker)
	m.SetSelection(StandaloneContext(1), nil)
	return m, broker
}

func drainEngine(broker *rytmi.Broker) []any {
	var ret []any
	for {
		select {
		case msg := <-broker.ToEngine:
			ret = append(ret, msg)
		default:
			return ret
		}
	}
}

func kickRoot(m *Model) *rytmi.PatternNode {
	return &m.d.Project.Instruments[0].Root
}

func TestSetNodeDivisionPushesTree(t *testing.T) {
	m, broker := newTestModel()
	if !m.SetNodeDivision(2, 3, false) {
		t.Fatal("edit declined")
	}
	if kickRoot(m).Find(2).Division != 3 {
		t.Error("division not applied")
	}
	msgs := drainEngine(broker)
	found := false
	for _, msg := range msgs {
		if e, ok := msg.(rytmi.MsgUpdatePatternTree); ok {
			found = true
			if e.TrackID != "1" {
				t.Errorf("pushed to track %q", e.TrackID)
			}
			if e.Root.Find(2).Division != 3 {
				t.Error("pushed tree does not carry the edit")
			}
		}
	}
	if !found {
		t.Error("no tree update reached the engine")
	}
}

func TestEditMissingNodeDeclines(t *testing.T) {
	m, _ := newTestModel()
	if m.SetNodeDivision(999, 3, false) {
		t.Error("edit of a missing node should return false")
	}
	if m.CanUndo() {
		t.Error("declined edit left a history entry")
	}
}

func TestUndoRedo(t *testing.T) {
	m, _ := newTestModel()
	m.SetNodeDivision(2, 3, false)
	m.SetNodePitch(2, 72, false)
	if !m.CanUndo() {
		t.Fatal("expected undo to be available")
	}
	m.Undo()
	if kickRoot(m).Find(2).Pitch != nil {
		t.Error("undo did not revert the pitch")
	}
	if kickRoot(m).Find(2).Division != 3 {
		t.Error("undo reverted too much")
	}
	m.Redo()
	if p := kickRoot(m).Find(2).Pitch; p == nil || *p != 72 {
		t.Error("redo did not restore the pitch")
	}
	m.Undo()
	m.SetNodeVelocity(2, 0.5, false)
	if m.CanRedo() {
		t.Error("a new edit should clear the redo stack")
	}
}

func TestUndoCoalescesSameKind(t *testing.T) {
	m, _ := newTestModel()
	for i := 0; i < 5; i++ {
		m.SetNodePitch(2, float64(60+i), false)
	}
	if m.UndoDepth() != 1 {
		t.Fatalf("5 consecutive pitch edits left %d entries, expected 1", m.UndoDepth())
	}
	m.Undo()
	if kickRoot(m).Find(2).Pitch != nil {
		t.Error("single undo should revert the whole run of edits")
	}
}

func TestDragCommitsOneEntry(t *testing.T) {
	m, _ := newTestModel()
	m.SetNodeDivision(2, 2, false)
	depth := m.UndoDepth()
	for i := 0; i < 10; i++ {
		m.SetNodeVelocity(2, float64(i)/10, true)
	}
	if m.UndoDepth() != depth {
		t.Fatal("intermediate drag edits must not create history entries")
	}
	m.SetNodeVelocity(2, 1, false)
	if m.UndoDepth() != depth+1 {
		t.Fatalf("drag should commit exactly one entry, depth went %d -> %d", depth, m.UndoDepth())
	}
	if v := kickRoot(m).Find(2).Velocity; v == nil || *v != 1 {
		t.Error("final drag value not applied")
	}
	m.Undo()
	if kickRoot(m).Find(2).Velocity != nil {
		t.Error("undo after a drag should restore the pre-drag state")
	}
}

func TestValueClamping(t *testing.T) {
	m, _ := newTestModel()
	m.SetNodeDivision(2, -5, false)
	if kickRoot(m).Find(2).Division != 1 {
		t.Error("division should clamp to 1")
	}
	m.SetNodePitch(2, 500, false)
	if p := kickRoot(m).Find(2).Pitch; p == nil || *p != 127 {
		t.Error("pitch should clamp to 127")
	}
	m.SetNodeVelocity(2, -3, false)
	if v := kickRoot(m).Find(2).Velocity; v == nil || *v != 0 {
		t.Error("velocity should clamp to 0")
	}
}

func TestAddDeleteDuplicate(t *testing.T) {
	m, _ := newTestModel()
	id, ok := m.AddChild(2, 1)
	if !ok || kickRoot(m).Find(id) == nil {
		t.Fatal("AddChild failed")
	}
	cloneID, ok := m.DuplicateSubtree(2)
	if !ok || kickRoot(m).Find(cloneID) == nil {
		t.Fatal("DuplicateSubtree failed")
	}
	if cloneID == id {
		t.Error("clone reused an id")
	}
	m.Select(StandaloneContext(1), 2)
	if !m.DeleteNode(2) {
		t.Fatal("DeleteNode failed")
	}
	if kickRoot(m).Find(2) != nil || kickRoot(m).Find(id) != nil {
		t.Error("subtree not fully deleted")
	}
	for _, sel := range m.Selection().NodeIDs {
		if sel == 2 || sel == id {
			t.Error("deleted node still selected")
		}
	}
	rootID := kickRoot(m).ID
	if m.DeleteNode(rootID) {
		t.Error("deleting the root should decline")
	}
}

func TestSetBPMClamps(t *testing.T) {
	m, _ := newTestModel()
	m.SetBPM(0)
	if m.Project().BPM != 1 {
		t.Errorf("BPM %d, expected clamp to 1", m.Project().BPM)
	}
	m.SetBPM(5000)
	if m.Project().BPM != 999 {
		t.Errorf("BPM %d, expected clamp to 999", m.Project().BPM)
	}
}

func TestInstrumentEdits(t *testing.T) {
	m, broker := newTestModel()
	c := StandaloneContext(1)
	m.SetInstrumentVolume(c, 5, false)
	if m.Project().Instruments[0].Volume != 2 {
		t.Error("volume should clamp to 2")
	}
	m.SetInstrumentPan(c, -3, false)
	if m.Project().Instruments[0].Pan != -1 {
		t.Error("pan should clamp to -1")
	}
	if m.SetInstrumentSetting(c, "filterCutoff", 100, false) {
		t.Error("kick should not accept a melodic setting")
	}
	m.SetInstrumentSetting(c, "decay", 100, false)
	if m.Project().Instruments[0].Settings["decay"] != 4 {
		t.Error("setting should clamp to its schema range")
	}
	drainEngine(broker)
	m.SetInstrumentMute(c, true)
	msgs := drainEngine(broker)
	if len(msgs) == 0 {
		t.Error("mute change did not reach the engine")
	}
}

func TestInstrumentLifecycle(t *testing.T) {
	m, broker := newTestModel()
	c, ok := m.AddInstrument(rytmi.KindFM)
	if !ok {
		t.Fatal("AddInstrument failed")
	}
	clone, ok := m.DuplicateInstrument(c)
	if !ok {
		t.Fatal("DuplicateInstrument failed")
	}
	if clone == c {
		t.Error("duplicate got the same context")
	}
	drainEngine(broker)
	if !m.DeleteInstrument(clone) {
		t.Fatal("DeleteInstrument failed")
	}
	removed := false
	for _, msg := range drainEngine(broker) {
		if _, ok := msg.(rytmi.MsgRemoveTrack); ok {
			removed = true
		}
	}
	if !removed {
		t.Error("deletion did not remove the engine track")
	}
	if _, ok := m.AddInstrument("theremin"); ok {
		t.Error("unknown kind accepted")
	}
}

func TestAutomationEditing(t *testing.T) {
	m, _ := newTestModel()
	if m.AddAutomationPoint(rytmi.TargetEffect, 99, "", "gain", 0, 2, 0, 1, false) {
		t.Error("automation for a missing effect accepted")
	}
	if !m.AddAutomationPoint(rytmi.TargetEffect, 1, "", "gain", 0, 2, 0, 1.5, false) {
		t.Fatal("AddAutomationPoint failed")
	}
	key := rytmi.AutomationKey(rytmi.TargetEffect, 1, "", "gain")
	project := m.Project()
	a, ok := project.Automation(key)
	if !ok || len(a.Points) != 1 || a.Points[0].Value != 1.5 {
		t.Fatalf("stored automation: %v, %v", a, ok)
	}
	if !m.MoveAutomationPoint(key, 0, 2, 99, false) {
		t.Fatal("MoveAutomationPoint failed")
	}
	project = m.Project()
	a, _ = project.Automation(key)
	if a.Points[0].Beat != 2 || a.Points[0].Value != 2 {
		t.Errorf("moved point %v, expected beat 2 value clamped to 2", a.Points[0])
	}
	if !m.DeleteAutomationPoint(key, 0) {
		t.Fatal("DeleteAutomationPoint failed")
	}
	project = m.Project()
	a, _ = project.Automation(key)
	if len(a.Points) != 0 {
		t.Error("point not deleted")
	}
	if !m.DeleteAutomation(key) {
		t.Fatal("DeleteAutomation failed")
	}
	project = m.Project()
	if _, ok := project.Automation(key); ok {
		t.Error("automation record survived deletion")
	}
}

func TestDeleteEffectCascades(t *testing.T) {
	m, broker := newTestModel()
	m.AddAutomationPoint(rytmi.TargetEffect, 1, "", "gain", 0, 2, 0, 1, false)
	drainEngine(broker)
	if !m.DeleteEffect(1) {
		t.Fatal("DeleteEffect failed")
	}
	if len(m.Project().Automations) != 0 {
		t.Error("automations targeting the effect survived")
	}
	deleted := false
	for _, msg := range drainEngine(broker) {
		if _, ok := msg.(rytmi.MsgDeleteAutomation); ok {
			deleted = true
		}
	}
	if !deleted {
		t.Error("engine was not told to drop the automation")
	}
}

func TestRecoveryRoundTrip(t *testing.T) {
	m, _ := newTestModel()
	m.SetNodePitch(2, 72, false)
	b := m.MarshalRecovery()
	if b == nil {
		t.Fatal("MarshalRecovery returned nil")
	}
	m2 := NewModel(rytmi.NewBroker(), "")
	m2.UnmarshalRecovery(b)
	if p := m2.Project().Instruments[0].Root.Find(2).Pitch; p == nil || *p != 72 {
		t.Error("recovered project lost the edit")
	}
	if m2.Project().BPM != m.Project().BPM {
		t.Error("recovered BPM differs")
	}
}

func TestMIDINoteSetsSelectionPitch(t *testing.T) {
	m, _ := newTestModel()
	m.Select(StandaloneContext(1), 2)
	m.ProcessEngineMessage(rytmi.MsgToModel{Data: rytmi.MsgNoteOn{Pitch: 65, Velocity: 1}})
	if p := kickRoot(m).Find(2).Pitch; p == nil || *p != 65 {
		t.Error("MIDI note did not set the selected pitch")
	}
}

func TestPushTreeUpdateIsStable(t *testing.T) {
	m, broker := newTestModel()
	c := StandaloneContext(1)
	var payloads [][]byte
	for i := 0; i < 2; i++ {
		if !m.PushTreeUpdate(c) {
			t.Fatal("push declined")
		}
		for _, msg := range drainEngine(broker) {
			if e, ok := msg.(rytmi.MsgUpdatePatternTree); ok {
				b, err := json.Marshal(e)
				if err != nil {
					t.Fatal(err)
				}
				payloads = append(payloads, b)
			}
		}
	}
	if len(payloads) != 2 {
		t.Fatalf("expected 2 tree updates, got %d", len(payloads))
	}
	if !bytes.Equal(payloads[0], payloads[1]) {
		t.Error("pushing an unchanged tree twice produced different payloads")
	}
}

func TestMoveNodesSkipsEngine(t *testing.T) {
	m, broker := newTestModel()
	drainEngine(broker)
	if !m.MoveNodes([]rytmi.NodeID{2, 3}, 5, 5, false) {
		t.Fatal("MoveNodes failed")
	}
	for _, msg := range drainEngine(broker) {
		if _, ok := msg.(rytmi.MsgUpdatePatternTree); ok {
			t.Error("layout-only move was pushed to the engine")
		}
	}
	if n := kickRoot(m).Find(2); n.X != 5 || n.Y != 5 {
		t.Error("move not applied")
	}
}
