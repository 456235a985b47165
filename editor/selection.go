package editor

import (
	"github.com/rytmi/rytmi"
)

// Selection is a set of node ids inside one tree, identified by its owning
// context. When IsRoot is set the selection addresses the instrument itself
// (volume, pan, settings) rather than any node. Selection changes are not
// undoable; only project mutations are.
type Selection struct {
	Context UpdateContext  `json:"context"`
	NodeIDs []rytmi.NodeID `json:"nodeIds,omitempty"`
	IsRoot  bool           `json:"isRoot,omitempty"`
}

func (m *Model) Selection() Selection { return m.d.Selection }

// SetSelection replaces the selection wholesale. Ids that do not exist in the
// context's tree are dropped.
func (m *Model) SetSelection(c UpdateContext, ids []rytmi.NodeID) {
	m.d.Selection = Selection{Context: c}
	instr, _ := c.instrument(&m.d.Project)
	if instr == nil {
		return
	}
	for _, id := range ids {
		if instr.Root.Find(id) != nil {
			m.d.Selection.NodeIDs = append(m.d.Selection.NodeIDs, id)
		}
	}
}

// Select adds one node to the selection; selecting in a different context
// first clears the old selection.
func (m *Model) Select(c UpdateContext, id rytmi.NodeID) {
	if m.d.Selection.Context != c {
		m.d.Selection = Selection{Context: c}
	}
	instr, _ := c.instrument(&m.d.Project)
	if instr == nil || instr.Root.Find(id) == nil {
		return
	}
	m.d.Selection.IsRoot = false
	for _, existing := range m.d.Selection.NodeIDs {
		if existing == id {
			return
		}
	}
	m.d.Selection.NodeIDs = append(m.d.Selection.NodeIDs, id)
}

// SelectRoot addresses the context's instrument itself. Any node selection is
// cleared; node-level edits decline until a node is selected again.
func (m *Model) SelectRoot(c UpdateContext) {
	if instr, _ := c.instrument(&m.d.Project); instr == nil {
		return
	}
	m.d.Selection = Selection{Context: c, IsRoot: true}
}

// Deselect removes one node from the selection.
func (m *Model) Deselect(id rytmi.NodeID) {
	m.retainSelected(func(nodeID rytmi.NodeID) bool { return nodeID != id })
}

func (m *Model) ClearSelection() {
	m.d.Selection = Selection{Context: m.d.Selection.Context}
}

// SelectedNodes returns copies of the currently selected nodes. Stale ids are
// skipped, so the result can be shorter than the id list.
func (m *Model) SelectedNodes() []rytmi.PatternNode {
	instr, _ := m.d.Selection.Context.instrument(&m.d.Project)
	if instr == nil {
		return nil
	}
	ret := make([]rytmi.PatternNode, 0, len(m.d.Selection.NodeIDs))
	for _, id := range m.d.Selection.NodeIDs {
		if n := instr.Root.Find(id); n != nil {
			ret = append(ret, n.Copy())
		}
	}
	return ret
}

// SelectedLeaves returns the selected nodes that are leaves. Pitch and
// velocity edits apply only to these; branch nodes in a mixed selection are
// left untouched.
func (m *Model) SelectedLeaves() []rytmi.PatternNode {
	var ret []rytmi.PatternNode
	for _, n := range m.SelectedNodes() {
		if len(n.Children) == 0 {
			ret = append(ret, n)
		}
	}
	return ret
}

// CommonValue returns the value shared by every node, or def when the nodes
// disagree or there are none. get reports a node's value; unset values read
// as def.
func CommonValue[T comparable](nodes []rytmi.PatternNode, get func(rytmi.PatternNode) (T, bool), def T) T {
	first := true
	var common T
	for _, n := range nodes {
		v, ok := get(n)
		if !ok {
			v = def
		}
		if first {
			common, first = v, false
		} else if v != common {
			return def
		}
	}
	if first {
		return def
	}
	return common
}

// HasMixedValues reports whether the nodes disagree on a value. Zero or one
// node is never mixed.
func HasMixedValues[T comparable](nodes []rytmi.PatternNode, get func(rytmi.PatternNode) (T, bool), def T) bool {
	first := true
	var common T
	for _, n := range nodes {
		v, ok := get(n)
		if !ok {
			v = def
		}
		if first {
			common, first = v, false
		} else if v != common {
			return true
		}
	}
	return false
}

func nodePitch(n rytmi.PatternNode) (int, bool) {
	if n.Pitch == nil {
		return 0, false
	}
	return *n.Pitch, true
}

func nodeVelocity(n rytmi.PatternNode) (float64, bool) {
	if n.Velocity == nil {
		return 0, false
	}
	return *n.Velocity, true
}

func nodeDivision(n rytmi.PatternNode) (int, bool) { return n.Division, true }

// CommonPitch is the pitch shared by all selected leaves, with unset pitches
// reading as the default.
func (m *Model) CommonPitch() int {
	return CommonValue(m.SelectedLeaves(), nodePitch, rytmi.DefaultPitch)
}

func (m *Model) MixedPitch() bool {
	return HasMixedValues(m.SelectedLeaves(), nodePitch, rytmi.DefaultPitch)
}

func (m *Model) CommonVelocity() float64 {
	return CommonValue(m.SelectedLeaves(), nodeVelocity, rytmi.DefaultVelocity)
}

func (m *Model) MixedVelocity() bool {
	return HasMixedValues(m.SelectedLeaves(), nodeVelocity, rytmi.DefaultVelocity)
}

func (m *Model) CommonDivision() int {
	return CommonValue(m.SelectedNodes(), nodeDivision, 1)
}

func (m *Model) MixedDivision() bool {
	return HasMixedValues(m.SelectedNodes(), nodeDivision, 1)
}

// SetSelectionPitch fans an absolute pitch out to every selected leaf.
func (m *Model) SetSelectionPitch(pitch float64, skipHistory bool) bool {
	return m.editLeaves("SetSelectionPitch", skipHistory, func(n *rytmi.PatternNode) {
		p := rytmi.ClampPitch(pitch)
		n.Pitch = &p
	})
}

// SetSelectionVelocity fans an absolute velocity out to every selected leaf.
func (m *Model) SetSelectionVelocity(velocity float64, skipHistory bool) bool {
	return m.editLeaves("SetSelectionVelocity", skipHistory, func(n *rytmi.PatternNode) {
		v := rytmi.ClampVelocity(velocity)
		n.Velocity = &v
	})
}

// TransposeSelection shifts every selected leaf's pitch by delta semitones,
// clamping each node independently. Unset pitches transpose from the default.
func (m *Model) TransposeSelection(delta int) bool {
	return m.editLeaves("TransposeSelection", false, func(n *rytmi.PatternNode) {
		pitch := rytmi.DefaultPitch
		if n.Pitch != nil {
			pitch = *n.Pitch
		}
		p := rytmi.ClampPitch(float64(pitch + delta))
		n.Pitch = &p
	})
}

// SetSelectionDivision sets the division of every selected node, branches
// included.
func (m *Model) SetSelectionDivision(division int, skipHistory bool) bool {
	if division < 1 {
		division = 1
	}
	return m.editSelected("SetSelectionDivision", skipHistory, false, func(n *rytmi.PatternNode) {
		n.Division = division
	})
}

func (m *Model) editLeaves(kind string, skipHistory bool, edit func(*rytmi.PatternNode)) bool {
	return m.editSelected(kind, skipHistory, true, edit)
}

func (m *Model) editSelected(kind string, skipHistory, leavesOnly bool, edit func(*rytmi.PatternNode)) bool {
	if m.d.Selection.IsRoot {
		return false
	}
	instr, _ := m.d.Selection.Context.instrument(&m.d.Project)
	if instr == nil {
		return false
	}
	selected := make(map[rytmi.NodeID]bool, len(m.d.Selection.NodeIDs))
	for _, id := range m.d.Selection.NodeIDs {
		n := instr.Root.Find(id)
		if n == nil {
			continue
		}
		if leavesOnly && len(n.Children) > 0 {
			continue
		}
		selected[id] = true
	}
	if len(selected) == 0 {
		return false
	}
	if skipHistory {
		m.BeginDrag()
	}
	m.saveUndo(kind, 10)
	instr.Root = rytmi.MapSelected(instr.Root, selected, edit)
	m.PushTreeUpdate(m.d.Selection.Context)
	if !skipHistory && m.dragging {
		m.EndDrag()
	}
	return true
}

// SetSelectionVolume adjusts the volume of the root-selected instrument.
func (m *Model) SetSelectionVolume(volume float64, skipHistory bool) bool {
	if !m.d.Selection.IsRoot {
		return false
	}
	return m.SetInstrumentVolume(m.d.Selection.Context, volume, skipHistory)
}

// SetSelectionPan adjusts the pan of the root-selected instrument.
func (m *Model) SetSelectionPan(pan float64, skipHistory bool) bool {
	if !m.d.Selection.IsRoot {
		return false
	}
	return m.SetInstrumentPan(m.d.Selection.Context, pan, skipHistory)
}

// retainSelected drops selection ids the predicate rejects.
func (m *Model) retainSelected(keep func(rytmi.NodeID) bool) {
	kept := m.d.Selection.NodeIDs[:0]
	for _, id := range m.d.Selection.NodeIDs {
		if keep(id) {
			kept = append(kept, id)
		}
	}
	m.d.Selection.NodeIDs = kept
}

// purgeSelection drops selection ids that no longer resolve, after wholesale
// project changes.
func (m *Model) purgeSelection() {
	instr, _ := m.d.Selection.Context.instrument(&m.d.Project)
	if instr == nil {
		m.d.Selection = Selection{}
		return
	}
	m.retainSelected(func(id rytmi.NodeID) bool {
		return instr.Root.Find(id) != nil
	})
}
