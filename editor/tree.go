package editor

import (
	"github.com/rytmi/rytmi"
)

// Tree mutations all follow the same shape: resolve the selection's context
// to an instrument, decline (false) if the target node is gone, record
// history, apply the pure copy-on-write transform, and push the new tree to
// the engine. skipHistory marks an intermediate step of a continuous gesture:
// the edit is audible immediately but only the final call (skipHistory false)
// commits a history entry.

// SetNodeDivision sets how many equal parts a node splits its span into.
func (m *Model) SetNodeDivision(id rytmi.NodeID, division int, skipHistory bool) bool {
	return m.editNode("SetNodeDivision", id, skipHistory, func(root rytmi.PatternNode) rytmi.PatternNode {
		return rytmi.SetDivision(root, id, division)
	})
}

// SetNodePitch sets a node's MIDI pitch, rounded and clamped to 0-127.
func (m *Model) SetNodePitch(id rytmi.NodeID, pitch float64, skipHistory bool) bool {
	return m.editNode("SetNodePitch", id, skipHistory, func(root rytmi.PatternNode) rytmi.PatternNode {
		return rytmi.SetPitch(root, id, pitch)
	})
}

// SetNodeVelocity sets a node's velocity, clamped to 0-1.
func (m *Model) SetNodeVelocity(id rytmi.NodeID, velocity float64, skipHistory bool) bool {
	return m.editNode("SetNodeVelocity", id, skipHistory, func(root rytmi.PatternNode) rytmi.PatternNode {
		return rytmi.SetVelocity(root, id, velocity)
	})
}

// AddChild appends a new leaf under the given parent and returns its id.
func (m *Model) AddChild(parentID rytmi.NodeID, division int) (rytmi.NodeID, bool) {
	instr, _ := m.d.Selection.Context.instrument(&m.d.Project)
	if instr == nil || instr.Root.Find(parentID) == nil {
		return 0, false
	}
	m.saveUndo("AddChild", 0)
	root, childID := rytmi.AddChild(instr.Root, parentID, division, &m.nodeIDs)
	instr.Root = root
	m.PushTreeUpdate(m.d.Selection.Context)
	return childID, true
}

// DeleteNode removes a node and its whole subtree. The root cannot be
// deleted. Deleted nodes leave the selection.
func (m *Model) DeleteNode(id rytmi.NodeID) bool {
	instr, _ := m.d.Selection.Context.instrument(&m.d.Project)
	if instr == nil || instr.Root.ID == id || instr.Root.Find(id) == nil {
		return false
	}
	m.saveUndo("DeleteNode", 0)
	instr.Root = rytmi.DeleteNode(instr.Root, id, &m.nodeIDs)
	m.retainSelected(func(nodeID rytmi.NodeID) bool {
		return instr.Root.Find(nodeID) != nil
	})
	m.PushTreeUpdate(m.d.Selection.Context)
	return true
}

// DuplicateSubtree clones a subtree next to the original, with fresh ids
// throughout the clone. Returns the id of the clone's root.
func (m *Model) DuplicateSubtree(id rytmi.NodeID) (rytmi.NodeID, bool) {
	instr, _ := m.d.Selection.Context.instrument(&m.d.Project)
	if instr == nil || instr.Root.ID == id || instr.Root.Find(id) == nil {
		return 0, false
	}
	m.saveUndo("DuplicateSubtree", 0)
	root, cloneID := rytmi.DuplicateSubtree(instr.Root, id, &m.nodeIDs)
	instr.Root = root
	m.PushTreeUpdate(m.d.Selection.Context)
	return cloneID, true
}

// MoveNodes translates the layout positions of the given nodes. Layout is
// cosmetic, so nothing is pushed to the engine.
func (m *Model) MoveNodes(ids []rytmi.NodeID, dx, dy float64, skipHistory bool) bool {
	instr, _ := m.d.Selection.Context.instrument(&m.d.Project)
	if instr == nil || len(ids) == 0 {
		return false
	}
	moved := make(map[rytmi.NodeID]bool, len(ids))
	for _, id := range ids {
		if instr.Root.Find(id) != nil {
			moved[id] = true
		}
	}
	if len(moved) == 0 {
		return false
	}
	if skipHistory {
		m.BeginDrag()
	}
	m.saveUndo("MoveNodes", 0)
	instr.Root = rytmi.MoveNodes(instr.Root, moved, dx, dy)
	if !skipHistory && m.dragging {
		m.EndDrag()
	}
	return true
}

func (m *Model) editNode(kind string, id rytmi.NodeID, skipHistory bool, edit func(rytmi.PatternNode) rytmi.PatternNode) bool {
	instr, _ := m.d.Selection.Context.instrument(&m.d.Project)
	if instr == nil || instr.Root.Find(id) == nil {
		return false
	}
	if skipHistory {
		m.BeginDrag()
	}
	m.saveUndo(kind, 10)
	instr.Root = edit(instr.Root)
	m.PushTreeUpdate(m.d.Selection.Context)
	if !skipHistory && m.dragging {
		m.EndDrag()
	}
	return true
}
