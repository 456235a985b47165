package rytmi

import "math"

// The tree mutation API. Every function takes the tree by value and returns a
// new root; the input tree stays valid, which is what gets pushed onto undo
// history by the caller. None of these functions ever panic: a mutation
// addressing a node that no longer exists returns the tree unchanged (modulo
// the copy), because concurrent edits make "missing" a routine state.

// SetDivision returns a new tree where the node's division is set. Divisions
// below 1 are clamped to 1, as a division is the node's relative time-weight
// among its siblings and zero-weight children would collapse the subdivision.
func SetDivision(root PatternNode, id NodeID, division int) PatternNode {
	ret := root.Copy()
	if node := ret.Find(id); node != nil {
		if division < 1 {
			division = 1
		}
		node.Division = division
	}
	return ret
}

// ClampPitch rounds a pitch to the nearest MIDI note and clamps it to 0-127.
func ClampPitch(pitch float64) int {
	p := int(math.Round(pitch))
	if p < 0 {
		p = 0
	}
	if p > 127 {
		p = 127
	}
	return p
}

// ClampVelocity clamps a velocity to [0, 1].
func ClampVelocity(velocity float64) float64 {
	if velocity < 0 {
		return 0
	}
	if velocity > 1 {
		return 1
	}
	return velocity
}

// SetPitch returns a new tree where the node's pitch is set, clamped to the
// MIDI range 0-127. NaN input is rejected and the prior value retained, since
// there is no sensible bound to clamp it to.
func SetPitch(root PatternNode, id NodeID, pitch float64) PatternNode {
	ret := root.Copy()
	if math.IsNaN(pitch) {
		return ret
	}
	if node := ret.Find(id); node != nil {
		p := ClampPitch(pitch)
		node.Pitch = &p
	}
	return ret
}

// SetVelocity returns a new tree where the node's velocity is set, clamped to
// [0, 1]. NaN input is rejected and the prior value retained.
func SetVelocity(root PatternNode, id NodeID, velocity float64) PatternNode {
	ret := root.Copy()
	if math.IsNaN(velocity) {
		return ret
	}
	if node := ret.Find(id); node != nil {
		v := ClampVelocity(velocity)
		node.Velocity = &v
	}
	return ret
}

// AddChild returns a new tree where a fresh leaf node has been appended to the
// children of the parent, along with the new node's ID. If the parent is not
// found, the tree is returned unchanged and the ID is 0.
func AddChild(root PatternNode, parentID NodeID, division int, ids *IDPool) (PatternNode, NodeID) {
	ret := root.Copy()
	parent := ret.Find(parentID)
	if parent == nil {
		return ret, 0
	}
	if division < 1 {
		division = 1
	}
	id := ids.Next()
	parent.Children = append(parent.Children, PatternNode{
		ID:       id,
		Division: division,
		X:        parent.X,
		Y:        parent.Y,
	})
	return ret, id
}

// DeleteNode returns a new tree where the node and its whole subtree have been
// removed from its parent's children. Deleting the root is the owning
// container's job (instrument deletion), so a root id is a no-op here. The
// freed IDs are released from the pool.
func DeleteNode(root PatternNode, id NodeID, ids *IDPool) PatternNode {
	ret := root.Copy()
	if id == ret.ID {
		return ret
	}
	deleteChild(&ret, id, ids)
	return ret
}

func deleteChild(node *PatternNode, id NodeID, ids *IDPool) bool {
	for i := range node.Children {
		if node.Children[i].ID == id {
			if ids != nil {
				ids.Free(&node.Children[i])
			}
			node.Children = append(node.Children[:i], node.Children[i+1:]...)
			return true
		}
		if deleteChild(&node.Children[i], id, ids) {
			return true
		}
	}
	return false
}

// DuplicateSubtree returns a new tree where a deep clone of the subtree rooted
// at id has been inserted right after the original among its siblings, along
// with the ID of the clone's root. Every node of the clone gets a fresh ID, so
// selections and automation keys stay unambiguous. Duplicating the root or a
// missing node returns the tree unchanged and a zero ID.
func DuplicateSubtree(root PatternNode, id NodeID, ids *IDPool) (PatternNode, NodeID) {
	ret := root.Copy()
	if id == ret.ID {
		return ret, 0
	}
	cloneID := duplicateChild(&ret, id, ids)
	return ret, cloneID
}

func duplicateChild(node *PatternNode, id NodeID, ids *IDPool) NodeID {
	for i := range node.Children {
		if node.Children[i].ID == id {
			clone := node.Children[i].Copy()
			ids.AssignFreshIDs(&clone)
			node.Children = append(node.Children, PatternNode{})
			copy(node.Children[i+2:], node.Children[i+1:])
			node.Children[i+1] = clone
			return clone.ID
		}
		if cloneID := duplicateChild(&node.Children[i], id, ids); cloneID != 0 {
			return cloneID
		}
	}
	return 0
}

// MoveNodes returns a new tree where the same layout delta has been applied to
// every node in the moved set. Positions are layout-only and never affect
// timing, so callers should not push this through the engine sync bridge.
func MoveNodes(root PatternNode, moved map[NodeID]bool, dx, dy float64) PatternNode {
	return MapSelected(root, moved, func(node *PatternNode) {
		node.X += dx
		node.Y += dy
	})
}
