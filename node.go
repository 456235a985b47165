package rytmi

type (
	// NodeID identifies a PatternNode within one tree. IDs are unique within
	// the tree and stable across edits; only duplication assigns new ones.
	// ID 0 means "no ID has been assigned yet"; the IDPool never hands out 0.
	NodeID int

	// PatternNode is one node of the recursive pattern tree. A node's Division
	// is its relative time-weight among its siblings; the children subdivide
	// the parent's span proportionally, left to right. Leaves are the sounding
	// events and carry the optional Pitch and Velocity. X and Y are layout
	// coordinates only and never affect timing.
	PatternNode struct {
		ID       NodeID        `yaml:"id" json:"id"`
		Division int           `yaml:"division" json:"division"`
		Pitch    *int          `yaml:"pitch,omitempty" json:"pitch,omitempty"`
		Velocity *float64      `yaml:"velocity,omitempty" json:"velocity,omitempty"`
		X        float64       `yaml:"x" json:"x"`
		Y        float64       `yaml:"y" json:"y"`
		Children []PatternNode `yaml:"children,omitempty" json:"children,omitempty"`
	}

	// IDPool tracks which node IDs are in use in a tree, so that AddChild and
	// DuplicateSubtree can hand out fresh ones. Duplicated nodes must never
	// reuse an old ID, otherwise selections and automation keys would become
	// ambiguous.
	IDPool struct {
		Used map[NodeID]bool
		Max  NodeID
	}
)

// Copy makes a deep copy of the subtree rooted at the node. The copy shares no
// memory with the original, so history snapshots are never aliased.
func (n *PatternNode) Copy() PatternNode {
	ret := *n
	if n.Pitch != nil {
		pitch := *n.Pitch
		ret.Pitch = &pitch
	}
	if n.Velocity != nil {
		velocity := *n.Velocity
		ret.Velocity = &velocity
	}
	if n.Children != nil {
		ret.Children = make([]PatternNode, len(n.Children))
		for i := range n.Children {
			ret.Children[i] = n.Children[i].Copy()
		}
	}
	return ret
}

// Find returns a pointer to the node with the given id, searching depth-first
// in pre-order, or nil if the tree has no such node. A nil result is a normal
// outcome (e.g. the node was deleted by a concurrent edit), not an error. The
// returned pointer points into the receiver's subtree, so mutating it mutates
// the tree.
func (n *PatternNode) Find(id NodeID) *PatternNode {
	if n.ID == id {
		return n
	}
	for i := range n.Children {
		if ret := n.Children[i].Find(id); ret != nil {
			return ret
		}
	}
	return nil
}

// Walk calls fn for every node of the subtree in pre-order.
func (n *PatternNode) Walk(fn func(*PatternNode)) {
	fn(n)
	for i := range n.Children {
		n.Children[i].Walk(fn)
	}
}

// Leaves returns copies of all leaf nodes of the subtree, in left-to-right
// time order. Leaves are the sounding events of the tree.
func (n *PatternNode) Leaves() []PatternNode {
	var ret []PatternNode
	n.Walk(func(node *PatternNode) {
		if len(node.Children) == 0 {
			ret = append(ret, node.Copy())
		}
	})
	return ret
}

// NumNodes returns the total number of nodes in the subtree.
func (n *PatternNode) NumNodes() int {
	ret := 0
	n.Walk(func(*PatternNode) { ret++ })
	return ret
}

// MapSelected returns a new tree where fn has been applied to every node whose
// id is in selected. Non-selected nodes pass through structurally unchanged,
// but the recursion always descends into children, selected parent or not.
func MapSelected(root PatternNode, selected map[NodeID]bool, fn func(*PatternNode)) PatternNode {
	ret := root.Copy()
	ret.Walk(func(node *PatternNode) {
		if selected[node.ID] {
			fn(node)
		}
	})
	return ret
}

// Observe marks all IDs of the subtree as used, growing Max as needed. It is
// called when a tree enters the model, e.g. after loading a project.
func (p *IDPool) Observe(root *PatternNode) {
	if p.Used == nil {
		p.Used = make(map[NodeID]bool)
	}
	root.Walk(func(node *PatternNode) {
		p.Used[node.ID] = true
		if node.ID > p.Max {
			p.Max = node.ID
		}
	})
}

// Next returns a fresh, never before used NodeID and marks it used.
func (p *IDPool) Next() NodeID {
	if p.Used == nil {
		p.Used = make(map[NodeID]bool)
	}
	p.Max++
	p.Used[p.Max] = true
	return p.Max
}

// Free releases the IDs of the subtree so the pool does not grow without
// bound. Freed IDs are still never reused, as Max only increases.
func (p *IDPool) Free(root *PatternNode) {
	root.Walk(func(node *PatternNode) {
		delete(p.Used, node.ID)
	})
}

// AssignFreshIDs gives every node of the subtree a fresh ID from the pool,
// used when duplicating subtrees or whole instruments.
func (p *IDPool) AssignFreshIDs(root *PatternNode) {
	root.Walk(func(node *PatternNode) {
		node.ID = p.Next()
	})
}
