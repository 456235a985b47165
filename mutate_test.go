package rytmi_test

import (
	"math"
	"testing"

	"github.com/rytmi/rytmi"
)

func testTree() rytmi.PatternNode {
	return rytmi.PatternNode{ID: 1, Division: 1, Children: []rytmi.PatternNode{
		{ID: 2, Division: 1},
		{ID: 3, Division: 2, Children: []rytmi.PatternNode{
			{ID: 4, Division: 1},
			{ID: 5, Division: 1},
		}},
	}}
}

func testPool(root *rytmi.PatternNode) *rytmi.IDPool {
	pool := &rytmi.IDPool{}
	pool.Observe(root)
	return pool
}

func TestSetDivisionClampsAndCopies(t *testing.T) {
	orig := testTree()
	ret := rytmi.SetDivision(orig, 3, 0)
	if orig.Find(3).Division != 2 {
		t.Error("input tree was mutated")
	}
	if ret.Find(3).Division != 1 {
		t.Errorf("division 0 should clamp to 1, got %d", ret.Find(3).Division)
	}
	ret = rytmi.SetDivision(orig, 999, 5)
	if ret.NumNodes() != orig.NumNodes() {
		t.Error("missing node should leave the tree structurally unchanged")
	}
}

func TestSetPitch(t *testing.T) {
	orig := testTree()
	for _, tc := range []struct {
		pitch    float64
		expected int
	}{
		{60.4, 60}, {60.5, 61}, {-5, 0}, {300, 127},
	} {
		ret := rytmi.SetPitch(orig, 2, tc.pitch)
		if node := ret.Find(2); node.Pitch == nil || *node.Pitch != tc.expected {
			t.Errorf("pitch %v: got %v, expected %d", tc.pitch, node.Pitch, tc.expected)
		}
	}
	ret := rytmi.SetPitch(orig, 2, math.NaN())
	if ret.Find(2).Pitch != nil {
		t.Error("NaN pitch should be rejected")
	}
}

func TestSetVelocity(t *testing.T) {
	orig := testTree()
	ret := rytmi.SetVelocity(orig, 2, 1.5)
	if v := ret.Find(2).Velocity; v == nil || *v != 1 {
		t.Errorf("velocity 1.5 should clamp to 1, got %v", v)
	}
	ret = rytmi.SetVelocity(orig, 2, -0.5)
	if v := ret.Find(2).Velocity; v == nil || *v != 0 {
		t.Errorf("velocity -0.5 should clamp to 0, got %v", v)
	}
	ret = rytmi.SetVelocity(ret, 2, math.NaN())
	if ret.Find(2).Velocity != nil {
		t.Error("NaN velocity should be rejected")
	}
}

func TestAddChild(t *testing.T) {
	orig := testTree()
	pool := testPool(&orig)
	ret, id := rytmi.AddChild(orig, 3, 2, pool)
	if id == 0 {
		t.Fatal("expected a fresh id")
	}
	parent := ret.Find(3)
	if len(parent.Children) != 3 || parent.Children[2].ID != id {
		t.Fatal("new leaf should be appended as the last child")
	}
	if orig.Find(id) != nil {
		t.Error("input tree was mutated")
	}
	if _, missing := rytmi.AddChild(orig, 999, 1, pool); missing != 0 {
		t.Error("adding under a missing parent should return id 0")
	}
}

func TestDeleteNode(t *testing.T) {
	orig := testTree()
	pool := testPool(&orig)
	ret := rytmi.DeleteNode(orig, 3, pool)
	if ret.Find(3) != nil || ret.Find(4) != nil || ret.Find(5) != nil {
		t.Error("whole subtree should be removed")
	}
	if ret.NumNodes() != 2 {
		t.Errorf("expected 2 nodes left, got %d", ret.NumNodes())
	}
	ret = rytmi.DeleteNode(orig, 1, pool)
	if ret.NumNodes() != orig.NumNodes() {
		t.Error("deleting the root should be a no-op")
	}
}

func TestDuplicateSubtree(t *testing.T) {
	orig := testTree()
	pool := testPool(&orig)
	ret, cloneID := rytmi.DuplicateSubtree(orig, 3, pool)
	if cloneID == 0 {
		t.Fatal("expected a clone id")
	}
	if len(ret.Children) != 3 {
		t.Fatalf("expected 3 children at root, got %d", len(ret.Children))
	}
	if ret.Children[1].ID != 3 || ret.Children[2].ID != cloneID {
		t.Error("clone should be inserted right after the original")
	}
	seen := map[rytmi.NodeID]bool{}
	dupes := false
	ret.Walk(func(n *rytmi.PatternNode) {
		if seen[n.ID] {
			dupes = true
		}
		seen[n.ID] = true
	})
	if dupes {
		t.Error("clone reused ids from the original")
	}
	if len(ret.Children[2].Children) != 2 {
		t.Error("clone should be a deep copy of the subtree")
	}
	if _, id := rytmi.DuplicateSubtree(orig, 1, pool); id != 0 {
		t.Error("duplicating the root should be a no-op")
	}
}

func TestMoveNodes(t *testing.T) {
	orig := testTree()
	ret := rytmi.MoveNodes(orig, map[rytmi.NodeID]bool{2: true, 4: true}, 10, -5)
	if n := ret.Find(2); n.X != 10 || n.Y != -5 {
		t.Errorf("node 2 at (%v, %v), expected (10, -5)", n.X, n.Y)
	}
	if n := ret.Find(4); n.X != 10 || n.Y != -5 {
		t.Errorf("node 4 at (%v, %v), expected (10, -5)", n.X, n.Y)
	}
	if n := ret.Find(3); n.X != 0 || n.Y != 0 {
		t.Error("unselected node should not move")
	}
}

func TestIDPoolNeverReuses(t *testing.T) {
	root := testTree()
	pool := testPool(&root)
	freed := root.Children[1].Copy()
	pool.Free(&freed)
	for i := 0; i < 10; i++ {
		id := pool.Next()
		if id == 3 || id == 4 || id == 5 {
			t.Fatalf("freed id %d was handed out again", id)
		}
	}
}
