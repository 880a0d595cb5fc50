package treealign

import (
	"testing"

	"github.com/xmldelta/xmldelta/core/treediff"
	"github.com/xmldelta/xmldelta/core/xmltree"
)

func mustParse(t *testing.T, xml string) *xmltree.Node {
	t.Helper()
	res := xmltree.Parse(xml, xmltree.Options{})
	if !res.Success {
		t.Fatalf("Parse failed: %v", res.Err)
	}
	return res.Root
}

func alignDocs(t *testing.T, oldXML, newXML string) (*TreeNode, *TreeNode) {
	t.Helper()
	oldRoot := mustParse(t, oldXML)
	newRoot := mustParse(t, newXML)
	entries := treediff.Diff(oldRoot, newRoot)
	return Align(oldRoot, newRoot, entries)
}

// TestAlignPlaceholderForRemoved verifies a removed node gets a collapsed
// counterpart on the new side.
func TestAlignPlaceholderForRemoved(t *testing.T) {
	left, right := alignDocs(t,
		`<a><b id="1"><c/></b><b id="2"/></a>`,
		`<a><b id="2"/></a>`,
	)

	if len(left.Children) != 2 || len(right.Children) != 2 {
		t.Fatalf("children = %d/%d, want 2/2", len(left.Children), len(right.Children))
	}

	// Union keys sort lexicographically: b[id=1] before b[id=2].
	lGone := left.Children[0]
	rGone := right.Children[0]
	if lGone.Key != "b[id=1]" || lGone.DiffType != treediff.Removed || lGone.IsPlaceholder {
		t.Errorf("left removed row = %+v", lGone)
	}
	if len(lGone.Children) != 1 {
		t.Errorf("removed subtree keeps its children, got %d", len(lGone.Children))
	}
	if !rGone.IsPlaceholder {
		t.Fatalf("right row for missing node must be a placeholder: %+v", rGone)
	}
	if rGone.DiffType != treediff.Added {
		t.Errorf("placeholder diff type = %s, want the complement added", rGone.DiffType)
	}
	if len(rGone.Children) != 0 {
		t.Errorf("placeholders are collapsed, got %d children", len(rGone.Children))
	}
	if rGone.Node == nil || rGone.Node != lGone.Node {
		t.Error("placeholder must carry the other side's node for display")
	}

	if left.Children[1].DiffType != treediff.Unchanged || right.Children[1].DiffType != treediff.Unchanged {
		t.Errorf("kept pair = %s/%s, want unchanged", left.Children[1].DiffType, right.Children[1].DiffType)
	}
}

// TestAlignPlaceholderForAdded verifies the mirrored case on the old side.
func TestAlignPlaceholderForAdded(t *testing.T) {
	left, right := alignDocs(t, `<a/>`, `<a><c id="9"/></a>`)

	if len(left.Children) != 1 || len(right.Children) != 1 {
		t.Fatalf("children = %d/%d, want 1/1", len(left.Children), len(right.Children))
	}
	if !left.Children[0].IsPlaceholder || left.Children[0].DiffType != treediff.Removed {
		t.Errorf("left placeholder = %+v, want removed-flavored placeholder", left.Children[0])
	}
	if right.Children[0].IsPlaceholder || right.Children[0].DiffType != treediff.Added {
		t.Errorf("right row = %+v, want real added node", right.Children[0])
	}
}

// TestAlignModifiedPair verifies both panes mark a modified pair.
func TestAlignModifiedPair(t *testing.T) {
	left, right := alignDocs(t,
		`<a><b id="1">x</b></a>`,
		`<a><b id="1">y</b></a>`,
	)

	if left.Children[0].DiffType != treediff.Modified {
		t.Errorf("left = %s, want modified", left.Children[0].DiffType)
	}
	if right.Children[0].DiffType != treediff.Modified {
		t.Errorf("right = %s, want modified", right.Children[0].DiffType)
	}
	if left.DiffType != treediff.Unchanged || right.DiffType != treediff.Unchanged {
		t.Errorf("roots = %s/%s, want unchanged", left.DiffType, right.DiffType)
	}
}

// TestAlignLexicographicOrder verifies merged children sort by stable key,
// not document order.
func TestAlignLexicographicOrder(t *testing.T) {
	left, right := alignDocs(t,
		`<a><z id="2"/><m id="1"/></a>`,
		`<a><z id="2"/><m id="1"/></a>`,
	)

	for _, tree := range []*TreeNode{left, right} {
		if len(tree.Children) != 2 {
			t.Fatalf("children = %d, want 2", len(tree.Children))
		}
		if tree.Children[0].Name != "m" || tree.Children[1].Name != "z" {
			t.Errorf("order = %s,%s; want m,z (lexicographic by key)",
				tree.Children[0].Name, tree.Children[1].Name)
		}
	}
}

// TestAlignIsomorphicShape verifies both panes stay in step for a larger
// mixed edit.
func TestAlignIsomorphicShape(t *testing.T) {
	left, right := alignDocs(t,
		`<r><g id="a"><x/><y/></g><g id="b"/><u>1</u></r>`,
		`<r><g id="a"><x/></g><g id="c"/><u>2</u></r>`,
	)

	var check func(l, r *TreeNode)
	check = func(l, r *TreeNode) {
		if len(l.Children) != len(r.Children) {
			t.Fatalf("shape mismatch at %s/%s: %d vs %d children",
				l.Path, r.Path, len(l.Children), len(r.Children))
		}
		for i := range l.Children {
			check(l.Children[i], r.Children[i])
		}
	}
	check(left, right)
}

// TestAlignRootNameMismatch verifies unrelated roots yield two unaligned
// one-sided trees.
func TestAlignRootNameMismatch(t *testing.T) {
	left, right := alignDocs(t, `<old><k/></old>`, `<new><k/></new>`)

	if left.DiffType != treediff.Removed || right.DiffType != treediff.Added {
		t.Errorf("roots = %s/%s, want removed/added", left.DiffType, right.DiffType)
	}
	if left.IsPlaceholder || right.IsPlaceholder {
		t.Error("unrelated roots are real nodes, not placeholders")
	}
	if len(left.Children) != 1 || left.Children[0].DiffType != treediff.Removed {
		t.Errorf("left subtree should be all removed: %+v", left.Children)
	}
}

// TestAlignNilSides verifies nil roots produce nil trees.
func TestAlignNilSides(t *testing.T) {
	tree := mustParse(t, `<r><b/></r>`)

	left, right := Align(nil, tree, treediff.Diff(nil, tree))
	if left != nil {
		t.Error("left should be nil for a nil old root")
	}
	if right == nil || right.DiffType != treediff.Added {
		t.Fatalf("right = %+v, want added tree", right)
	}

	left, right = Align(nil, nil, nil)
	if left != nil || right != nil {
		t.Error("Align(nil, nil) should yield two nil trees")
	}
}

// TestAlignTieBreakPriority verifies the pickBestDiff ordering when one key
// matches several entries. With a duplicated id, the surviving pair and the
// removed duplicate share a stable key; on the old side removed outranks the
// pair's unchanged, so both rows show removed.
func TestAlignTieBreakPriority(t *testing.T) {
	oldRoot := mustParse(t, `<r><a id="1">first</a><a id="1">second</a></r>`)
	newRoot := mustParse(t, `<r><a id="1">first</a></r>`)
	entries := treediff.Diff(oldRoot, newRoot)

	left, _ := Align(oldRoot, newRoot, entries)

	for _, c := range left.Children {
		if c.IsPlaceholder {
			continue
		}
		if c.DiffType != treediff.Removed {
			t.Errorf("old-side row %s = %s, want removed by priority", c.Path, c.DiffType)
		}
	}
}

// TestAlignUnkeyedSamePath verifies path-fallback keys still pair.
func TestAlignUnkeyedSamePath(t *testing.T) {
	left, right := alignDocs(t, `<a><b>x</b></a>`, `<a><b>y</b></a>`)

	if len(left.Children) != 1 || len(right.Children) != 1 {
		t.Fatalf("children = %d/%d, want 1/1", len(left.Children), len(right.Children))
	}
	if left.Children[0].IsPlaceholder || right.Children[0].IsPlaceholder {
		t.Error("paired keyless nodes must not be placeholders")
	}
	if left.Children[0].DiffType != treediff.Modified {
		t.Errorf("pair = %s, want modified", left.Children[0].DiffType)
	}
}
