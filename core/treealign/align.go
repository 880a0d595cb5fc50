// Package treealign builds two structurally parallel trees for dual-pane
// display from the original trees plus the structural diff entries. Children
// merge across sides by the union of their stable keys so both panes scroll
// in step; nodes missing on one side get collapsed placeholders.
package treealign

import (
	"sort"

	"github.com/xmldelta/xmldelta/core/treediff"
	"github.com/xmldelta/xmldelta/core/xmltree"
)

// TreeNode is one row of an aligned visualization tree. A placeholder marks
// a node that exists only on the other side; it carries that side's Node for
// display and never has children.
type TreeNode struct {
	Name          string              `json:"name"`
	Path          string              `json:"path"`
	Key           string              `json:"key"`
	DiffType      treediff.ChangeType `json:"diffType"`
	IsPlaceholder bool                `json:"isPlaceholder,omitempty"`
	Children      []*TreeNode         `json:"children,omitempty"`

	Node *xmltree.Node `json:"-"`
}

type side int

const (
	sideOld side = iota
	sideNew
)

// diffPriority orders candidate entry types per side. The first candidate
// matching the earliest type wins.
var diffPriority = map[side][]treediff.ChangeType{
	sideOld: {treediff.Removed, treediff.Modified, treediff.Added},
	sideNew: {treediff.Added, treediff.Modified, treediff.Removed},
}

// Align builds the left (old) and right (new) aligned trees. A nil root
// yields a nil tree on that side; differing root names yield two unaligned
// one-sided trees, mirroring the structural differ's no-descend rule.
func Align(oldRoot, newRoot *xmltree.Node, entries []treediff.Entry) (*TreeNode, *TreeNode) {
	a := &aligner{index: buildIndex(entries)}
	switch {
	case oldRoot == nil && newRoot == nil:
		return nil, nil
	case oldRoot == nil:
		return nil, a.lone(newRoot, sideNew)
	case newRoot == nil:
		return a.lone(oldRoot, sideOld), nil
	case oldRoot.Name != newRoot.Name:
		return a.lone(oldRoot, sideOld), a.lone(newRoot, sideNew)
	default:
		return a.pair(oldRoot, newRoot)
	}
}

type aligner struct {
	index *entryIndex
}

// pair aligns two matched nodes and merges their element children by the
// union of stable keys, sorted lexicographically for a stable display order.
func (a *aligner) pair(oldNode, newNode *xmltree.Node) (*TreeNode, *TreeNode) {
	left := a.wrap(oldNode, sideOld)
	right := a.wrap(newNode, sideNew)

	oldKids, oldKeys := groupByKey(oldNode.Elements())
	newKids, newKeys := groupByKey(newNode.Elements())

	for _, key := range unionKeys(oldKeys, newKeys) {
		olist := oldKids[key]
		nlist := newKids[key]

		shared := len(olist)
		if len(nlist) < shared {
			shared = len(nlist)
		}
		for i := 0; i < shared; i++ {
			l, r := a.pair(olist[i], nlist[i])
			left.Children = append(left.Children, l)
			right.Children = append(right.Children, r)
		}

		for _, n := range olist[shared:] {
			l := a.lone(n, sideOld)
			left.Children = append(left.Children, l)
			if l.DiffType == treediff.Removed {
				right.Children = append(right.Children, placeholder(n, treediff.Added))
			}
		}
		for _, n := range nlist[shared:] {
			r := a.lone(n, sideNew)
			right.Children = append(right.Children, r)
			if r.DiffType == treediff.Added {
				left.Children = append(left.Children, placeholder(n, treediff.Removed))
			}
		}
	}

	return left, right
}

// lone builds one side's subtree with no counterpart pairing.
func (a *aligner) lone(n *xmltree.Node, s side) *TreeNode {
	t := a.wrap(n, s)
	for _, c := range n.Elements() {
		t.Children = append(t.Children, a.lone(c, s))
	}
	return t
}

func (a *aligner) wrap(n *xmltree.Node, s side) *TreeNode {
	return &TreeNode{
		Name:     n.Name,
		Path:     n.Path,
		Key:      n.StableKey(),
		DiffType: a.index.pickBestDiff(n, s),
		Node:     n,
	}
}

// placeholder marks a missing counterpart. It carries the other side's node
// for display and is intentionally collapsed.
func placeholder(other *xmltree.Node, typ treediff.ChangeType) *TreeNode {
	return &TreeNode{
		Name:          other.Name,
		Path:          other.Path,
		Key:           other.StableKey(),
		DiffType:      typ,
		IsPlaceholder: true,
		Node:          other,
	}
}

// entryIndex looks up diff entries by node path and stable key per side.
// Values are positions into the entry slice so candidate order stays the
// emission order.
type entryIndex struct {
	entries   []treediff.Entry
	oldByPath map[string][]int
	oldByKey  map[string][]int
	newByPath map[string][]int
	newByKey  map[string][]int
}

func buildIndex(entries []treediff.Entry) *entryIndex {
	idx := &entryIndex{
		entries:   entries,
		oldByPath: make(map[string][]int),
		oldByKey:  make(map[string][]int),
		newByPath: make(map[string][]int),
		newByKey:  make(map[string][]int),
	}
	for i := range entries {
		if n := entries[i].OldNode; n != nil {
			idx.oldByPath[n.Path] = append(idx.oldByPath[n.Path], i)
			idx.oldByKey[n.StableKey()] = append(idx.oldByKey[n.StableKey()], i)
		}
		if n := entries[i].NewNode; n != nil {
			idx.newByPath[n.Path] = append(idx.newByPath[n.Path], i)
			idx.newByKey[n.StableKey()] = append(idx.newByKey[n.StableKey()], i)
		}
	}
	return idx
}

// pickBestDiff resolves the entry for a node. Duplicate unkeyed siblings can
// reuse a synthesized index across edits, so several entries may match by
// path or key; the per-side priority picks among them, and anything left
// counts as unchanged.
func (idx *entryIndex) pickBestDiff(n *xmltree.Node, s side) treediff.ChangeType {
	var byPath, byKey map[string][]int
	if s == sideOld {
		byPath, byKey = idx.oldByPath, idx.oldByKey
	} else {
		byPath, byKey = idx.newByPath, idx.newByKey
	}

	candidates := mergeSorted(byPath[n.Path], byKey[n.StableKey()])
	for _, typ := range diffPriority[s] {
		for _, i := range candidates {
			if idx.entries[i].Type == typ {
				return typ
			}
		}
	}
	return treediff.Unchanged
}

// mergeSorted merges two ascending index lists, dropping duplicates.
func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// groupByKey indexes element children by stable key, keeping sibling order
// within each key.
func groupByKey(nodes []*xmltree.Node) (map[string][]*xmltree.Node, []string) {
	groups := make(map[string][]*xmltree.Node)
	var keys []string
	for _, n := range nodes {
		key := n.StableKey()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], n)
	}
	return groups, keys
}

func unionKeys(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var keys []string
	for _, k := range a {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
