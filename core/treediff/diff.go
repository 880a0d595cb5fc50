// Package treediff compares two canonical XML trees structurally. Children
// are matched by stable key within same-tag groups, falling back to position
// for keyless nodes, so reordered keyed siblings do not show up as changes.
package treediff

import (
	"sort"

	"github.com/xmldelta/xmldelta/core/xmltree"
)

// ChangeType classifies one diff entry.
type ChangeType string

const (
	// Added means the node exists only in the new tree.
	Added ChangeType = "added"
	// Removed means the node exists only in the old tree.
	Removed ChangeType = "removed"
	// Modified means the node exists on both sides with differing value
	// or attributes.
	Modified ChangeType = "modified"
	// Unchanged means the node exists on both sides with equal value and
	// attributes.
	Unchanged ChangeType = "unchanged"
)

// AttrChange is one attribute-level difference on a matched element.
type AttrChange struct {
	Name     string     `json:"name"`
	Type     ChangeType `json:"type"`
	OldValue string     `json:"oldValue,omitempty"`
	NewValue string     `json:"newValue,omitempty"`
}

// Entry is one node-level difference. Matched pairs carry both node
// references; added/removed entries carry only their own side.
//
// Path is the new-side path for matched and added entries and the old-side
// path for removed entries.
type Entry struct {
	Type        ChangeType        `json:"type"`
	Kind        xmltree.Kind      `json:"kind"`
	Path        string            `json:"path"`
	Name        string            `json:"name"`
	Depth       int               `json:"depth"`
	OldValue    string            `json:"oldValue,omitempty"`
	NewValue    string            `json:"newValue,omitempty"`
	OldAttrs    map[string]string `json:"oldAttrs,omitempty"`
	NewAttrs    map[string]string `json:"newAttrs,omitempty"`
	AttrChanges []AttrChange      `json:"attrChanges,omitempty"`

	OldNode *xmltree.Node `json:"-"`
	NewNode *xmltree.Node `json:"-"`
}

// Stats summarizes a diff by change type.
type Stats struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Modified  int `json:"modified"`
	Unchanged int `json:"unchanged"`
}

// Changed reports whether any entry is not unchanged.
func (s Stats) Changed() bool {
	return s.Added > 0 || s.Removed > 0 || s.Modified > 0
}

// Summarize counts entries by change type.
func Summarize(entries []Entry) Stats {
	var s Stats
	for _, e := range entries {
		switch e.Type {
		case Added:
			s.Added++
		case Removed:
			s.Removed++
		case Modified:
			s.Modified++
		case Unchanged:
			s.Unchanged++
		}
	}
	return s
}

// Diff compares two trees and returns one entry per visited node in
// deterministic pre-order. A nil side marks the entire other tree added or
// removed; differing root names do the same without descending.
func Diff(oldRoot, newRoot *xmltree.Node) []Entry {
	d := &differ{}
	switch {
	case oldRoot == nil && newRoot == nil:
	case oldRoot == nil:
		d.emitSubtree(newRoot, Added, 0)
	case newRoot == nil:
		d.emitSubtree(oldRoot, Removed, 0)
	case oldRoot.Name != newRoot.Name:
		d.emitSubtree(oldRoot, Removed, 0)
		d.emitSubtree(newRoot, Added, 0)
	default:
		d.compare(oldRoot, newRoot, 0)
	}
	return d.entries
}

type differ struct {
	entries []Entry
}

// compare emits the entry for a matched pair and recurses into its element
// children. Same-tag children on both sides are matched by stable key when
// they carry one and by position otherwise.
func (d *differ) compare(oldNode, newNode *xmltree.Node, depth int) {
	attrChanges := diffAttrs(oldNode.Attributes, newNode.Attributes)

	typ := Unchanged
	if len(attrChanges) > 0 || oldNode.Value != newNode.Value {
		typ = Modified
	}

	d.entries = append(d.entries, Entry{
		Type:        typ,
		Kind:        xmltree.KindElement,
		Path:        newNode.Path,
		Name:        newNode.Name,
		Depth:       depth,
		OldValue:    oldNode.Value,
		NewValue:    newNode.Value,
		OldAttrs:    oldNode.Attributes,
		NewAttrs:    newNode.Attributes,
		AttrChanges: attrChanges,
		OldNode:     oldNode,
		NewNode:     newNode,
	})

	oldElems := oldNode.Elements()
	newElems := newNode.Elements()

	// Group tag names in first-seen order, old side first.
	var order []string
	seen := make(map[string]bool)
	for _, c := range oldElems {
		if !seen[c.Name] {
			seen[c.Name] = true
			order = append(order, c.Name)
		}
	}
	for _, c := range newElems {
		if !seen[c.Name] {
			seen[c.Name] = true
			order = append(order, c.Name)
		}
	}

	for _, tag := range order {
		d.compareGroup(filterByName(oldElems, tag), filterByName(newElems, tag), depth)
	}
}

// compareGroup matches one tag-name group. Keyed children pair across sides
// by stable key; the rest pair positionally. A duplicated key within one
// side keeps only its first occurrence keyed, later ones fall back to
// positional matching so no node is dropped.
func (d *differ) compareGroup(oldGroup, newGroup []*xmltree.Node, depth int) {
	oldKeyed, oldKeyOrder, oldRest := splitKeyed(oldGroup)
	newKeyed, newKeyOrder, newRest := splitKeyed(newGroup)

	for _, key := range oldKeyOrder {
		if match, ok := newKeyed[key]; ok {
			d.compare(oldKeyed[key], match, depth+1)
		} else {
			d.emitSubtree(oldKeyed[key], Removed, depth+1)
		}
	}
	for _, key := range newKeyOrder {
		if _, ok := oldKeyed[key]; !ok {
			d.emitSubtree(newKeyed[key], Added, depth+1)
		}
	}

	shared := len(oldRest)
	if len(newRest) < shared {
		shared = len(newRest)
	}
	for i := 0; i < shared; i++ {
		d.compare(oldRest[i], newRest[i], depth+1)
	}
	for _, n := range oldRest[shared:] {
		d.emitSubtree(n, Removed, depth+1)
	}
	for _, n := range newRest[shared:] {
		d.emitSubtree(n, Added, depth+1)
	}
}

// emitSubtree emits entries for every node of a one-sided subtree in
// pre-order.
func (d *differ) emitSubtree(n *xmltree.Node, typ ChangeType, depth int) {
	e := Entry{
		Type:  typ,
		Kind:  n.Kind,
		Path:  n.Path,
		Name:  n.Name,
		Depth: depth,
	}
	if typ == Added {
		e.NewValue = n.Value
		e.NewAttrs = n.Attributes
		e.NewNode = n
	} else {
		e.OldValue = n.Value
		e.OldAttrs = n.Attributes
		e.OldNode = n
	}
	d.entries = append(d.entries, e)

	for _, c := range n.Children {
		d.emitSubtree(c, typ, depth+1)
	}
}

func filterByName(nodes []*xmltree.Node, name string) []*xmltree.Node {
	var out []*xmltree.Node
	for _, n := range nodes {
		if n.Name == name {
			out = append(out, n)
		}
	}
	return out
}

func splitKeyed(group []*xmltree.Node) (keyed map[string]*xmltree.Node, order []string, rest []*xmltree.Node) {
	keyed = make(map[string]*xmltree.Node)
	for _, n := range group {
		if _, _, ok := n.KeyAttr(); !ok {
			rest = append(rest, n)
			continue
		}
		key := n.StableKey()
		if _, dup := keyed[key]; dup {
			rest = append(rest, n)
			continue
		}
		keyed[key] = n
		order = append(order, key)
	}
	return keyed, order, rest
}

// diffAttrs compares two attribute maps, returning changes sorted by
// attribute name.
func diffAttrs(oldAttrs, newAttrs map[string]string) []AttrChange {
	names := make(map[string]bool, len(oldAttrs)+len(newAttrs))
	for name := range oldAttrs {
		names[name] = true
	}
	for name := range newAttrs {
		names[name] = true
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var changes []AttrChange
	for _, name := range sorted {
		oldVal, inOld := oldAttrs[name]
		newVal, inNew := newAttrs[name]
		switch {
		case !inOld:
			changes = append(changes, AttrChange{Name: name, Type: Added, NewValue: newVal})
		case !inNew:
			changes = append(changes, AttrChange{Name: name, Type: Removed, OldValue: oldVal})
		case oldVal != newVal:
			changes = append(changes, AttrChange{Name: name, Type: Modified, OldValue: oldVal, NewValue: newVal})
		}
	}
	return changes
}
