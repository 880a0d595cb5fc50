package xmltree

// keyAttrs are the identifying attributes checked in priority order when
// building a stable key. The first one present wins.
var keyAttrs = []string{"id", "key", "name", "code", "uuid"}

// KeyAttr returns the first identifying attribute present on the node.
// ok is false when the node carries none of them.
func (n *Node) KeyAttr() (name, value string, ok bool) {
	if n == nil {
		return "", "", false
	}
	for _, k := range keyAttrs {
		if v, present := n.Attributes[k]; present {
			return k, v, true
		}
	}
	return "", "", false
}

// StableKey identifies a node across two versions of a document. Nodes with
// an identifying attribute key as name[attr=value] so they match even after
// reordering; all others fall back to their path.
func (n *Node) StableKey() string {
	if n == nil {
		return ""
	}
	if attr, val, ok := n.KeyAttr(); ok {
		return n.Name + "[" + attr + "=" + val + "]"
	}
	return n.Path
}
