// Package xmltree builds canonical, immutable XML trees for structural
// comparison. Parsing is delegated to the xmlquery DOM; the canonical tree
// keeps only what comparison needs: element names, attributes, normalized
// text values, and stable per-document paths.
//
// Security Notes:
//   - The xmlquery library is used for parsing, which uses Go's encoding/xml
//     internally and inherits its security properties (no external entity
//     fetching).
package xmltree

// Kind identifies what a Node represents.
type Kind string

const (
	// KindElement is a regular XML element.
	KindElement Kind = "element"
	// KindText is a non-whitespace text segment inside an element that
	// also has non-text children.
	KindText Kind = "text"
	// KindComment is an XML comment.
	KindComment Kind = "comment"
	// KindCData is a CDATA section.
	KindCData Kind = "cdata"
)

// Reserved names for non-element nodes.
const (
	TextName    = "#text"
	CommentName = "#comment"
	CDataName   = "#cdata"
)

// Node is one node of a canonical tree. Nodes are built once by Parse and
// never mutated afterward; downstream layers wrap them instead of copying.
//
// Path is unique within its tree: the Nth same-named sibling after the first
// gets an [N] suffix ("items/item", "items/item[1]", ...).
//
// Value holds the trimmed direct text of an element (embedded whitespace
// preserved). CDATA content is kept as a child node and does not contribute
// to Value. For text, comment, and cdata nodes Value holds the content
// itself.
type Node struct {
	Kind       Kind              `json:"kind"`
	Name       string            `json:"name"`
	Path       string            `json:"path"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Value      string            `json:"value,omitempty"`
	Children   []*Node           `json:"children,omitempty"`
}

// Elements returns the element-kind children in document order.
func (n *Node) Elements() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == KindElement {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the value of the named attribute, or "" if absent.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attributes[name]
}
