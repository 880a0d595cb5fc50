package xmltree

import (
	"sort"
	"strings"

	"github.com/xmldelta/xmldelta/core/encoding"
)

// indentUnit is the fixed indentation step for serialized output.
const indentUnit = "  "

// Serialize renders a canonical tree as indented XML text. Output is
// deterministic for a given tree: attributes are sorted by name and the
// indentation is fixed, so equal trees always serialize identically.
func Serialize(root *Node) string {
	if root == nil {
		return ""
	}
	var b strings.Builder
	serializeNode(&b, root, 0)
	return b.String()
}

// SerializeLines is Serialize split into lines for line-level comparison.
// The trailing newline does not produce an empty final line.
func SerializeLines(root *Node) []string {
	text := Serialize(root)
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func serializeNode(w *strings.Builder, n *Node, depth int) {
	switch n.Kind {
	case KindElement:
		writeIndent(w, depth)
		w.WriteString("<")
		w.WriteString(n.Name)
		for _, name := range sortedAttrNames(n.Attributes) {
			w.WriteString(" ")
			w.WriteString(name)
			w.WriteString("=\"")
			w.WriteString(encoding.EscapeXMLAttr(n.Attributes[name]))
			w.WriteString("\"")
		}

		switch {
		case len(n.Children) > 0:
			w.WriteString(">\n")
			for _, child := range n.Children {
				serializeNode(w, child, depth+1)
			}
			writeIndent(w, depth)
			w.WriteString("</")
			w.WriteString(n.Name)
			w.WriteString(">\n")
		case n.Value != "":
			w.WriteString(">")
			w.WriteString(encoding.EscapeXMLText(n.Value))
			w.WriteString("</")
			w.WriteString(n.Name)
			w.WriteString(">\n")
		default:
			w.WriteString("/>\n")
		}

	case KindText:
		writeIndent(w, depth)
		w.WriteString(encoding.EscapeXMLText(n.Value))
		w.WriteString("\n")

	case KindComment:
		writeIndent(w, depth)
		w.WriteString("<!--")
		w.WriteString(n.Value)
		w.WriteString("-->\n")

	case KindCData:
		writeIndent(w, depth)
		w.WriteString("<![CDATA[")
		w.WriteString(n.Value)
		w.WriteString("]]>\n")
	}
}

func writeIndent(w *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteString(indentUnit)
	}
}

func sortedAttrNames(attrs map[string]string) []string {
	if len(attrs) == 0 {
		return nil
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
