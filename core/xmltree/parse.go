package xmltree

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/xmldelta/xmldelta/core/errors"
)

// maxMixedSamples caps how many mixed-content warnings carry full node
// details. The total count keeps climbing past the cap.
const maxMixedSamples = 8

// Options controls parsing.
type Options struct {
	// Strict turns mixed-content warnings into a parse failure.
	Strict bool
	// Select is an optional XPath expression; when set, the canonical tree
	// is built from the first matching element instead of the document root.
	Select string
}

// Warning describes one element with mixed content (an element child next
// to non-whitespace direct text).
type Warning struct {
	Name       string            `json:"name"`
	Path       string            `json:"path"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Result is the outcome of a Parse call. Parse never panics on bad input;
// failures land in Err with Success false.
type Result struct {
	Root       *Node
	Success    bool
	Err        error
	Warnings   []Warning
	MixedCount int
}

// Parse builds a canonical tree from XML text.
//
// Whitespace-only text is dropped. Adjacent text segments are coalesced.
// Comments and CDATA become child nodes but are excluded from element
// values. Elements mixing child elements with non-whitespace text produce
// warnings (capped at maxMixedSamples samples) or, under Options.Strict, a
// parse failure naming the first offending path.
func Parse(text string, opts Options) Result {
	if strings.TrimSpace(text) == "" {
		return failure(errors.NewValidation("xml", "empty input"))
	}

	doc, err := xmlquery.Parse(strings.NewReader(text))
	if err != nil {
		return failure(errors.Wrap(err, "parsing xml"))
	}

	root, err := documentRoot(doc)
	if err != nil {
		return failure(err)
	}

	if opts.Select != "" {
		root, err = selectElement(doc, opts.Select)
		if err != nil {
			return failure(err)
		}
	}

	b := &builder{strict: opts.Strict}
	node, err := b.build(root, elementName(root))
	if err != nil {
		return Result{Err: err, Warnings: b.warnings, MixedCount: b.mixedCount}
	}
	return Result{Root: node, Success: true, Warnings: b.warnings, MixedCount: b.mixedCount}
}

func failure(err error) Result {
	return Result{Err: err}
}

// documentRoot finds the single root element of a parsed document.
func documentRoot(doc *xmlquery.Node) (*xmlquery.Node, error) {
	var root *xmlquery.Node
	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		if root != nil {
			return nil, errors.NewParse("XML", elementName(child), "multiple root elements")
		}
		root = child
	}
	if root == nil {
		return nil, errors.NewParse("XML", "", "no root element")
	}
	return root, nil
}

// elementName returns the element's tag name including any prefix.
func elementName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

// builder converts an xmlquery subtree into canonical nodes, collecting
// mixed-content warnings along the way.
type builder struct {
	strict     bool
	warnings   []Warning
	mixedCount int
}

// segment is one ordered piece of an element's content.
type segment struct {
	kind Kind
	elem *xmlquery.Node // set for element segments
	text string         // raw content for text, comment, and cdata segments
}

func (b *builder) build(src *xmlquery.Node, path string) (*Node, error) {
	node := &Node{
		Kind:       KindElement,
		Name:       elementName(src),
		Path:       path,
		Attributes: attrMap(src),
	}

	segs := gatherSegments(src)

	hasElementChild := false
	hasOtherChild := false
	var textSegs []string
	for _, s := range segs {
		switch s.kind {
		case KindElement:
			hasElementChild = true
			hasOtherChild = true
		case KindComment, KindCData:
			hasOtherChild = true
		case KindText:
			if trimmed := strings.TrimSpace(s.text); trimmed != "" {
				textSegs = append(textSegs, trimmed)
			}
		}
	}

	if hasElementChild && len(textSegs) > 0 {
		if err := b.reportMixed(node); err != nil {
			return nil, err
		}
	}

	// Each segment keeps its embedded whitespace; segments split by child
	// nodes join with a single space.
	node.Value = strings.Join(textSegs, " ")

	// Pure text content stays in Value; no child nodes are created for it.
	if !hasOtherChild {
		return node, nil
	}

	seen := make(map[string]int)
	for _, s := range segs {
		var name string
		switch s.kind {
		case KindElement:
			name = elementName(s.elem)
		case KindComment:
			name = CommentName
		case KindCData:
			name = CDataName
		case KindText:
			if strings.TrimSpace(s.text) == "" {
				continue
			}
			name = TextName
		}

		childPath := childPath(path, name, seen[name])
		seen[name]++

		switch s.kind {
		case KindElement:
			child, err := b.build(s.elem, childPath)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		case KindComment:
			node.Children = append(node.Children, &Node{Kind: KindComment, Name: CommentName, Path: childPath, Value: s.text})
		case KindCData:
			node.Children = append(node.Children, &Node{Kind: KindCData, Name: CDataName, Path: childPath, Value: s.text})
		case KindText:
			node.Children = append(node.Children, &Node{Kind: KindText, Name: TextName, Path: childPath, Value: strings.TrimSpace(s.text)})
		}
	}

	return node, nil
}

// reportMixed records a mixed-content element, failing instead when strict.
func (b *builder) reportMixed(n *Node) error {
	if b.strict {
		return errors.NewParse("XML", n.Path, "mixed content")
	}
	b.mixedCount++
	if len(b.warnings) < maxMixedSamples {
		b.warnings = append(b.warnings, Warning{Name: n.Name, Path: n.Path, Attributes: n.Attributes})
	}
	return nil
}

// gatherSegments walks direct children in order, coalescing adjacent text.
func gatherSegments(src *xmlquery.Node) []segment {
	var segs []segment
	var pending strings.Builder
	havePending := false

	flush := func() {
		if havePending {
			segs = append(segs, segment{kind: KindText, text: pending.String()})
			pending.Reset()
			havePending = false
		}
	}

	for child := src.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.ElementNode:
			flush()
			segs = append(segs, segment{kind: KindElement, elem: child})
		case xmlquery.TextNode:
			pending.WriteString(child.Data)
			havePending = true
		case xmlquery.CharDataNode:
			flush()
			segs = append(segs, segment{kind: KindCData, text: child.Data})
		case xmlquery.CommentNode:
			flush()
			segs = append(segs, segment{kind: KindComment, text: child.Data})
		}
	}
	flush()
	return segs
}

// childPath appends a path step. The first same-named sibling is bare; the
// Nth after it gets an [N] suffix so paths stay unique.
func childPath(parent, name string, ordinal int) string {
	if ordinal == 0 {
		return parent + "/" + name
	}
	return fmt.Sprintf("%s/%s[%d]", parent, name, ordinal)
}

func attrMap(src *xmlquery.Node) map[string]string {
	if len(src.Attr) == 0 {
		return nil
	}
	m := make(map[string]string, len(src.Attr))
	for _, attr := range src.Attr {
		switch {
		case attr.Name.Space == "":
			m[attr.Name.Local] = attr.Value
		case attr.Name.Space == "xmlns":
			m["xmlns:"+attr.Name.Local] = attr.Value
		default:
			m[attr.Name.Space+":"+attr.Name.Local] = attr.Value
		}
	}
	return m
}
