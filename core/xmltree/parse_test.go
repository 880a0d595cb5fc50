package xmltree

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xmldelta/xmldelta/core/errors"
)

// TestParseSimpleDocument verifies the canonical tree for a small document.
func TestParseSimpleDocument(t *testing.T) {
	xmlData := `<?xml version="1.0"?>
<catalog version="2">
	<item id="1" name="bolt">steel</item>
	<item id="2" name="nut"/>
</catalog>`

	res := Parse(xmlData, Options{})
	if !res.Success {
		t.Fatalf("Parse failed: %v", res.Err)
	}

	root := res.Root
	if root.Name != "catalog" || root.Path != "catalog" {
		t.Fatalf("root = %s (%s), want catalog (catalog)", root.Name, root.Path)
	}
	if got := root.Attr("version"); got != "2" {
		t.Errorf("root version = %q, want %q", got, "2")
	}
	if len(root.Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(root.Children))
	}

	first := root.Children[0]
	if first.Path != "catalog/item" {
		t.Errorf("first child path = %q, want %q", first.Path, "catalog/item")
	}
	if first.Value != "steel" {
		t.Errorf("first child value = %q, want %q", first.Value, "steel")
	}
	if len(first.Children) != 0 {
		t.Errorf("pure text element should have no children, got %d", len(first.Children))
	}

	second := root.Children[1]
	if second.Path != "catalog/item[1]" {
		t.Errorf("second child path = %q, want %q", second.Path, "catalog/item[1]")
	}
	if second.Value != "" {
		t.Errorf("empty element value = %q, want empty", second.Value)
	}
}

// TestParseSiblingPaths verifies the [N] suffix rule for repeated names.
func TestParseSiblingPaths(t *testing.T) {
	res := Parse(`<r><b/><b/><g/><b/></r>`, Options{})
	if !res.Success {
		t.Fatalf("Parse failed: %v", res.Err)
	}

	want := []string{"r/b", "r/b[1]", "r/g", "r/b[2]"}
	var got []string
	for _, c := range res.Root.Children {
		got = append(got, c.Path)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("child paths mismatch (-want +got):\n%s", diff)
	}
}

// TestParsePathUniqueness verifies that paths are unique within a tree.
func TestParsePathUniqueness(t *testing.T) {
	xmlData := `<r>
	<g><b/><b/><b/></g>
	<g><b/><b kind="x"/></g>
	<g/>
	text outside is not here
</r>`

	res := Parse(xmlData, Options{})
	if !res.Success {
		t.Fatalf("Parse failed: %v", res.Err)
	}

	seen := make(map[string]bool)
	var walk func(n *Node)
	walk = func(n *Node) {
		if seen[n.Path] {
			t.Errorf("duplicate path %q", n.Path)
		}
		seen[n.Path] = true
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(res.Root)
}

// TestParseInvalidInput verifies clean failures for unusable documents.
func TestParseInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t  "},
		{"unclosed tag", "<root><element></root>"},
		{"mismatched tags", "<root></other>"},
		{"invalid chars", "<root>\x00</root>"},
		{"comment only", "<!-- nothing here -->"},
		{"multiple roots", "<a/><b/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.xml, Options{})
			if res.Success {
				t.Fatal("Parse should fail")
			}
			if res.Err == nil {
				t.Fatal("failed Parse must carry an error")
			}
			if res.Root != nil {
				t.Error("failed Parse must not return a root")
			}
		})
	}
}

// TestParseEmptyInputMessage verifies the distinct empty-input failure.
func TestParseEmptyInputMessage(t *testing.T) {
	res := Parse("   ", Options{})
	if res.Success {
		t.Fatal("Parse should fail")
	}
	if !errors.Is(res.Err, errors.ErrInvalidInput) {
		t.Errorf("empty input error = %v, want ErrInvalidInput", res.Err)
	}
	if !strings.Contains(res.Err.Error(), "empty input") {
		t.Errorf("error %q should mention empty input", res.Err)
	}
}

// TestParseMixedContent verifies warning collection without strict mode.
func TestParseMixedContent(t *testing.T) {
	res := Parse(`<doc><p id="p1">Hello <b>world</b></p></doc>`, Options{})
	if !res.Success {
		t.Fatalf("Parse failed: %v", res.Err)
	}

	if res.MixedCount != 1 {
		t.Fatalf("MixedCount = %d, want 1", res.MixedCount)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(res.Warnings))
	}
	w := res.Warnings[0]
	if w.Name != "p" || w.Path != "doc/p" {
		t.Errorf("warning = %s (%s), want p (doc/p)", w.Name, w.Path)
	}
	if w.Attributes["id"] != "p1" {
		t.Errorf("warning attributes = %v, want id=p1", w.Attributes)
	}

	// Content survives: text segment and element child in document order.
	p := res.Root.Children[0]
	if len(p.Children) != 2 {
		t.Fatalf("p has %d children, want 2", len(p.Children))
	}
	if p.Children[0].Kind != KindText || p.Children[0].Value != "Hello" {
		t.Errorf("first child = %s %q, want text %q", p.Children[0].Kind, p.Children[0].Value, "Hello")
	}
	if p.Children[1].Kind != KindElement || p.Children[1].Name != "b" {
		t.Errorf("second child = %s %s, want element b", p.Children[1].Kind, p.Children[1].Name)
	}
	if p.Value != "Hello" {
		t.Errorf("p value = %q, want %q", p.Value, "Hello")
	}
}

// TestParseMixedContentSampleCap verifies the warning sample cap.
func TestParseMixedContentSampleCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<doc>")
	for i := 0; i < 12; i++ {
		sb.WriteString("<p>text <b>bold</b></p>")
	}
	sb.WriteString("</doc>")

	res := Parse(sb.String(), Options{})
	if !res.Success {
		t.Fatalf("Parse failed: %v", res.Err)
	}
	if res.MixedCount != 12 {
		t.Errorf("MixedCount = %d, want 12", res.MixedCount)
	}
	if len(res.Warnings) != maxMixedSamples {
		t.Errorf("got %d warning samples, want %d", len(res.Warnings), maxMixedSamples)
	}
}

// TestParseStrictMixedContent verifies strict mode fails on mixed content.
func TestParseStrictMixedContent(t *testing.T) {
	res := Parse(`<doc><p>Hello <b>world</b></p></doc>`, Options{Strict: true})
	if res.Success {
		t.Fatal("strict Parse should fail on mixed content")
	}
	if !strings.Contains(res.Err.Error(), "doc/p") {
		t.Errorf("error %q should name the offending path", res.Err)
	}

	// Without element children the same text is not mixed content.
	clean := Parse(`<doc><p>Hello world</p></doc>`, Options{Strict: true})
	if !clean.Success {
		t.Fatalf("strict Parse failed on clean input: %v", clean.Err)
	}
}

// TestParseCommentAndCData verifies non-element children and value exclusion.
func TestParseCommentAndCData(t *testing.T) {
	res := Parse(`<d><!--note--><![CDATA[x < y]]></d>`, Options{})
	if !res.Success {
		t.Fatalf("Parse failed: %v", res.Err)
	}

	d := res.Root
	if len(d.Children) != 2 {
		t.Fatalf("d has %d children, want 2", len(d.Children))
	}
	if d.Children[0].Kind != KindComment || d.Children[0].Value != "note" {
		t.Errorf("comment child = %s %q", d.Children[0].Kind, d.Children[0].Value)
	}
	if d.Children[0].Path != "d/#comment" {
		t.Errorf("comment path = %q, want %q", d.Children[0].Path, "d/#comment")
	}
	if d.Children[1].Kind != KindCData || d.Children[1].Value != "x < y" {
		t.Errorf("cdata child = %s %q", d.Children[1].Kind, d.Children[1].Value)
	}

	// Neither contributes to the element value.
	if d.Value != "" {
		t.Errorf("d value = %q, want empty", d.Value)
	}
}

// TestParseEntityText verifies entity expansion lands in values.
func TestParseEntityText(t *testing.T) {
	res := Parse(`<n>Tom &amp; Jerry</n>`, Options{})
	if !res.Success {
		t.Fatalf("Parse failed: %v", res.Err)
	}
	if res.Root.Value != "Tom & Jerry" {
		t.Errorf("value = %q, want %q", res.Root.Value, "Tom & Jerry")
	}
}

// TestParseNamespacedNames verifies prefixed tag and attribute names.
func TestParseNamespacedNames(t *testing.T) {
	res := Parse(`<ns:a xmlns:ns="urn:x"><ns:b/></ns:a>`, Options{})
	if !res.Success {
		t.Fatalf("Parse failed: %v", res.Err)
	}
	if res.Root.Name != "ns:a" {
		t.Errorf("root name = %q, want %q", res.Root.Name, "ns:a")
	}
	if got := res.Root.Attr("xmlns:ns"); got != "urn:x" {
		t.Errorf("xmlns:ns = %q, want %q", got, "urn:x")
	}
	if len(res.Root.Children) != 1 || res.Root.Children[0].Name != "ns:b" {
		t.Errorf("child = %+v, want ns:b", res.Root.Children)
	}
}

// TestParseSelect verifies XPath subtree selection.
func TestParseSelect(t *testing.T) {
	xmlData := `<library>
	<book id="1"><title>One</title></book>
	<book id="2"><title>Two</title></book>
</library>`

	res := Parse(xmlData, Options{Select: `//book[@id="2"]`})
	if !res.Success {
		t.Fatalf("Parse failed: %v", res.Err)
	}
	if res.Root.Name != "book" || res.Root.Attr("id") != "2" {
		t.Fatalf("selected root = %s id=%s, want book id=2", res.Root.Name, res.Root.Attr("id"))
	}
	// Paths restart at the selected subtree.
	if res.Root.Path != "book" {
		t.Errorf("selected root path = %q, want %q", res.Root.Path, "book")
	}
	if res.Root.Children[0].Path != "book/title" {
		t.Errorf("child path = %q, want %q", res.Root.Children[0].Path, "book/title")
	}
}

// TestParseSelectNotFound verifies a non-matching expression fails cleanly.
func TestParseSelectNotFound(t *testing.T) {
	res := Parse(`<a><b/></a>`, Options{Select: "//missing"})
	if res.Success {
		t.Fatal("Parse should fail when the selection matches nothing")
	}
	if !errors.Is(res.Err, errors.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", res.Err)
	}
}

// TestParseSelectInvalidExpr verifies invalid XPath is rejected.
func TestParseSelectInvalidExpr(t *testing.T) {
	res := Parse(`<a/>`, Options{Select: "//book["})
	if res.Success {
		t.Fatal("Parse should fail for an invalid expression")
	}
}

// TestParseIdentical verifies two parses of one text build equal trees.
func TestParseIdentical(t *testing.T) {
	xmlData := `<r a="1"><x>v</x><x/><!--c--></r>`
	first := Parse(xmlData, Options{})
	second := Parse(xmlData, Options{})
	if !first.Success || !second.Success {
		t.Fatalf("Parse failed: %v / %v", first.Err, second.Err)
	}
	if diff := cmp.Diff(first.Root, second.Root); diff != "" {
		t.Errorf("trees differ (-first +second):\n%s", diff)
	}
}
