package schemadiff

import (
	"sort"
	"strings"

	"github.com/xmldelta/xmldelta/core/xmltree"
)

// FieldDef is one extracted field: its display name plus the fixed
// attribute set the differ compares.
type FieldDef struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Size    string `json:"size,omitempty"`
	Default string `json:"default,omitempty"`
}

// TableDef is one extracted table. Fields is keyed by normalized field key;
// Name keeps the casing of the table's first occurrence in the document.
type TableDef struct {
	Name   string              `json:"name"`
	Fields map[string]FieldDef `json:"fields"`
}

// Extract walks the tree pre-order and returns every resolvable table,
// keyed by normalized table key.
//
// A table tag without a resolvable name is skipped, as is a field tag
// without one. When the same table name recurs the field sets merge and
// earlier field definitions win. Ignored tags prune their whole subtree.
func Extract(root *xmltree.Node, cfg Config) map[string]TableDef {
	cfg = cfg.withDefaults()
	tables := make(map[string]TableDef)
	if root == nil {
		return tables
	}

	tableTags := cfg.tagSet(cfg.TableTags)
	fieldTags := cfg.tagSet(cfg.FieldTags)
	ignored := cfg.tagSet(cfg.IgnoreNodes)

	stack := []*xmltree.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		tag := cfg.normalizeTag(node.Name)
		if ignored[tag] {
			continue
		}
		if tableTags[tag] {
			if name := resolveName(node, cfg.TableNameAttrs); name != "" {
				mergeTable(tables, cfg, name, collectFields(node, cfg, tableTags, fieldTags, ignored))
			}
		}
		// Push children in reverse so the walk stays pre-order. Nested
		// tables are picked up here, not by the field scan.
		children := node.Elements()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return tables
}

// collectFields gathers the field definitions under one table node in
// document order. In children mode only direct children are considered;
// in descendants mode the scan covers the subtree but never crosses into
// a nested table.
func collectFields(table *xmltree.Node, cfg Config, tableTags, fieldTags, ignored map[string]bool) []FieldDef {
	var fields []FieldDef

	children := table.Elements()
	stack := make([]*xmltree.Node, 0, len(children))
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, children[i])
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		tag := cfg.normalizeTag(node.Name)
		if ignored[tag] || tableTags[tag] {
			continue
		}
		if fieldTags[tag] {
			if name := resolveName(node, cfg.FieldNameAttrs); name != "" {
				fields = append(fields, FieldDef{
					Name:    name,
					Type:    lookupAttr(node, "type"),
					Size:    lookupAttr(node, "size"),
					Default: lookupAttr(node, "defaultvalue"),
				})
			}
		}
		if cfg.FieldSearchMode == SearchChildren {
			continue
		}
		elems := node.Elements()
		for i := len(elems) - 1; i >= 0; i-- {
			stack = append(stack, elems[i])
		}
	}
	return fields
}

// mergeTable folds one table occurrence into the result map. Existing
// field definitions are never overwritten.
func mergeTable(tables map[string]TableDef, cfg Config, name string, fields []FieldDef) {
	key := cfg.normalizeKey(name)
	tbl, ok := tables[key]
	if !ok {
		tbl = TableDef{Name: name, Fields: make(map[string]FieldDef, len(fields))}
	}
	for _, f := range fields {
		fk := cfg.normalizeKey(f.Name)
		if _, exists := tbl.Fields[fk]; !exists {
			tbl.Fields[fk] = f
		}
	}
	tables[key] = tbl
}

// resolveName returns the node's name per the attribute preference list:
// one exact pass over the whole list, then a case-insensitive pass.
// Empty attribute values never resolve.
func resolveName(node *xmltree.Node, attrs []string) string {
	for _, attr := range attrs {
		if v := node.Attributes[attr]; v != "" {
			return v
		}
	}
	keys := sortedAttrKeys(node)
	for _, attr := range attrs {
		for _, k := range keys {
			if strings.EqualFold(k, attr) {
				if v := node.Attributes[k]; v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// lookupAttr reads one attribute, exact match first, then the first
// case-insensitive match over sorted attribute names.
func lookupAttr(node *xmltree.Node, name string) string {
	if v := node.Attributes[name]; v != "" {
		return v
	}
	for _, k := range sortedAttrKeys(node) {
		if strings.EqualFold(k, name) {
			return node.Attributes[k]
		}
	}
	return ""
}

func sortedAttrKeys(node *xmltree.Node) []string {
	keys := make([]string, 0, len(node.Attributes))
	for k := range node.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
