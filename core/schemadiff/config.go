// Package schemadiff extracts a logical table/field schema from canonical
// XML trees and compares two extracted schemas.
//
// Extraction is driven by a declarative Config: which tags denote tables,
// which denote fields, and which attributes carry their names. The differ
// compares a fixed attribute set per field (type, size, defaultvalue) and
// reports table- and field-level changes in lexicographic key order.
//
// Both halves are pure functions over their inputs. Extraction never fails:
// nodes without a resolvable name are skipped.
package schemadiff

import "strings"

// SearchMode selects how far below a table node the field scan reaches.
type SearchMode string

const (
	// SearchChildren scans only the table node's direct children.
	SearchChildren SearchMode = "children"
	// SearchDescendants scans the table's whole subtree but stops
	// descending at nested table-tag boundaries.
	SearchDescendants SearchMode = "descendants"
)

// Config drives one extraction run. Zero-value fields fall back to the
// corresponding DefaultConfig values, so a partially populated profile
// is always usable.
type Config struct {
	// TableTags are the element names treated as table definitions.
	TableTags []string `json:"tableTags" yaml:"tableTags"`
	// FieldTags are the element names treated as field definitions.
	FieldTags []string `json:"fieldTags" yaml:"fieldTags"`
	// TableNameAttrs is the attribute preference order for table names.
	TableNameAttrs []string `json:"tableNameAttrs" yaml:"tableNameAttrs"`
	// FieldNameAttrs is the attribute preference order for field names.
	FieldNameAttrs []string `json:"fieldNameAttrs" yaml:"fieldNameAttrs"`
	// IgnoreNodes lists element names whose subtrees are skipped entirely.
	IgnoreNodes []string `json:"ignoreNodes,omitempty" yaml:"ignoreNodes,omitempty"`
	// CaseSensitiveNames keeps extracted table and field keys case exact.
	// When false, keys are lowercased so Users and users merge.
	CaseSensitiveNames bool `json:"caseSensitiveNames" yaml:"caseSensitiveNames"`
	// IgnoreNamespaces strips namespace prefixes before tag matching.
	// Unset means on; false requires prefix-exact tags.
	IgnoreNamespaces *bool `json:"ignoreNamespaces,omitempty" yaml:"ignoreNamespaces,omitempty"`
	// FieldSearchMode is children or descendants.
	FieldSearchMode SearchMode `json:"fieldSearchMode" yaml:"fieldSearchMode"`
}

// DefaultConfig returns the built-in extraction config. It recognizes the
// common table/field vocabularies and searches whole table subtrees.
func DefaultConfig() Config {
	ignoreNS := true
	return Config{
		TableTags:        []string{"table", "struct", "entity"},
		FieldTags:        []string{"field", "column", "attribute"},
		TableNameAttrs:   []string{"name", "id"},
		FieldNameAttrs:   []string{"name", "id"},
		IgnoreNamespaces: &ignoreNS,
		FieldSearchMode:  SearchDescendants,
	}
}

// withDefaults fills empty fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.TableTags) == 0 {
		c.TableTags = def.TableTags
	}
	if len(c.FieldTags) == 0 {
		c.FieldTags = def.FieldTags
	}
	if len(c.TableNameAttrs) == 0 {
		c.TableNameAttrs = def.TableNameAttrs
	}
	if len(c.FieldNameAttrs) == 0 {
		c.FieldNameAttrs = def.FieldNameAttrs
	}
	if c.IgnoreNamespaces == nil {
		c.IgnoreNamespaces = def.IgnoreNamespaces
	}
	if c.FieldSearchMode != SearchChildren && c.FieldSearchMode != SearchDescendants {
		c.FieldSearchMode = def.FieldSearchMode
	}
	return c
}

// normalizeTag lowercases a tag name and optionally strips its namespace
// prefix. Tag matching is always case-insensitive.
func (c Config) normalizeTag(name string) string {
	if c.IgnoreNamespaces == nil || *c.IgnoreNamespaces {
		if i := strings.LastIndex(name, ":"); i >= 0 {
			name = name[i+1:]
		}
	}
	return strings.ToLower(name)
}

// normalizeKey builds the map key for a table or field name.
func (c Config) normalizeKey(name string) string {
	if c.CaseSensitiveNames {
		return name
	}
	return strings.ToLower(name)
}

// tagSet builds a lookup set of normalized tag names.
func (c Config) tagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		set[c.normalizeTag(tag)] = true
	}
	return set
}
