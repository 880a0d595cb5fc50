package schemadiff

import "sort"

// ChangeType classifies a schema difference.
type ChangeType string

const (
	// Added means the table or field exists only in the new schema.
	Added ChangeType = "added"
	// Removed means the table or field exists only in the old schema.
	Removed ChangeType = "removed"
	// Modified means the entity exists on both sides with differences.
	Modified ChangeType = "modified"
	// Unchanged means the entity exists on both sides without differences.
	Unchanged ChangeType = "unchanged"
)

// ItemKind separates table-level from field-level items.
type ItemKind string

const (
	KindTable ItemKind = "table"
	KindField ItemKind = "field"
)

// AttrChange is one field attribute difference.
type AttrChange struct {
	Name     string     `json:"name"`
	Type     ChangeType `json:"type"`
	OldValue string     `json:"oldValue,omitempty"`
	NewValue string     `json:"newValue,omitempty"`
}

// Item is one table- or field-level change. Field items carry the parent
// table name; modified fields list their attribute changes.
type Item struct {
	Kind        ItemKind     `json:"kind"`
	Table       string       `json:"table"`
	Field       string       `json:"field,omitempty"`
	Type        ChangeType   `json:"type"`
	AttrChanges []AttrChange `json:"attrChanges,omitempty"`
}

// Stats aggregates item counts by kind and change type.
type Stats struct {
	TableAdded     int `json:"tableAdded"`
	TableRemoved   int `json:"tableRemoved"`
	TableModified  int `json:"tableModified"`
	TableUnchanged int `json:"tableUnchanged"`
	FieldAdded     int `json:"fieldAdded"`
	FieldRemoved   int `json:"fieldRemoved"`
	FieldModified  int `json:"fieldModified"`
	FieldUnchanged int `json:"fieldUnchanged"`
}

// Changed reports whether any table or field differs.
func (s Stats) Changed() bool {
	return s.TableAdded > 0 || s.TableRemoved > 0 || s.TableModified > 0 ||
		s.FieldAdded > 0 || s.FieldRemoved > 0 || s.FieldModified > 0
}

// Result is a complete schema comparison.
type Result struct {
	Items []Item `json:"items"`
	Stats Stats  `json:"stats"`
}

// comparedAttrs is the fixed attribute set checked per field, in report
// order.
var comparedAttrs = []struct {
	name string
	get  func(FieldDef) string
}{
	{"type", func(f FieldDef) string { return f.Type }},
	{"size", func(f FieldDef) string { return f.Size }},
	{"defaultvalue", func(f FieldDef) string { return f.Default }},
}

// DiffSchemas compares two extracted schemas. Items are ordered
// lexicographically by table key then field key, with each table item
// preceding its field items. Every table and field in either schema
// appears exactly once, unchanged ones included.
func DiffSchemas(oldTables, newTables map[string]TableDef) Result {
	var res Result
	for _, key := range unionTableKeys(oldTables, newTables) {
		oldTbl, inOld := oldTables[key]
		newTbl, inNew := newTables[key]
		switch {
		case inOld && inNew:
			res.appendTablePair(oldTbl, newTbl)
		case inOld:
			res.appendTableOnly(oldTbl, Removed)
		default:
			res.appendTableOnly(newTbl, Added)
		}
	}
	return res
}

// appendTableOnly emits a one-sided table with one item per field.
func (r *Result) appendTableOnly(tbl TableDef, change ChangeType) {
	r.Items = append(r.Items, Item{Kind: KindTable, Table: tbl.Name, Type: change})
	r.tallyTable(change)
	for _, fk := range sortedFieldKeys(tbl.Fields) {
		r.Items = append(r.Items, Item{
			Kind:  KindField,
			Table: tbl.Name,
			Field: tbl.Fields[fk].Name,
			Type:  change,
		})
		r.tallyField(change)
	}
}

// appendTablePair diffs the field-key union of a table present on both
// sides. The table itself counts as modified when any field differs.
func (r *Result) appendTablePair(oldTbl, newTbl TableDef) {
	var fieldItems []Item
	for _, fk := range unionFieldKeys(oldTbl.Fields, newTbl.Fields) {
		oldField, inOld := oldTbl.Fields[fk]
		newField, inNew := newTbl.Fields[fk]
		switch {
		case inOld && inNew:
			changes := diffField(oldField, newField)
			change := Unchanged
			if len(changes) > 0 {
				change = Modified
			}
			fieldItems = append(fieldItems, Item{
				Kind:        KindField,
				Table:       newTbl.Name,
				Field:       newField.Name,
				Type:        change,
				AttrChanges: changes,
			})
		case inOld:
			fieldItems = append(fieldItems, Item{
				Kind:  KindField,
				Table: newTbl.Name,
				Field: oldField.Name,
				Type:  Removed,
			})
		default:
			fieldItems = append(fieldItems, Item{
				Kind:  KindField,
				Table: newTbl.Name,
				Field: newField.Name,
				Type:  Added,
			})
		}
	}

	tableChange := Unchanged
	for _, item := range fieldItems {
		if item.Type != Unchanged {
			tableChange = Modified
			break
		}
	}

	r.Items = append(r.Items, Item{Kind: KindTable, Table: newTbl.Name, Type: tableChange})
	r.tallyTable(tableChange)
	for _, item := range fieldItems {
		r.Items = append(r.Items, item)
		r.tallyField(item.Type)
	}
}

// diffField compares the fixed attribute set of a matched field pair.
func diffField(oldField, newField FieldDef) []AttrChange {
	var changes []AttrChange
	for _, attr := range comparedAttrs {
		oldVal, newVal := attr.get(oldField), attr.get(newField)
		switch {
		case oldVal == newVal:
		case oldVal == "":
			changes = append(changes, AttrChange{Name: attr.name, Type: Added, NewValue: newVal})
		case newVal == "":
			changes = append(changes, AttrChange{Name: attr.name, Type: Removed, OldValue: oldVal})
		default:
			changes = append(changes, AttrChange{Name: attr.name, Type: Modified, OldValue: oldVal, NewValue: newVal})
		}
	}
	return changes
}

func (r *Result) tallyTable(change ChangeType) {
	switch change {
	case Added:
		r.Stats.TableAdded++
	case Removed:
		r.Stats.TableRemoved++
	case Modified:
		r.Stats.TableModified++
	case Unchanged:
		r.Stats.TableUnchanged++
	}
}

func (r *Result) tallyField(change ChangeType) {
	switch change {
	case Added:
		r.Stats.FieldAdded++
	case Removed:
		r.Stats.FieldRemoved++
	case Modified:
		r.Stats.FieldModified++
	case Unchanged:
		r.Stats.FieldUnchanged++
	}
}

func unionTableKeys(a, b map[string]TableDef) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func unionFieldKeys(a, b map[string]FieldDef) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func sortedFieldKeys(fields map[string]FieldDef) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
