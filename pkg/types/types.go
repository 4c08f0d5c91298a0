// Package types defines the shared data model of the sdsmatch engine: the
// parsed schema tree, the document supplied by text-extraction collaborators,
// and the result tree returned to callers.
package types

import "strings"

// ---------------------------------------------------------------------------
// FieldKind enumeration
// ---------------------------------------------------------------------------

// FieldKind classifies a schema node. It is a closed tagged-union discriminant:
// exactly one of the container slices (Children, ItemSchema) is populated for
// container kinds, and neither for leaf kinds.
type FieldKind string

const (
	KindString         FieldKind = "string"
	KindNumber         FieldKind = "number"
	KindBoolean        FieldKind = "boolean"
	KindArray          FieldKind = "array"
	KindObject         FieldKind = "object"
	KindArrayOfObjects FieldKind = "array_of_objects"
)

// IsLeaf reports whether the kind carries a scalar or scalar-list value.
func (k FieldKind) IsLeaf() bool {
	switch k {
	case KindString, KindNumber, KindBoolean, KindArray:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// SchemaNode
// ---------------------------------------------------------------------------

// SchemaNode is one typed element of the parsed target-structure tree.
// Built once by the schema parser and immutable thereafter; consumed
// read-only by the matcher and mapper. Children are ordered slices, never
// maps, so every traversal is deterministic.
type SchemaNode struct {
	Name        string       `json:"name"`
	Kind        FieldKind    `json:"kind"`
	SearchTerms []string     `json:"search_terms,omitempty"`
	Priority    int          `json:"priority,omitempty"`
	Children    []*SchemaNode `json:"children,omitempty"`
	ItemSchema  []*SchemaNode `json:"item_schema,omitempty"`
}

// Child returns the direct child with the given name, or nil.
func (n *SchemaNode) Child(name string) *SchemaNode {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// IsLeaf reports whether the node resolves to a single matched value.
func (n *SchemaNode) IsLeaf() bool {
	return n != nil && n.Kind.IsLeaf()
}

// FieldCount returns the number of leaf fields in the subtree, counting
// array-of-objects item fields once.
func (n *SchemaNode) FieldCount() int {
	if n == nil {
		return 0
	}
	if n.IsLeaf() {
		return 1
	}
	total := 0
	for _, c := range n.Children {
		total += c.FieldCount()
	}
	for _, f := range n.ItemSchema {
		total += f.FieldCount()
	}
	return total
}

// JoinPath appends a child name to a dotted field path.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// ---------------------------------------------------------------------------
// Document
// ---------------------------------------------------------------------------

// Table is one structured table recovered by a text-extraction collaborator,
// row-major with raw cell strings.
type Table struct {
	Rows [][]string `json:"rows"`
}

// HeaderRow returns the first row, or nil for an empty table.
func (t Table) HeaderRow() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// Document is the already-clean input the engine matches against. The engine
// never opens files itself; providers fill this in.
type Document struct {
	Text   string  `json:"text"`
	Tables []Table `json:"tables,omitempty"`
	Source string  `json:"source,omitempty"`
}

// IsEmpty reports whether the document carries no usable content.
func (d *Document) IsEmpty() bool {
	if d == nil {
		return true
	}
	return strings.TrimSpace(d.Text) == "" && len(d.Tables) == 0
}

// ---------------------------------------------------------------------------
// Result
// ---------------------------------------------------------------------------

// Result is the extraction output tree. Its key set mirrors the schema at
// every nesting level; encoding/json serializes map keys sorted, so identical
// inputs always produce byte-identical output.
type Result = map[string]interface{}

// DefaultValue returns the zero value a leaf resolves to when no candidate
// is found: "" / 0 / false / empty list.
func DefaultValue(kind FieldKind) interface{} {
	switch kind {
	case KindNumber:
		return float64(0)
	case KindBoolean:
		return false
	case KindArray, KindArrayOfObjects:
		return []interface{}{}
	default:
		return ""
	}
}
