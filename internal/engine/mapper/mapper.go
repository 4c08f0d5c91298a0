// Package mapper walks a parsed schema tree and assembles the extraction
// result: object nodes recurse, array-of-objects nodes delegate to table
// extraction, simple arrays to list extraction, and every other leaf to the
// single-field matching cascade. The output key set mirrors the schema at
// every nesting level for all inputs, including the empty document.
package mapper

import (
	"sort"

	"github.com/turtacn/sdsmatch/internal/engine/common"
	"github.com/turtacn/sdsmatch/internal/engine/matcher"
	"github.com/turtacn/sdsmatch/pkg/types"
)

// Mapper drives per-field extraction over a schema tree. Stateless apart
// from the injected matcher; safe for concurrent use.
type Mapper struct {
	matcher *matcher.Matcher
	logger  common.Logger
}

// NewMapper builds a Mapper. A nil matcher gets defaults; a nil logger is
// replaced with a no-op.
func NewMapper(m *matcher.Matcher, logger common.Logger) *Mapper {
	if m == nil {
		m = matcher.NewMatcher(nil, nil, nil, nil)
	}
	if logger == nil {
		logger = common.NewNoopLogger()
	}
	return &Mapper{matcher: m, logger: logger}
}

// Stats counts the outcome of one mapping run.
type Stats struct {
	// LeafFields is the number of leaf fields visited, counting each
	// array-of-objects field once.
	LeafFields int

	// MatchedFields is the number of leaves that resolved to a non-default
	// value.
	MatchedFields int
}

// Map extracts a result tree for schema from doc. It never fails: a missing
// value becomes the field's type default, an empty schema yields an empty
// object, and identical inputs always produce an identical tree.
func (mp *Mapper) Map(schema *types.SchemaNode, doc *types.Document) types.Result {
	result, _ := mp.MapWithStats(schema, doc)
	return result
}

// MapWithStats is Map plus match accounting for logging and metrics.
func (mp *Mapper) MapWithStats(schema *types.SchemaNode, doc *types.Document) (types.Result, *Stats) {
	stats := &Stats{}
	if schema == nil {
		return types.Result{}, stats
	}
	prepared := matcher.Prepare(doc)
	result := mp.mapObject("", schema, prepared, stats)
	return result, stats
}

// mapObject resolves the children of an object node. Children are visited
// in priority order (higher first, declaration order within a tier) so that
// high-value fields populate the matcher's memo and logs first; the output
// map carries every child regardless of visit order.
func (mp *Mapper) mapObject(path string, node *types.SchemaNode, d *matcher.PreparedDoc, stats *Stats) types.Result {
	result := types.Result{}

	ordered := make([]*types.SchemaNode, len(node.Children))
	copy(ordered, node.Children)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for _, child := range ordered {
		childPath := types.JoinPath(path, child.Name)
		result[child.Name] = mp.mapNode(childPath, child, d, stats)
	}
	return result
}

func (mp *Mapper) mapNode(path string, node *types.SchemaNode, d *matcher.PreparedDoc, stats *Stats) interface{} {
	switch node.Kind {
	case types.KindObject:
		return mp.mapObject(path, node, d, stats)

	case types.KindArrayOfObjects:
		stats.LeafFields++
		rows := mp.matcher.ExtractRows(path, node, d)
		if len(rows) == 0 {
			return []interface{}{}
		}
		stats.MatchedFields++
		out := make([]interface{}, len(rows))
		for i, row := range rows {
			out[i] = row
		}
		return out

	case types.KindArray:
		stats.LeafFields++
		items := mp.matcher.ExtractList(path, node, d)
		if len(items) > 0 {
			stats.MatchedFields++
		}
		return items

	default:
		stats.LeafFields++
		v, ok := mp.matcher.Extract(path, node, d)
		if !ok {
			return types.DefaultValue(node.Kind)
		}
		stats.MatchedFields++
		return v
	}
}
