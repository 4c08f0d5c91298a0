package matcher

import (
	"regexp"
	"strings"

	"github.com/turtacn/sdsmatch/pkg/types"
)

// Simple-array extraction: bullets, dashes, numbered and lettered lists in
// the document region the field's terms point at, with special handling for
// hazard-statement fields where the H-code lines themselves are the items.

// Numbered items use ")" only; "1." lines are SDS section headings and are
// skipped by the heading guard below.
var listItemRes = []*regexp.Regexp{
	regexp.MustCompile(`^[•▪◦*]\s*(.+)$`),
	regexp.MustCompile(`^-\s+(.+)$`),
	regexp.MustCompile(`^\d+\)\s+(.+)$`),
	regexp.MustCompile(`^[a-z][.)]\s+(.+)$`),
}

var (
	hazardLineRe        = regexp.MustCompile(`(?i)^(H\d{3}[^\n\r]*|Not\s+classified[^\n\r]*|May\s+cause[^\n\r]*|Causes[^\n\r]*|Harmful[^\n\r]*|Toxic[^\n\r]*|Fatal[^\n\r]*)$`)
	notClassifiedRe     = regexp.MustCompile(`(?i)not\s+classified`)
	maxListItemsPerField = 50
)

// ExtractList extracts the items of a simple array field: list-pattern
// recognition over the field's section first, then the scalar cascade split
// on separators as the fallback. Returns an empty slice, never nil.
func (m *Matcher) ExtractList(path string, node *types.SchemaNode, d *PreparedDoc) []interface{} {
	if node == nil || node.Kind != types.KindArray || d == nil {
		return []interface{}{}
	}

	section := m.fieldSection(node, d)
	items := collectListItems(section, strings.Contains(strings.ToLower(node.Name), "hazard"))
	if len(items) == 0 {
		// Scalar fallback: a single matched line split into fragments.
		if v, ok := m.Extract(path, node, d); ok {
			if list, isList := v.([]interface{}); isList {
				return list
			}
		}
		return []interface{}{}
	}

	out := make([]interface{}, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
		if len(out) >= maxListItemsPerField {
			break
		}
	}
	return out
}

// collectListItems gathers list-marker lines in document order. For hazard
// fields, statement-shaped lines count as items even without a marker, and
// a bare "Not classified" section yields that as the single item.
func collectListItems(lines []string, hazardField bool) []string {
	var items []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || sectionHeadingRe.MatchString(trimmed) {
			continue
		}
		if hazardField {
			if h := hazardLineRe.FindString(trimmed); h != "" {
				items = append(items, h)
				continue
			}
		}
		for _, re := range listItemRes {
			if g := re.FindStringSubmatch(trimmed); g != nil {
				items = append(items, g[1])
				break
			}
		}
	}
	if len(items) == 0 && hazardField {
		for _, line := range lines {
			if notClassifiedRe.MatchString(line) {
				return []string{"Not classified"}
			}
		}
	}
	return items
}
