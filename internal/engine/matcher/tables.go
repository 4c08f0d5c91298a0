package matcher

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/turtacn/sdsmatch/pkg/types"
)

// Array-of-objects extraction. Four sources are tried in order of fidelity:
// structured table grids, a detected header line in raw text, the
// identifier-row pattern (a line per ingredient anchored on a CAS-shaped
// token), and finally section segmentation with the single-field cascade run
// per field. The first source that yields rows wins; output is capped at
// MaxTableRows.

// ExtractRows extracts the item objects of an array-of-objects field. It
// returns nil when no source yields an accepted row; the mapper then
// substitutes an empty list. Every returned row carries all item fields,
// missing values filled with type defaults.
func (m *Matcher) ExtractRows(path string, node *types.SchemaNode, d *PreparedDoc) []types.Result {
	if node == nil || node.Kind != types.KindArrayOfObjects || len(node.ItemSchema) == 0 || d == nil {
		return nil
	}

	roles := classifyItemFields(node.ItemSchema)

	rows := m.rowsFromStructuredTables(node, d)
	if len(rows) == 0 {
		section := m.fieldSection(node, d)
		rows = m.rowsFromTextHeader(node, section)
		if len(rows) == 0 {
			rows = m.rowsFromIdentifierPattern(roles, node, section)
		}
		if len(rows) == 0 {
			rows = m.rowsFromSections(path, node, d)
		}
	}

	if len(rows) > m.cfg.MaxTableRows {
		rows = rows[:m.cfg.MaxTableRows]
	}
	for _, row := range rows {
		fillRowDefaults(row, node.ItemSchema)
	}
	return rows
}

// ---------------------------------------------------------------------------
// Item field roles
// ---------------------------------------------------------------------------

// itemRoles indexes the item schema by the value shape each field expects,
// used by the identifier-row fallback to assign captures positionally.
type itemRoles struct {
	nameField *types.SchemaNode
	casField  *types.SchemaNode
	ecField   *types.SchemaNode
	concField *types.SchemaNode
}

func classifyItemFields(fields []*types.SchemaNode) itemRoles {
	var roles itemRoles
	for _, f := range fields {
		lower := strings.ToLower(f.Name)
		switch {
		case roles.casField == nil && strings.Contains(lower, "cas"):
			roles.casField = f
		case roles.ecField == nil && wantsIdentifier(lower):
			roles.ecField = f
		case roles.concField == nil && wantsConcentration(lower):
			roles.concField = f
		case roles.nameField == nil && wantsName(lower):
			roles.nameField = f
		}
	}
	return roles
}

// ---------------------------------------------------------------------------
// Source 1: structured tables
// ---------------------------------------------------------------------------

// rowsFromStructuredTables adopts the first table whose header row locates
// at least HeaderAliasRatio of the item fields, then converts its data rows
// by the resulting column mapping.
func (m *Matcher) rowsFromStructuredTables(node *types.SchemaNode, d *PreparedDoc) []types.Result {
	lp := levenshtein.NewParams()
	for _, table := range d.Tables() {
		header := table.HeaderRow()
		if len(header) == 0 || len(table.Rows) < 2 {
			continue
		}
		columns := m.mapColumns(header, node.ItemSchema, lp)
		if len(columns) == 0 {
			continue
		}
		ratio := float64(len(columns)) / float64(len(node.ItemSchema))
		if ratio < m.cfg.HeaderAliasRatio {
			continue
		}

		var rows []types.Result
		for _, dataRow := range table.Rows[1:] {
			row := types.Result{}
			populated := 0
			for field, col := range columns {
				if col >= len(dataRow) {
					continue
				}
				value := CleanupValue(dataRow[col], field.Name)
				if value == "" {
					continue
				}
				row[field.Name] = ConvertValue(value, field.Kind)
				populated++
			}
			if populated >= minPopulatedFields(node.ItemSchema) {
				rows = append(rows, row)
			}
			if len(rows) >= m.cfg.MaxTableRows {
				break
			}
		}
		if len(rows) > 0 {
			return rows
		}
	}
	return nil
}

// mapColumns matches header cells against item field search terms and
// returns the column index per located field. Each column serves one field.
func (m *Matcher) mapColumns(header []string, fields []*types.SchemaNode, lp *levenshtein.Params) map[*types.SchemaNode]int {
	columns := make(map[*types.SchemaNode]int)
	used := make(map[int]bool)
	for _, field := range fields {
		for col, cell := range header {
			if used[col] {
				continue
			}
			if headerCellMatches(cell, field.SearchTerms, m.cfg.TableHeaderFuzzy, lp) {
				columns[field] = col
				used[col] = true
				break
			}
		}
	}
	return columns
}

func headerCellMatches(cell string, terms []string, floor float64, lp *levenshtein.Params) bool {
	label := normalizeCell(cell)
	if label == "" {
		return false
	}
	for _, term := range terms {
		if len(term) < 2 {
			continue
		}
		t := strings.ToLower(term)
		if label == t || strings.Contains(label, t) {
			return true
		}
		if levenshtein.Similarity(label, t, lp) >= floor {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Source 2: header line in raw text
// ---------------------------------------------------------------------------

// headerWindow bounds how many lines after a detected header line are
// scanned for data rows.
const headerWindow = 40

var textDelimiters = []string{"\t", "|", ";"}

// rowsFromTextHeader locates a text line whose tokens cover enough of the
// item fields to act as a column header, then parses the following lines by
// a consistent delimiter, in header column order.
func (m *Matcher) rowsFromTextHeader(node *types.SchemaNode, lines []string) []types.Result {
	headerIdx, order := m.findHeaderLine(node, lines)
	if headerIdx < 0 {
		return nil
	}

	delim := consistentDelimiter(lines, headerIdx, len(order))
	if delim == "" {
		return nil
	}

	var rows []types.Result
	end := headerIdx + 1 + headerWindow
	if end > len(lines) {
		end = len(lines)
	}
	for _, line := range lines[headerIdx+1 : end] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isTableNoiseLine(trimmed) {
			continue
		}
		cells := splitAndTrim(trimmed, delim)
		row := types.Result{}
		populated := 0
		for i, field := range order {
			if i >= len(cells) {
				break
			}
			value := CleanupValue(cells[i], field.Name)
			if value == "" {
				continue
			}
			row[field.Name] = ConvertValue(value, field.Kind)
			populated++
		}
		if populated >= minPopulatedFields(node.ItemSchema) {
			rows = append(rows, row)
		}
		if len(rows) >= m.cfg.MaxTableRows {
			break
		}
	}
	return rows
}

// findHeaderLine scans for a line matching at least HeaderAliasRatio of the
// item fields and returns its index plus the fields in the left-to-right
// order their terms occur on the line.
func (m *Matcher) findHeaderLine(node *types.SchemaNode, lines []string) (int, []*types.SchemaNode) {
	for i, line := range lines {
		lower := strings.ToLower(line)
		type hit struct {
			field *types.SchemaNode
			pos   int
		}
		var hits []hit
		for _, field := range node.ItemSchema {
			pos := -1
			for _, term := range field.SearchTerms {
				if len(term) < 2 {
					continue
				}
				if p := strings.Index(lower, strings.ToLower(term)); p >= 0 && (pos < 0 || p < pos) {
					pos = p
				}
			}
			if pos >= 0 {
				hits = append(hits, hit{field, pos})
			}
		}
		ratio := float64(len(hits)) / float64(len(node.ItemSchema))
		if ratio < m.cfg.HeaderAliasRatio || len(hits) < 2 {
			continue
		}
		// Order fields by where their term appears on the header line.
		for a := 1; a < len(hits); a++ {
			for b := a; b > 0 && hits[b].pos < hits[b-1].pos; b-- {
				hits[b], hits[b-1] = hits[b-1], hits[b]
			}
		}
		order := make([]*types.SchemaNode, len(hits))
		for j, h := range hits {
			order[j] = h.field
		}
		return i, order
	}
	return -1, nil
}

// consistentDelimiter returns the delimiter present in the header line and
// in at least one of the following data lines, or "" when none qualifies.
func consistentDelimiter(lines []string, headerIdx, columns int) string {
	header := lines[headerIdx]
	for _, delim := range textDelimiters {
		if strings.Count(header, delim) < columns-1 {
			continue
		}
		end := headerIdx + 1 + headerWindow
		if end > len(lines) {
			end = len(lines)
		}
		for _, line := range lines[headerIdx+1 : end] {
			if strings.Count(line, delim) >= columns-1 {
				return delim
			}
		}
	}
	return ""
}

func splitAndTrim(line, delim string) []string {
	parts := strings.Split(line, delim)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ---------------------------------------------------------------------------
// Source 3: identifier-row pattern
// ---------------------------------------------------------------------------

var (
	concentrationInLineRe = regexp.MustCompile(`\d+(?:\.\d+)?\s*[-–]\s*\d+(?:\.\d+)?\s*%?|\d+(?:\.\d+)?\s*%`)
	tableNoiseLineRe      = regexp.MustCompile(`(?i)^\s*(component|components|substance|chemical name|cas[-\s]?no\.?|ec[-\s]?no\.?|weight\s*%?|classification|reach|registration|range|concentration|\(.*\))\s*$`)
)

func isTableNoiseLine(line string) bool {
	return tableNoiseLineRe.MatchString(line)
}

// rowsFromIdentifierPattern treats every line containing a CAS-shaped token
// as an ingredient row: the text before the token is the substance name, the
// token is the identifier, and the first concentration mention after it is
// the amount. A row is kept only when at least two item fields populate.
func (m *Matcher) rowsFromIdentifierPattern(roles itemRoles, node *types.SchemaNode, lines []string) []types.Result {
	if roles.casField == nil && roles.ecField == nil {
		return nil
	}

	var rows []types.Result
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isTableNoiseLine(trimmed) {
			continue
		}
		loc := casShapeRe.FindStringIndex(trimmed)
		if loc == nil {
			continue
		}
		id := trimmed[loc[0]:loc[1]]
		before := strings.TrimSpace(trimmed[:loc[0]])
		after := trimmed[loc[1]:]

		row := types.Result{}
		populated := 0

		if roles.casField != nil {
			row[roles.casField.Name] = id
			populated++
		} else if roles.ecField != nil {
			row[roles.ecField.Name] = id
			populated++
		}
		if roles.ecField != nil && roles.casField != nil {
			if ec := ecShapeRe.FindString(after); ec != "" {
				row[roles.ecField.Name] = ec
				populated++
			}
		}
		if roles.nameField != nil && before != "" {
			if name := CleanupValue(before, roles.nameField.Name); name != "" {
				row[roles.nameField.Name] = name
				populated++
			}
		}
		if roles.concField != nil {
			if conc := concentrationInLineRe.FindString(after); conc != "" {
				row[roles.concField.Name] = ConvertValue(strings.TrimSpace(conc), roles.concField.Kind)
				populated++
			}
		}

		if populated >= minPopulatedFields(node.ItemSchema) {
			rows = append(rows, row)
		}
		if len(rows) >= m.cfg.MaxTableRows {
			break
		}
	}
	return rows
}

// ---------------------------------------------------------------------------
// Source 4: section segmentation + single-field cascade
// ---------------------------------------------------------------------------

// sectionConfidenceFloor is the minimum average per-field confidence for a
// section to be accepted as a row.
const sectionConfidenceFloor = 0.5

// rowsFromSections splits the text into runs of non-blank lines mentioning
// any item field alias, then runs the single-field cascade per field per
// section. A section becomes a row when at least two fields populate and
// their average confidence clears the floor.
func (m *Matcher) rowsFromSections(path string, node *types.SchemaNode, d *PreparedDoc) []types.Result {
	sections := segmentSections(d.lines, node.ItemSchema)
	var rows []types.Result

	for i, section := range sections {
		sub := Prepare(&types.Document{Text: strings.Join(section, "\n")})
		row := types.Result{}
		populated := 0
		confidence := 0.0

		for _, field := range node.ItemSchema {
			if !field.IsLeaf() {
				continue
			}
			leafPath := types.JoinPath(path, field.Name) + "#" + strconv.Itoa(i)
			v, ok := m.Extract(leafPath, field, sub)
			if !ok {
				continue
			}
			row[field.Name] = v
			populated++
			confidence += valueConfidence(v, field, sub.lowerText)
		}

		if populated >= 2 && confidence/float64(populated) >= sectionConfidenceFloor {
			rows = append(rows, row)
		}
		if len(rows) >= m.cfg.MaxTableRows {
			break
		}
	}
	return rows
}

// segmentSections groups consecutive non-blank lines that mention any item
// field alias into candidate sections.
func segmentSections(lines []string, fields []*types.SchemaNode) [][]string {
	relevant := func(line string) bool {
		lower := strings.ToLower(line)
		for _, f := range fields {
			for _, term := range f.SearchTerms {
				if len(term) >= 2 && strings.Contains(lower, strings.ToLower(term)) {
					return true
				}
			}
		}
		return false
	}

	var sections [][]string
	var current []string
	relevantRun := false
	flush := func() {
		if relevantRun && len(current) > 0 {
			sections = append(sections, current)
		}
		current = nil
		relevantRun = false
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
		if relevant(line) {
			relevantRun = true
		}
	}
	flush()
	return sections
}

// valueConfidence scores one extracted value for section acceptance: base
// 0.5, plus bonuses for shape agreement and adequate length, minus noise.
func valueConfidence(v interface{}, field *types.SchemaNode, sectionLower string) float64 {
	conf := 0.5
	s, isString := v.(string)
	lower := strings.ToLower(s)
	fieldLower := strings.ToLower(field.Name)

	switch {
	case wantsIdentifier(fieldLower) && isString && identifierShapeRe.MatchString(s):
		conf += 0.3
	case wantsConcentration(fieldLower) && isString && concentrationShapeRe.MatchString(s):
		conf += 0.3
	case field.Kind == types.KindNumber:
		conf += 0.3
	}
	if isString && len(s) >= 3 {
		conf += 0.2
	}
	if isString && containsAny(lower, []string{"section", "page", "see ", "refer"}) {
		conf -= 0.3
	}
	for _, term := range field.SearchTerms {
		if len(term) >= 2 && strings.Contains(sectionLower, strings.ToLower(term)) {
			conf += 0.2
			break
		}
	}
	if conf > 1 {
		conf = 1
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// fieldSection returns the lines of the document region the array field's
// terms point at, or all lines when no section heading is found. Section
// boundaries are numbered headings ("3. Composition") and all-caps headers.
func (m *Matcher) fieldSection(node *types.SchemaNode, d *PreparedDoc) []string {
	start := -1
	for i, lower := range d.lowerLines {
		for _, term := range node.SearchTerms {
			if len(term) >= 3 && strings.Contains(lower, strings.ToLower(term)) {
				start = i
				break
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return d.lines
	}

	end := len(d.lines)
	for i := start + 1; i < len(d.lines); i++ {
		if sectionHeadingRe.MatchString(d.lines[i]) {
			end = i
			break
		}
	}
	return d.lines[start:end]
}

var sectionHeadingRe = regexp.MustCompile(`^\s*(?:\d+\.|[A-Z][A-Z\s]{4,}:)\s*\S*`)

// minPopulatedFields is the acceptance bar per row: two populated fields,
// or one when the item schema itself has a single field.
func minPopulatedFields(fields []*types.SchemaNode) int {
	if len(fields) < 2 {
		return 1
	}
	return 2
}

// fillRowDefaults adds the type default for every item field a row is
// missing, preserving the shape guarantee at row level.
func fillRowDefaults(row types.Result, fields []*types.SchemaNode) {
	for _, f := range fields {
		if _, ok := row[f.Name]; !ok {
			row[f.Name] = types.DefaultValue(f.Kind)
		}
	}
}
