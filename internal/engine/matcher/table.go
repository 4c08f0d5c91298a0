package matcher

import (
	"strings"

	"github.com/agext/levenshtein"
)

// tableStrategy resolves a field from structured table grids supplied by the
// text-extraction collaborator: find a cell matching a search term, then
// read the value from the cell to its right, or the cell below when the
// match sits on the last column or the right neighbour is empty.
type tableStrategy struct {
	cfg *Config
	lp  *levenshtein.Params
}

func newTableStrategy(cfg *Config) *tableStrategy {
	return &tableStrategy{cfg: cfg, lp: levenshtein.NewParams()}
}

func (s *tableStrategy) name() string { return "table" }

func (s *tableStrategy) available(d *PreparedDoc) bool {
	return len(d.Tables()) > 0
}

func (s *tableStrategy) extract(q *query, d *PreparedDoc) (candidate, bool) {
	for _, table := range d.Tables() {
		for r, row := range table.Rows {
			for c, cell := range row {
				term, sim := s.matchCell(cell, q.node.SearchTerms)
				if term == "" {
					continue
				}
				value := s.adjacentValue(table.Rows, r, c, q)
				if value == "" {
					continue
				}
				score := 0.6 + 0.3*sim
				if score > 1 {
					score = 1
				}
				return candidate{value: value, score: score, term: term}, true
			}
		}
	}
	return candidate{}, false
}

// matchCell returns the first search term the cell matches, with the
// similarity that matched it. Exact (case-folded, trimmed) equality counts
// as 1; otherwise the Levenshtein similarity must clear TableHeaderFuzzy.
func (s *tableStrategy) matchCell(cell string, terms []string) (string, float64) {
	label := normalizeCell(cell)
	if label == "" {
		return "", 0
	}
	for _, term := range terms {
		if len(term) < 2 {
			continue
		}
		t := strings.ToLower(term)
		if label == t {
			return term, 1
		}
		if sim := levenshtein.Similarity(label, t, s.lp); sim >= s.cfg.TableHeaderFuzzy {
			return term, sim
		}
	}
	return "", 0
}

// adjacentValue reads the data cell next to a matched label cell: right
// neighbour first, then the same column one row down.
func (s *tableStrategy) adjacentValue(rows [][]string, r, c int, q *query) string {
	if c+1 < len(rows[r]) {
		if v := CleanupValue(rows[r][c+1], q.node.Name); v != "" {
			return v
		}
	}
	if r+1 < len(rows) && c < len(rows[r+1]) {
		if v := CleanupValue(rows[r+1][c], q.node.Name); v != "" {
			return v
		}
	}
	return ""
}

// normalizeCell lower-cases and strips the label punctuation commonly left
// behind by PDF table recovery.
func normalizeCell(cell string) string {
	label := strings.ToLower(strings.TrimSpace(cell))
	label = strings.Trim(label, ":.-| \t")
	return strings.Join(strings.Fields(label), " ")
}
