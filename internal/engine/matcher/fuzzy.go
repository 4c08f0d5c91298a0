package matcher

import (
	"regexp"
	"strings"

	"github.com/agext/levenshtein"
)

// fuzzyStrategy handles labels the pattern strategy cannot reach: OCR noise,
// translated or abbreviated headings. Each line is split into a label and a
// trailing segment on the first separator; the label is compared to every
// search term by normalized Levenshtein similarity and the best line above
// the similarity floor contributes its trailing segment.
type fuzzyStrategy struct {
	cfg *Config
	lp  *levenshtein.Params
}

func newFuzzyStrategy(cfg *Config) *fuzzyStrategy {
	return &fuzzyStrategy{cfg: cfg, lp: levenshtein.NewParams()}
}

func (s *fuzzyStrategy) name() string { return "fuzzy" }

func (s *fuzzyStrategy) available(d *PreparedDoc) bool {
	return strings.TrimSpace(d.text) != ""
}

// lineSplitRe separates "label <sep> value" lines. The dash requires
// surrounding space so hyphenated labels and CAS numbers stay intact.
var lineSplitRe = regexp.MustCompile(`^(.{2,60}?)(?:\s*[:=|\t]\s*|\s+-\s+)(.+)$`)

func (s *fuzzyStrategy) extract(q *query, d *PreparedDoc) (candidate, bool) {
	var best candidate
	found := false

	for _, line := range d.lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		parts := lineSplitRe.FindStringSubmatch(trimmed)
		if parts == nil {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(parts[1]))
		trailing := parts[2]

		for _, term := range q.node.SearchTerms {
			if len(term) < 2 {
				continue
			}
			sim := levenshtein.Similarity(label, strings.ToLower(term), s.lp)
			if sim < s.cfg.FuzzyMinRatio || sim <= best.score {
				continue
			}
			value := CleanupValue(trailing, q.node.Name)
			if value == "" {
				continue
			}
			best = candidate{value: value, score: sim, term: term}
			found = true
		}
		if found && best.score >= 0.99 {
			break
		}
	}
	return best, found
}
