package matcher

import (
	"regexp"
	"strings"
	"sync"
)

// patternForm is one regular-expression template tried per search term, from
// most to least explicit. The base score rewards explicit label/value
// separators; bonuses and penalties adjust from there.
type patternForm struct {
	name   string
	base   float64
	expand func(quoted string) string
}

// patternForms are ordered most-specific first. The colon form is the
// classic "Label: value" SDS layout; the line form covers "Label value";
// the next-line form covers stacked label/value pairs; the cell form covers
// pipe- or tab-separated pseudo tables embedded in plain text.
var patternForms = []patternForm{
	{"colon", 0.5, func(q string) string {
		return `(?im)\b` + q + `\s*[:=]\s*([^\n\r]+)`
	}},
	{"line", 0.4, func(q string) string {
		return `(?im)\b` + q + `\b[ \t]+([^\n\r]+)`
	}},
	{"nextline", 0.4, func(q string) string {
		return `(?im)^[ \t]*` + q + `[ \t]*\r?\n[ \t]*([^\n\r]+)`
	}},
	{"cell", 0.35, func(q string) string {
		return `(?im)\b` + q + `\s*[|\t]\s*([^\n\r|\t]+)`
	}},
}

// patternStrategy searches the full text with label/value regex forms built
// from the field's search terms and scores every capture with signal rules.
type patternStrategy struct {
	cfg *Config

	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

func newPatternStrategy(cfg *Config) *patternStrategy {
	return &patternStrategy{cfg: cfg, cache: make(map[string]*regexp.Regexp)}
}

func (s *patternStrategy) name() string { return "pattern" }

func (s *patternStrategy) available(d *PreparedDoc) bool {
	return strings.TrimSpace(d.text) != ""
}

func (s *patternStrategy) compile(expr string) *regexp.Regexp {
	s.mu.Lock()
	defer s.mu.Unlock()
	if re, ok := s.cache[expr]; ok {
		return re
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		// Quoted terms cannot produce an invalid expression; guard anyway.
		return nil
	}
	s.cache[expr] = re
	return re
}

// extract tries every term against every form and keeps the best-scoring
// accepted candidate. Ties keep the earlier find, so term order (most
// specific first) decides between equal candidates.
func (s *patternStrategy) extract(q *query, d *PreparedDoc) (candidate, bool) {
	var best candidate
	found := false

	for _, term := range q.node.SearchTerms {
		if len(term) < 2 {
			continue
		}
		quoted := regexp.QuoteMeta(term)
		for _, form := range patternForms {
			re := s.compile(form.expand(quoted))
			if re == nil {
				continue
			}
			loc := re.FindStringSubmatchIndex(d.text)
			if loc == nil || loc[2] < 0 {
				continue
			}
			raw := d.text[loc[2]:loc[3]]
			value := CleanupValue(raw, q.node.Name)
			if value == "" {
				continue
			}
			line := lineAround(d.text, loc[0])
			score := s.scoreCandidate(q, form, value, line)
			if score > s.cfg.PatternAcceptScore && score > best.score {
				best = candidate{value: value, score: score, term: term}
				found = true
			}
		}
		// A near-perfect hit will not be beaten by a later, less specific
		// term; stop early to keep large schemas cheap.
		if found && best.score >= 0.9 {
			break
		}
	}
	return best, found
}

// scoreCandidate rates a capture in [0, 1]. The form's base score encodes
// how explicit the label/value separator was; bonuses reward captures shaped
// like the field-class expects, penalties catch captures that are labels or
// headers rather than data.
func (s *patternStrategy) scoreCandidate(q *query, form patternForm, value, line string) float64 {
	score := form.base
	lowerValue := strings.ToLower(value)
	lowerLine := strings.ToLower(line)

	if hasDomainKeyword(lowerLine) {
		score += 0.1
	}
	if l := len(value); l >= 2 && l <= 80 {
		score += 0.2
	}
	if wantsIdentifier(q.nameLower) && identifierShapeRe.MatchString(value) {
		score += 0.3
	}
	if wantsName(q.nameLower) {
		bonus := float64(len(value)) / 100
		if bonus > 0.2 {
			bonus = 0.2
		}
		score += bonus
		if containsChemicalRoot(lowerValue) {
			score += 0.1
		}
	}
	if wantsConcentration(q.nameLower) && concentrationShapeRe.MatchString(value) {
		score += 0.2
	}

	if isHeaderTerm(lowerValue) {
		score -= 0.4
	}
	if startsWithLabelWord(lowerValue) {
		score -= 0.2
	}
	for w := range labelWords {
		if w == "name" || w == "number" {
			continue // too common inside legitimate values
		}
		if strings.Contains(lowerLine, w) {
			score -= 0.2
			break
		}
	}
	if strings.HasSuffix(value, ":") {
		score -= 0.3
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// concentrationShapeRe matches "5 - 10", "5-10 %", "<= 5%" style captures.
var concentrationShapeRe = regexp.MustCompile(`^[<>≤≥=]*\s*\d+(?:\.\d+)?(?:\s*[-–]\s*\d+(?:\.\d+)?)?\s*%?$`)

// lineAround returns the full text line containing byte offset pos.
func lineAround(text string, pos int) string {
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	end := strings.IndexByte(text[pos:], '\n')
	if end < 0 {
		return text[start:]
	}
	return text[start : pos+end]
}
