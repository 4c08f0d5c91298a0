package matcher

import "strings"

// windowStrategy is the last-resort fallback: a case-insensitive substring
// search for any term, taking a bounded character window after the
// occurrence and keeping the segment up to the next line break. It accepts
// anything CleanupValue lets through, so it runs only after every scored
// strategy has missed.
type windowStrategy struct {
	cfg *Config
}

func newWindowStrategy(cfg *Config) *windowStrategy {
	return &windowStrategy{cfg: cfg}
}

func (s *windowStrategy) name() string { return "window" }

func (s *windowStrategy) available(d *PreparedDoc) bool {
	return strings.TrimSpace(d.text) != ""
}

func (s *windowStrategy) extract(q *query, d *PreparedDoc) (candidate, bool) {
	for _, term := range q.node.SearchTerms {
		// Two-letter terms ("no", "id") produce far too many false windows.
		if len(term) < 3 {
			continue
		}
		idx := strings.Index(d.lowerText, strings.ToLower(term))
		if idx < 0 {
			continue
		}
		start := idx + len(term)
		end := start + s.cfg.ContextWindow
		if end > len(d.text) {
			end = len(d.text)
		}
		window := d.text[start:end]
		if nl := strings.IndexByte(window, '\n'); nl >= 0 {
			window = window[:nl]
		}
		// Drop a separator echo ("Label : value") left at the window start.
		window = strings.TrimLeft(window, ":=-| \t")
		value := CleanupValue(window, q.node.Name)
		if value == "" {
			continue
		}
		return candidate{value: value, score: 0.3, term: term}, true
	}
	return candidate{}, false
}
