package matcher

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/sdsmatch/pkg/types"
)

var (
	leadingNoiseRe  = regexp.MustCompile(`^[:\-\s]+`)
	trailingNoiseRe = regexp.MustCompile(`[:\-\s]+$`)
	leadingFillerRe = regexp.MustCompile(`(?i)^(is|are|the)\s+`)
	trailingDotsRe  = regexp.MustCompile(`\.+$`)
	innerSpaceRe    = regexp.MustCompile(`\s+`)
	numberRe        = regexp.MustCompile(`[\d.,]+`)
	listSplitRe     = regexp.MustCompile(`[,;|\n]+`)
)

// nonDataWords are captures that are label plumbing rather than data.
// "none" is kept for signal-word fields, where it is a legitimate value.
var nonDataWords = map[string]struct{}{
	"not": {}, "none": {}, "n/a": {}, "na": {}, "unknown": {},
	"see": {}, "section": {}, "refer": {}, "to": {}, "as": {},
	"per": {}, "according": {}, "described": {},
}

// CleanupValue normalizes a raw capture: strips leading/trailing label
// punctuation, leading filler words and trailing dots, collapses whitespace,
// and rejects captures that are too short or are placeholder words. Returns
// "" when nothing usable remains.
func CleanupValue(raw, fieldName string) string {
	if raw == "" {
		return ""
	}
	v := leadingNoiseRe.ReplaceAllString(raw, "")
	v = trailingNoiseRe.ReplaceAllString(v, "")
	v = leadingFillerRe.ReplaceAllString(v, "")
	v = trailingDotsRe.ReplaceAllString(v, "")
	v = strings.TrimSpace(innerSpaceRe.ReplaceAllString(v, " "))
	if len(v) < 2 {
		return ""
	}
	if _, ok := nonDataWords[strings.ToLower(v)]; ok {
		if strings.EqualFold(v, "none") && strings.Contains(strings.ToLower(fieldName), "signal") {
			return v
		}
		return ""
	}
	return v
}

// ConvertValue coerces a cleaned string to the leaf kind's value space.
// Unparseable input degrades to the kind's default rather than erroring.
func ConvertValue(value string, kind types.FieldKind) interface{} {
	switch kind {
	case types.KindNumber:
		m := numberRe.FindString(value)
		if m == "" {
			return float64(0)
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil {
			return float64(0)
		}
		return f
	case types.KindBoolean:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "yes", "1", "on", "enabled":
			return true
		}
		return false
	case types.KindArray:
		return SplitListValue(value)
	default:
		return value
	}
}

// SplitListValue splits a scalar capture into list items on commas,
// semicolons, pipes and newlines, dropping empty fragments.
func SplitListValue(value string) []interface{} {
	parts := listSplitRe.Split(value, -1)
	items := make([]interface{}, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		items = append(items, p)
	}
	return items
}
