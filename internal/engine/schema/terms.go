package schema

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	camelBoundaryRe = regexp.MustCompile(`([a-z])([A-Z])`)
	titleCaser      = cases.Title(language.English)
)

// semanticAlternatives maps field-name fragments to domain synonyms. Order
// matters: expansions are appended in table order so term generation is
// deterministic. A fragment applies when it contains the lower-cased field
// name or the field name contains it.
var semanticAlternatives = []struct {
	key  string
	alts []string
}{
	{"productname", []string{"product name", "product", "name", "title", "product title", "product identifier", "substance name", "chemical name", "material name"}},
	{"name", []string{"product name", "product", "title", "identifier", "designation", "label", "trade name", "commercial name"}},
	{"title", []string{"name", "heading", "label"}},
	{"manufacturer", []string{"supplier", "company", "producer", "vendor", "distributor"}},
	{"supplier", []string{"manufacturer", "producer", "vendor", "company"}},
	{"version", []string{"revision", "ver", "version number", "rev", "release", "edition"}},
	{"revision", []string{"version", "ver", "update", "amendment"}},

	{"cas", []string{"cas number", "cas no", "cas-no", "cas registry number", "cas reg", "cas registry", "chemical abstracts"}},
	{"component", []string{"substance", "ingredient", "chemical", "material", "compound", "constituent"}},
	{"substance", []string{"component", "ingredient", "chemical", "material", "compound"}},
	{"ingredient", []string{"component", "substance", "chemical", "constituent"}},
	{"chemical", []string{"substance", "component", "ingredient", "compound"}},
	{"reach_registration_number", []string{"reach no", "reach number", "reach reg", "ec number"}},
	{"reach", []string{"reach registration", "reach number", "reach reg", "registration number", "reg no"}},
	{"ec", []string{"ec number", "ec no", "einecs", "elincs", "european community"}},

	{"hazard", []string{"danger", "warning", "safety", "risk", "caution"}},
	{"signalword", []string{"signal word", "signal", "warning word", "danger word"}},
	{"hazardstatements", []string{"hazard statements", "h-statements", "h statements", "dangers", "h codes", "danger statements"}},

	{"percentage", []string{"percent", "%", "concentration", "weight", "content", "w/w", "mass"}},
	{"percent", []string{"percentage", "%", "concentration", "weight", "content"}},
	{"weight", []string{"mass", "amount", "quantity", "percentage", "%"}},
	{"concentration", []string{"content", "percentage", "amount", "%", "percent"}},

	{"code", []string{"number", "id", "identifier", "reference", "ref"}},
	{"number", []string{"no", "num", "code"}},
	{"classification", []string{"class", "category", "type", "group"}},
	{"category", []string{"classification", "class", "type", "group"}},
}

// GenerateSearchTerms produces the label variants the matcher will look for
// in document text, in first-seen order with duplicates removed. The literal
// field name always comes first; case and separator variants follow; domain
// synonym expansions come last.
func GenerateSearchTerms(fieldName string) []string {
	terms := []string{fieldName}

	readable := camelBoundaryRe.ReplaceAllString(fieldName, "$1 $2")
	if readable != fieldName {
		terms = append(terms,
			readable,
			strings.ToLower(readable),
			strings.ToUpper(readable),
			titleCaser.String(readable),
		)
	}

	terms = append(terms,
		strings.ToLower(fieldName),
		strings.ToUpper(fieldName),
		strings.ReplaceAll(fieldName, "_", " "),
		strings.ReplaceAll(fieldName, "-", " "),
		strings.ToLower(camelBoundaryRe.ReplaceAllString(fieldName, "$1-$2")),
		strings.ToLower(camelBoundaryRe.ReplaceAllString(fieldName, "${1}_$2")),
	)

	fieldLower := strings.ToLower(fieldName)
	for _, entry := range semanticAlternatives {
		if strings.Contains(fieldLower, entry.key) || strings.Contains(entry.key, fieldLower) {
			terms = append(terms, entry.alts...)
		}
	}

	unique := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}
	return unique
}

// FieldPriority ranks a field for match ordering: core identification fields
// first (3), important data fields next (2), everything else last (1).
func FieldPriority(fieldName string) int {
	fieldLower := strings.ToLower(fieldName)

	for _, term := range []string{"name", "product", "manufacturer", "supplier"} {
		if strings.Contains(fieldLower, term) {
			return 3
		}
	}
	for _, term := range []string{"cas", "component", "substance", "hazard", "version"} {
		if strings.Contains(fieldLower, term) {
			return 2
		}
	}
	return 1
}
