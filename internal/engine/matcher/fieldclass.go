package matcher

import (
	"regexp"
	"strings"
)

// Field-class heuristics: the cascade scores candidates differently when the
// field name signals what shape of value it expects. An identifier field
// wants a registry-number-looking token; a name field wants a longer free
// text span, ideally containing a chemical root word.

var nameHints = []string{"name", "product", "component", "substance", "ingredient", "chemical", "title", "trade", "manufacturer", "supplier"}

// chemicalRoots are word stems common in chemical substance names. A name
// candidate containing one earns a bonus over generic prose.
var chemicalRoots = []string{
	"acid", "oxide", "hydroxide", "carbonate", "bicarbonate", "chloride",
	"chlorite", "hypochlorite", "sulfate", "sulphate", "sulfide", "nitrate",
	"nitrite", "phosphate", "silicate", "amine", "ammonium", "benzene",
	"ethanol", "methanol", "glycol", "peroxide", "sodium", "potassium",
	"calcium", "magnesium", "titanium", "zinc",
}

// labelWords flag a capture that is itself another label rather than data.
var labelWords = map[string]struct{}{
	"title": {}, "header": {}, "caption": {}, "label": {},
	"name": {}, "number": {}, "section": {}, "page": {},
}

// headerTerms are canonical SDS table headers; a capture equal to one of
// these is a column heading, not a value.
var headerTerms = map[string]struct{}{
	"component": {}, "components": {}, "cas-no": {}, "cas no": {},
	"cas number": {}, "ec-no": {}, "ec no": {}, "ec number": {},
	"weight": {}, "weight %": {}, "classification": {}, "concentration": {},
	"reach": {}, "hazard": {}, "range": {},
}

// domainKeywords in the matched line hint that the line carries a measured
// value rather than narrative text.
var domainKeywords = []string{"value", "amount", "quantity", "weight", "percentage"}

var (
	casShapeRe = regexp.MustCompile(`\b\d{2,7}-\d{2}-\d\b`)
	ecShapeRe  = regexp.MustCompile(`\b\d{3}-\d{3}-\d\b`)
	// identifierShapeRe matches any registry-style hyphen-segmented number.
	identifierShapeRe = regexp.MustCompile(`^\d[\d-]{4,18}[\dxX]$`)
)

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}

// wantsIdentifier reports whether the field expects a registry-style code.
func wantsIdentifier(nameLower string) bool {
	if strings.Contains(nameLower, "cas") || strings.Contains(nameLower, "reach") {
		return true
	}
	// "ec" alone is too short for Contains; require a word-ish occurrence.
	if strings.HasPrefix(nameLower, "ec") || strings.Contains(nameLower, "_ec") || strings.Contains(nameLower, "ecnumber") || strings.Contains(nameLower, "ec number") {
		return true
	}
	return strings.Contains(nameLower, "registration") || strings.Contains(nameLower, "registry")
}

// wantsName reports whether the field expects a substance or product name.
func wantsName(nameLower string) bool {
	if wantsIdentifier(nameLower) {
		return false
	}
	return containsAny(nameLower, nameHints)
}

// wantsConcentration reports whether the field expects a percentage or range.
func wantsConcentration(nameLower string) bool {
	return containsAny(nameLower, []string{"percent", "weight", "concentration", "content", "amount"})
}

func containsChemicalRoot(lower string) bool {
	return containsAny(lower, chemicalRoots)
}

func isHeaderTerm(lower string) bool {
	_, ok := headerTerms[strings.TrimSpace(lower)]
	return ok
}

// startsWithLabelWord reports whether the capture begins with a stray label
// token, e.g. "Name Acme Cleaner" captured by the term "product".
func startsWithLabelWord(lower string) bool {
	first, _, _ := strings.Cut(strings.TrimSpace(lower), " ")
	_, ok := labelWords[strings.TrimSuffix(first, ":")]
	return ok
}

func hasDomainKeyword(lowerLine string) bool {
	return containsAny(lowerLine, domainKeywords)
}
