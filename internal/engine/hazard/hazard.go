// Package hazard classifies GHS H-codes: numeric-range category split,
// signal word derivation, severity scoring and special-handling flags.
package hazard

import (
	"strconv"
	"strings"

	"github.com/turtacn/sdsmatch/internal/engine/recognizer"
)

// Classification is the full hazard analysis of one H-code list.
type Classification struct {
	SignalWord              string            `json:"signal_word"`
	PrimaryHazard           string            `json:"primary_hazard_type"`
	SeverityScore           int               `json:"severity_score"`
	PhysicalHazards         []string          `json:"physical_hazards"`
	HealthHazards           []string          `json:"health_hazards"`
	EnvironmentalHazards    []string          `json:"environmental_hazards"`
	Statements              map[string]string `json:"statements,omitempty"`
	TotalHazards            int               `json:"total_hazards"`
	RequiresSpecialHandling bool              `json:"requires_special_handling"`
}

// dangerCodes trigger the DANGER signal word.
var dangerCodes = toSet([]string{
	"H200", "H201", "H202", "H203", "H204", "H205",
	"H220", "H222", "H224",
	"H240", "H241", "H250", "H260", "H271",
	"H280",
	"H300", "H301", "H310", "H311", "H330", "H331",
	"H314", "H318",
	"H334",
	"H340", "H350", "H360", "H370", "H372",
	"H400", "H410",
})

// warningCodes trigger the WARNING signal word when no DANGER code is present.
var warningCodes = toSet([]string{
	"H205", "H221", "H223", "H225", "H226", "H227", "H228",
	"H241", "H242", "H251", "H252", "H261", "H270", "H272",
	"H281", "H290",
	"H302", "H303", "H304", "H305", "H312", "H313", "H315", "H316",
	"H317", "H319", "H320", "H332", "H333", "H335", "H336",
	"H341", "H351", "H361", "H362", "H371", "H373",
	"H401", "H402", "H411", "H412", "H413", "H420",
})

// highSeverityCodes score 3 points each.
var highSeverityCodes = toSet([]string{
	"H200", "H201", "H300", "H310", "H330", "H314", "H318",
	"H340", "H350", "H360", "H370", "H400", "H410",
})

// mediumSeverityCodes score 2 points each; other codes score 1.
var mediumSeverityCodes = toSet([]string{
	"H220", "H224", "H240", "H301", "H311", "H331", "H315",
	"H319", "H334", "H341", "H351", "H361", "H371", "H401",
})

const maxSeverity = 10

// Classify analyses an H-code list. It never fails: unknown or malformed
// codes are kept where their numeric range places them (or skipped when the
// numeric part does not parse) and contribute the minimum severity.
func Classify(codes []string) *Classification {
	c := &Classification{
		PhysicalHazards:      []string{},
		HealthHazards:        []string{},
		EnvironmentalHazards: []string{},
		Statements:           map[string]string{},
		TotalHazards:         len(codes),
	}

	for _, code := range codes {
		if !strings.HasPrefix(code, "H") || len(code) < 4 {
			continue
		}
		num, err := strconv.Atoi(code[1:4])
		if err != nil {
			continue
		}
		switch {
		case num >= 200 && num <= 299:
			c.PhysicalHazards = append(c.PhysicalHazards, code)
		case num >= 300 && num <= 399:
			c.HealthHazards = append(c.HealthHazards, code)
		case num >= 400 && num <= 499:
			c.EnvironmentalHazards = append(c.EnvironmentalHazards, code)
		}
		if text, ok := recognizer.StatementText(code); ok {
			c.Statements[code] = text
		}
	}

	c.SignalWord = signalWord(codes)
	c.SeverityScore = severityScore(codes)
	c.PrimaryHazard = primaryHazard(c)
	c.RequiresSpecialHandling = c.SeverityScore >= 8 || c.SignalWord == "DANGER"

	return c
}

// signalWord derives the GHS signal word: any DANGER-tier code wins, then
// any WARNING-tier code; a non-empty list of only unknown codes still earns
// WARNING, and an empty list earns "None".
func signalWord(codes []string) string {
	for _, code := range codes {
		if _, ok := dangerCodes[code]; ok {
			return "DANGER"
		}
	}
	for _, code := range codes {
		if _, ok := warningCodes[code]; ok {
			return "WARNING"
		}
	}
	if len(codes) == 0 {
		return "None"
	}
	return "WARNING"
}

// severityScore sums 3 per high-severity code, 2 per medium, 1 per other,
// clamped to maxSeverity.
func severityScore(codes []string) int {
	score := 0
	for _, code := range codes {
		switch {
		case hasKey(highSeverityCodes, code):
			score += 3
		case hasKey(mediumSeverityCodes, code):
			score += 2
		default:
			score++
		}
	}
	if score > maxSeverity {
		score = maxSeverity
	}
	return score
}

// primaryHazard ranks health above physical above environmental.
func primaryHazard(c *Classification) string {
	switch {
	case len(c.HealthHazards) > 0:
		return "health"
	case len(c.PhysicalHazards) > 0:
		return "physical"
	case len(c.EnvironmentalHazards) > 0:
		return "environmental"
	default:
		return "none"
	}
}

func toSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

// ---------------------------------------------------------------------------
// Hazard class groups
// ---------------------------------------------------------------------------

// ClassGroup names a GHS hazard class and the codes it covers.
type ClassGroup struct {
	Name        string
	Description string
	Codes       []string
}

var classGroups = []ClassGroup{
	{"explosive", "Explosive substances and mixtures", []string{"H200", "H201", "H202", "H203", "H204", "H205"}},
	{"flammable_gas", "Flammable gases", []string{"H220", "H221"}},
	{"flammable_aerosol", "Flammable aerosols", []string{"H222", "H223"}},
	{"flammable_liquid", "Flammable liquids", []string{"H224", "H225", "H226", "H227"}},
	{"flammable_solid", "Flammable solids", []string{"H228"}},
	{"self_reactive", "Self-reactive substances", []string{"H240", "H241", "H242"}},
	{"pyrophoric", "Pyrophoric substances", []string{"H250", "H251", "H252"}},
	{"water_reactive", "Water-reactive substances", []string{"H260", "H261"}},
	{"oxidizing", "Oxidizing substances", []string{"H270", "H271", "H272"}},
	{"compressed_gas", "Gases under pressure", []string{"H280", "H281"}},
	{"corrosive_metal", "Corrosive to metals", []string{"H290"}},
	{"acute_toxicity_oral", "Acute toxicity - oral", []string{"H300", "H301", "H302", "H303"}},
	{"acute_toxicity_dermal", "Acute toxicity - dermal", []string{"H310", "H311", "H312", "H313"}},
	{"aspiration_hazard", "Aspiration hazard", []string{"H304", "H305"}},
	{"skin_corrosion", "Skin corrosion/irritation", []string{"H314"}},
	{"skin_irritation", "Skin irritation", []string{"H315", "H316"}},
	{"skin_sensitization", "Skin sensitization", []string{"H317"}},
	{"eye_damage", "Serious eye damage/irritation", []string{"H318", "H319", "H320"}},
	{"acute_toxicity_inhalation", "Acute toxicity - inhalation", []string{"H330", "H331", "H332", "H333"}},
	{"respiratory_sensitization", "Respiratory sensitization", []string{"H334"}},
	{"respiratory_irritation", "Respiratory tract irritation", []string{"H335"}},
	{"narcotic_effects", "Narcotic effects", []string{"H336"}},
	{"germ_cell_mutagenicity", "Germ cell mutagenicity", []string{"H340", "H341"}},
	{"carcinogenicity", "Carcinogenicity", []string{"H350", "H351"}},
	{"reproductive_toxicity", "Reproductive toxicity", []string{"H360", "H361", "H362"}},
	{"target_organ_toxicity_single", "Specific target organ toxicity - single exposure", []string{"H370", "H371"}},
	{"target_organ_toxicity_repeated", "Specific target organ toxicity - repeated exposure", []string{"H372", "H373"}},
	{"aquatic_toxicity_acute", "Hazardous to aquatic environment - acute", []string{"H400", "H401", "H402"}},
	{"aquatic_toxicity_chronic", "Hazardous to aquatic environment - chronic", []string{"H410", "H411", "H412", "H413"}},
	{"ozone_layer", "Hazardous to the ozone layer", []string{"H420"}},
}

var codeToGroup = func() map[string]*ClassGroup {
	m := make(map[string]*ClassGroup)
	for i := range classGroups {
		for _, code := range classGroups[i].Codes {
			m[code] = &classGroups[i]
		}
	}
	return m
}()

// ClassOf returns the hazard class group containing code, or false for
// codes outside the GHS tables.
func ClassOf(code string) (ClassGroup, bool) {
	if g, ok := codeToGroup[code]; ok {
		return *g, true
	}
	return ClassGroup{}, false
}
