// Package recognizer finds chemical-domain entities in document text:
// registry identifiers, GHS hazard codes, signal words, concentrations and
// physical properties. Categories are matched by an ordered regex table so
// results are deterministic for identical input.
package recognizer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/sdsmatch/internal/engine/common"
)

// Category identifies one recognized entity class.
type Category string

const (
	CategoryCASNumber              Category = "cas_number"
	CategoryECNumber               Category = "ec_number"
	CategoryREACHRegistration      Category = "reach_registration"
	CategoryHazardStatement        Category = "hazard_statement"
	CategoryPrecautionaryStatement Category = "precautionary_statement"
	CategorySignalWord             Category = "signal_word"
	CategoryPictogram              Category = "pictogram"
	CategoryConcentrationRange     Category = "concentration_range"
	CategoryConcentrationExact     Category = "concentration_exact"
	CategoryBoilingPoint           Category = "boiling_point"
	CategoryMolecularWeight        Category = "molecular_weight"
	CategoryFlashPoint             Category = "flash_point"
	CategoryMeltingPoint           Category = "melting_point"
	CategoryDensity                Category = "density"
	CategoryPHValue                Category = "ph_value"
)

// categoryPattern pairs a category with its compiled pattern. Table order is
// the tie-break for entities starting at the same offset.
type categoryPattern struct {
	category Category
	re       *regexp.Regexp
}

// patternTable is built once at init; Recognizer instances share it.
var patternTable = []categoryPattern{
	{CategoryCASNumber, regexp.MustCompile(`\b(\d{2,7}-\d{2}-\d)\b`)},
	{CategoryECNumber, regexp.MustCompile(`\b(\d{3}-\d{3}-\d)\b`)},
	{CategoryREACHRegistration, regexp.MustCompile(`\b(\d{2}-\d{10}-\d{2}-[a-zA-Z0-9])\b`)},
	{CategoryHazardStatement, regexp.MustCompile(`\b(H\d{3}[A-Za-z]*)\b`)},
	{CategoryPrecautionaryStatement, regexp.MustCompile(`\b(P\d{3}(?:\+P\d{3})*[A-Za-z]*)\b`)},
	{CategorySignalWord, regexp.MustCompile(`(?i)\b(DANGER|WARNING|CAUTION)\b`)},
	{CategoryPictogram, regexp.MustCompile(`(?i)\b(GHS\d{2})\b`)},
	{CategoryConcentrationRange, regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[-–]\s*(\d+(?:\.\d+)?)\s*%`)},
	{CategoryConcentrationExact, regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)},
	{CategoryBoilingPoint, regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*°?C\b`)},
	{CategoryMolecularWeight, regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*g/mol`)},
	{CategoryFlashPoint, regexp.MustCompile(`(?i)flash\s*point[:\s]*(\d+(?:\.\d+)?)\s*°?C`)},
	{CategoryMeltingPoint, regexp.MustCompile(`(?i)melting\s*point[:\s]*(\d+(?:\.\d+)?)\s*°?C`)},
	{CategoryDensity, regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*g/cm³?`)},
	{CategoryPHValue, regexp.MustCompile(`(?i)pH[:\s]*(\d+(?:\.\d+)?)`)},
}

// categoryRank maps a category to its table position for sorting.
var categoryRank = func() map[Category]int {
	m := make(map[Category]int, len(patternTable))
	for i, cp := range patternTable {
		m[cp.category] = i
	}
	return m
}()

// Entity is one recognized span of text.
type Entity struct {
	Category Category `json:"category"`
	// Value is the first capture group, or the whole match when the pattern
	// has no groups.
	Value string `json:"value"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	// Groups holds all capture group values for multi-group patterns
	// (concentration ranges carry min and max).
	Groups []string `json:"groups,omitempty"`
}

// Config tunes recognition behaviour.
type Config struct {
	// StrictCAS drops CAS candidates that fail check-digit validation from
	// ChemicalInfo summaries. Raw Recognize output is never filtered.
	StrictCAS bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{StrictCAS: true}
}

// Recognizer extracts chemical entities from text. Safe for concurrent use.
type Recognizer struct {
	cfg    *Config
	logger common.Logger
}

// NewRecognizer builds a Recognizer. A nil cfg uses DefaultConfig; a nil
// logger is replaced with a no-op.
func NewRecognizer(cfg *Config, logger common.Logger) *Recognizer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = common.NewNoopLogger()
	}
	return &Recognizer{cfg: cfg, logger: logger}
}

// Recognize returns every entity of every category found in text, sorted by
// start offset, then by category table order, then by end offset.
func (r *Recognizer) Recognize(text string) []Entity {
	if text == "" {
		return nil
	}

	var entities []Entity
	for _, cp := range patternTable {
		for _, idx := range cp.re.FindAllStringSubmatchIndex(text, -1) {
			e := Entity{
				Category: cp.category,
				Start:    idx[0],
				End:      idx[1],
				Value:    text[idx[0]:idx[1]],
			}
			// idx holds pairs: full match, then one pair per group.
			if len(idx) > 2 && idx[2] >= 0 {
				e.Value = text[idx[2]:idx[3]]
			}
			if len(idx) > 4 {
				for g := 1; g*2 < len(idx); g++ {
					if idx[g*2] >= 0 {
						e.Groups = append(e.Groups, text[idx[g*2]:idx[g*2+1]])
					}
				}
			}
			entities = append(entities, e)
		}
	}

	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Start != entities[j].Start {
			return entities[i].Start < entities[j].Start
		}
		ri, rj := categoryRank[entities[i].Category], categoryRank[entities[j].Category]
		if ri != rj {
			return ri < rj
		}
		return entities[i].End < entities[j].End
	})
	return entities
}

// RecognizeCategory returns only the entities of one category, in text order.
func (r *Recognizer) RecognizeCategory(text string, category Category) []Entity {
	var out []Entity
	for _, e := range r.Recognize(text) {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

var casShapeRe = regexp.MustCompile(`^\d{2,7}-\d{2}-\d$`)

// ValidateCAS reports whether cas is a well-formed CAS registry number with
// a correct check digit. The checksum multiplies each digit (excluding the
// check digit) by its 1-based position from the right; the number is valid
// when that sum modulo 10 equals the check digit.
func ValidateCAS(cas string) bool {
	if !casShapeRe.MatchString(cas) {
		return false
	}
	digits := strings.ReplaceAll(cas, "-", "")
	check := int(digits[len(digits)-1] - '0')

	sum := 0
	position := 1
	for i := len(digits) - 2; i >= 0; i-- {
		sum += int(digits[i]-'0') * position
		position++
	}
	return sum%10 == check
}

// ---------------------------------------------------------------------------
// Chemical summary
// ---------------------------------------------------------------------------

// Concentration is one concentration mention.
type Concentration struct {
	Type  string  `json:"type"` // "range" or "exact"
	Min   float64 `json:"min,omitempty"`
	Max   float64 `json:"max,omitempty"`
	Value float64 `json:"value,omitempty"`
	Unit  string  `json:"unit"`
}

// PhysicalProperty is one measured property value.
type PhysicalProperty struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// ChemicalInfo aggregates the recognized entities of one document.
type ChemicalInfo struct {
	CASNumbers              []string                    `json:"cas_numbers"`
	ECNumbers               []string                    `json:"ec_numbers"`
	HazardStatements        []string                    `json:"hazard_statements"`
	PrecautionaryStatements []string                    `json:"precautionary_statements"`
	SignalWord              string                      `json:"signal_word"`
	Pictograms              []string                    `json:"pictograms"`
	Concentrations          []Concentration             `json:"concentrations"`
	Properties              map[string]PhysicalProperty `json:"properties"`
}

// Info runs recognition over text and assembles a summary: CAS numbers
// (check-digit validated when StrictCAS), the most severe signal word, and
// the first occurrence of each physical property.
func (r *Recognizer) Info(text string) *ChemicalInfo {
	entities := r.Recognize(text)

	info := &ChemicalInfo{
		CASNumbers:              []string{},
		ECNumbers:               []string{},
		HazardStatements:        []string{},
		PrecautionaryStatements: []string{},
		Pictograms:              []string{},
		Concentrations:          []Concentration{},
		Properties:              map[string]PhysicalProperty{},
	}

	var signalWords []string
	for _, e := range entities {
		switch e.Category {
		case CategoryCASNumber:
			if r.cfg.StrictCAS && !ValidateCAS(e.Value) {
				r.logger.Debug("dropping CAS candidate with bad check digit", "value", e.Value)
				continue
			}
			info.CASNumbers = append(info.CASNumbers, e.Value)
		case CategoryECNumber:
			info.ECNumbers = append(info.ECNumbers, e.Value)
		case CategoryHazardStatement:
			info.HazardStatements = append(info.HazardStatements, e.Value)
		case CategoryPrecautionaryStatement:
			info.PrecautionaryStatements = append(info.PrecautionaryStatements, e.Value)
		case CategorySignalWord:
			signalWords = append(signalWords, e.Value)
		case CategoryPictogram:
			info.Pictograms = append(info.Pictograms, strings.ToUpper(e.Value))
		case CategoryConcentrationRange:
			if len(e.Groups) >= 2 {
				min, _ := strconv.ParseFloat(e.Groups[0], 64)
				max, _ := strconv.ParseFloat(e.Groups[1], 64)
				info.Concentrations = append(info.Concentrations, Concentration{
					Type: "range", Min: min, Max: max, Unit: "%",
				})
			}
		case CategoryConcentrationExact:
			v, _ := strconv.ParseFloat(e.Value, 64)
			info.Concentrations = append(info.Concentrations, Concentration{
				Type: "exact", Value: v, Unit: "%",
			})
		case CategoryBoilingPoint:
			setProperty(info.Properties, "boiling_point", e.Value, "°C")
		case CategoryMeltingPoint:
			setProperty(info.Properties, "melting_point", e.Value, "°C")
		case CategoryFlashPoint:
			setProperty(info.Properties, "flash_point", e.Value, "°C")
		case CategoryDensity:
			setProperty(info.Properties, "density", e.Value, "g/cm³")
		case CategoryPHValue:
			setProperty(info.Properties, "ph", e.Value, "")
		case CategoryMolecularWeight:
			setProperty(info.Properties, "molecular_weight", e.Value, "g/mol")
		}
	}

	info.SignalWord = PrimarySignalWord(signalWords)
	return info
}

// setProperty records the first occurrence of a property only.
func setProperty(props map[string]PhysicalProperty, key, raw, unit string) {
	if _, exists := props[key]; exists {
		return
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return
	}
	props[key] = PhysicalProperty{Value: v, Unit: unit}
}

// PrimarySignalWord picks the most severe signal word present:
// DANGER > WARNING > CAUTION > "".
func PrimarySignalWord(words []string) string {
	var hasWarning, hasCaution bool
	for _, w := range words {
		switch strings.ToUpper(w) {
		case "DANGER":
			return "DANGER"
		case "WARNING":
			hasWarning = true
		case "CAUTION":
			hasCaution = true
		}
	}
	if hasWarning {
		return "WARNING"
	}
	if hasCaution {
		return "CAUTION"
	}
	return ""
}
