// Package matcher locates the value of one schema field inside unstructured
// document text. Matching is a short-circuit cascade of strategies ordered
// cheapest and most reliable first: label patterns, structured tables, fuzzy
// line matching, and a bounded substring window as the last resort. The first
// strategy whose candidate clears its acceptance threshold wins.
package matcher

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/turtacn/sdsmatch/internal/engine/common"
	"github.com/turtacn/sdsmatch/internal/engine/recognizer"
	"github.com/turtacn/sdsmatch/pkg/types"
)

// Config carries the matcher tunables. Zero values are replaced by the
// production defaults in NewMatcher, so an empty Config is usable.
type Config struct {
	// PatternAcceptScore is the minimum score a pattern-strategy candidate
	// must exceed (strictly) to be accepted.
	PatternAcceptScore float64

	// FuzzyMinRatio is the minimum label similarity for the fuzzy strategy.
	FuzzyMinRatio float64

	// HeaderAliasRatio is the fraction of item fields that must be located
	// in a header row before a table is adopted for array extraction.
	HeaderAliasRatio float64

	// TableHeaderFuzzy is the similarity floor for individual header cells.
	TableHeaderFuzzy float64

	// MaxTableRows caps array-of-objects output.
	MaxTableRows int

	// ContextWindow is the character window inspected by the substring
	// fallback after a term occurrence.
	ContextWindow int

	// MemoCapacity bounds the per-matcher memoization table. Zero disables
	// memoization entirely.
	MemoCapacity int
}

// DefaultConfig returns the production defaults. The values mirror
// internal/config/defaults.go; the duplication keeps this package free of a
// dependency on the configuration layer.
func DefaultConfig() *Config {
	return &Config{
		PatternAcceptScore: 0.5,
		FuzzyMinRatio:      0.65,
		HeaderAliasRatio:   0.6,
		TableHeaderFuzzy:   0.8,
		MaxTableRows:       20,
		ContextWindow:      200,
		MemoCapacity:       256,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.PatternAcceptScore == 0 {
		c.PatternAcceptScore = d.PatternAcceptScore
	}
	if c.FuzzyMinRatio == 0 {
		c.FuzzyMinRatio = d.FuzzyMinRatio
	}
	if c.HeaderAliasRatio == 0 {
		c.HeaderAliasRatio = d.HeaderAliasRatio
	}
	if c.TableHeaderFuzzy == 0 {
		c.TableHeaderFuzzy = d.TableHeaderFuzzy
	}
	if c.MaxTableRows == 0 {
		c.MaxTableRows = d.MaxTableRows
	}
	if c.ContextWindow == 0 {
		c.ContextWindow = d.ContextWindow
	}
}

// Matcher resolves single fields against a prepared document. A Matcher is
// immutable after construction apart from its bounded memo table and is safe
// for concurrent use.
type Matcher struct {
	cfg        *Config
	recognizer *recognizer.Recognizer
	logger     common.Logger
	metrics    common.EngineMetrics
	memo       *memoCache
	strategies []strategy
}

// NewMatcher builds a Matcher. Nil arguments are replaced with defaults:
// DefaultConfig, a fresh Recognizer, a no-op logger and no-op metrics.
func NewMatcher(cfg *Config, rec *recognizer.Recognizer, logger common.Logger, metrics common.EngineMetrics) *Matcher {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		copied := *cfg
		cfg = &copied
		cfg.applyDefaults()
	}
	if rec == nil {
		rec = recognizer.NewRecognizer(nil, logger)
	}
	if logger == nil {
		logger = common.NewNoopLogger()
	}
	if metrics == nil {
		metrics = common.NewNoopEngineMetrics()
	}

	m := &Matcher{
		cfg:        cfg,
		recognizer: rec,
		logger:     logger,
		metrics:    metrics,
		memo:       newMemoCache(cfg.MemoCapacity),
	}
	m.strategies = []strategy{
		newPatternStrategy(cfg),
		newTableStrategy(cfg),
		newFuzzyStrategy(cfg),
		newWindowStrategy(cfg),
	}
	return m
}

// Config returns the effective configuration.
func (m *Matcher) Config() *Config { return m.cfg }

// query bundles one field lookup: the schema node, its path for logging and
// memo keys, and its lower-cased name for field-class heuristics.
type query struct {
	path      string
	node      *types.SchemaNode
	nameLower string
}

// candidate is one scored extraction proposal from a strategy.
type candidate struct {
	value string
	score float64
	term  string
}

// strategy is one stage of the matching cascade. A strategy whose
// prerequisite input is absent reports unavailable and is skipped without
// being consulted.
type strategy interface {
	name() string
	available(d *PreparedDoc) bool
	extract(q *query, d *PreparedDoc) (candidate, bool)
}

// Extract runs the cascade for one leaf field and returns the converted
// value. The boolean is false when every strategy missed; the caller then
// substitutes the type default. Extract never fails.
func (m *Matcher) Extract(path string, node *types.SchemaNode, d *PreparedDoc) (interface{}, bool) {
	if node == nil || !node.IsLeaf() || d == nil {
		return nil, false
	}

	memoKey := path + "\x1f" + d.fingerprint
	if v, ok := m.memo.get(memoKey); ok {
		return v.value, v.found
	}

	q := &query{path: path, node: node, nameLower: strings.ToLower(node.Name)}
	for _, s := range m.strategies {
		if !s.available(d) {
			continue
		}
		cand, ok := s.extract(q, d)
		if !ok {
			continue
		}
		value := ConvertValue(cand.value, node.Kind)
		m.metrics.RecordFieldMatch(context.Background(), &common.FieldMatchMetricParams{
			FieldName: path,
			Strategy:  s.name(),
			Score:     cand.score,
		})
		m.logger.Debug("field matched",
			"field", path,
			"strategy", s.name(),
			"term", cand.term,
			"score", strconv.FormatFloat(cand.score, 'f', 2, 64),
			"value", common.Truncate(cand.value, 60),
		)
		m.memo.put(memoKey, memoEntry{value: value, found: true})
		return value, true
	}

	m.metrics.RecordFieldMatch(context.Background(), &common.FieldMatchMetricParams{
		FieldName: path,
		Strategy:  "none",
	})
	m.memo.put(memoKey, memoEntry{})
	return nil, false
}

// ---------------------------------------------------------------------------
// Prepared document
// ---------------------------------------------------------------------------

// PreparedDoc is a document pre-processed for matching: the raw input plus
// split and lower-cased line views shared by every field lookup, and a text
// fingerprint for memo keys. Prepare once per document, reuse per field.
type PreparedDoc struct {
	raw         *types.Document
	text        string
	lines       []string
	lowerLines  []string
	lowerText   string
	fingerprint string
}

// Prepare builds the shared document view. A nil document behaves like an
// empty one.
func Prepare(doc *types.Document) *PreparedDoc {
	if doc == nil {
		doc = &types.Document{}
	}
	text := strings.ReplaceAll(doc.Text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	lowerLines := make([]string, len(lines))
	for i, l := range lines {
		lowerLines[i] = strings.ToLower(l)
	}

	// The memo is shared across documents, so the fingerprint must cover the
	// whole input: full text plus every table cell, with separators so cell
	// boundaries cannot alias.
	h := fnv.New64a()
	h.Write([]byte(text))
	for _, tbl := range doc.Tables {
		h.Write([]byte{0})
		for _, row := range tbl.Rows {
			for _, cell := range row {
				h.Write([]byte(cell))
				h.Write([]byte{0x1f})
			}
			h.Write([]byte{0x1e})
		}
	}

	return &PreparedDoc{
		raw:         doc,
		text:        text,
		lines:       lines,
		lowerLines:  lowerLines,
		lowerText:   strings.ToLower(text),
		fingerprint: strconv.FormatUint(h.Sum64(), 16),
	}
}

// Tables exposes the structured tables of the underlying document.
func (d *PreparedDoc) Tables() []types.Table { return d.raw.Tables }

// IsEmpty reports whether the prepared document has no usable content.
func (d *PreparedDoc) IsEmpty() bool {
	return strings.TrimSpace(d.text) == "" && len(d.raw.Tables) == 0
}
