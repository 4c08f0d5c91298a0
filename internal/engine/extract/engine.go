// Package extract wires the schema parser, recognizer, matcher and mapper
// into the single-document extraction engine. One Engine is built per
// process from configuration and shared across documents; every call is
// deterministic over its inputs.
package extract

import (
	"context"
	"time"

	"github.com/turtacn/sdsmatch/internal/config"
	"github.com/turtacn/sdsmatch/internal/engine/common"
	"github.com/turtacn/sdsmatch/internal/engine/mapper"
	"github.com/turtacn/sdsmatch/internal/engine/matcher"
	"github.com/turtacn/sdsmatch/internal/engine/recognizer"
	"github.com/turtacn/sdsmatch/internal/engine/schema"
	"github.com/turtacn/sdsmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/sdsmatch/pkg/types"
)

// Engine is the document extraction facade. Safe for concurrent use.
type Engine struct {
	matcher    *matcher.Matcher
	mapper     *mapper.Mapper
	recognizer *recognizer.Recognizer
	logger     logging.Logger
	metrics    common.EngineMetrics
}

// New builds an Engine from configuration. A nil cfg uses defaults; a nil
// logger or metrics falls back to no-op implementations.
func New(cfg *config.Config, logger logging.Logger, metrics common.EngineMetrics) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = common.NewNoopEngineMetrics()
	}

	var matcherCfg *matcher.Config
	var recCfg *recognizer.Config
	if cfg != nil {
		matcherCfg = &matcher.Config{
			PatternAcceptScore: cfg.Engine.PatternAcceptScore,
			FuzzyMinRatio:      cfg.Engine.FuzzyMinRatio,
			HeaderAliasRatio:   cfg.Engine.HeaderAliasRatio,
			TableHeaderFuzzy:   cfg.Engine.TableHeaderFuzzy,
			MaxTableRows:       cfg.Engine.MaxTableRows,
			ContextWindow:      cfg.Engine.ContextWindow,
			MemoCapacity:       cfg.Engine.MemoCapacity,
		}
		recCfg = &recognizer.Config{StrictCAS: !cfg.Recognizer.LaxCAS}
	}

	engineLog := kvLogger{logger.Named("engine")}
	rec := recognizer.NewRecognizer(recCfg, engineLog)
	m := matcher.NewMatcher(matcherCfg, rec, engineLog, metrics)

	return &Engine{
		matcher:    m,
		mapper:     mapper.NewMapper(m, engineLog),
		recognizer: rec,
		logger:     logger,
		metrics:    metrics,
	}
}

// Recognizer exposes the engine's entity recognizer for callers that want
// raw entity output or hazard reference lookups.
func (e *Engine) Recognizer() *recognizer.Recognizer { return e.recognizer }

// Extract maps schema against doc. The result shape always mirrors the
// schema; a cancelled context is the only error path. Degraded input (empty
// text, partial schema, unmatched fields) produces a default-filled tree,
// never an error.
func (e *Engine) Extract(ctx context.Context, schemaNode *types.SchemaNode, doc *types.Document) (types.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	result, stats := e.mapper.MapWithStats(schemaNode, doc)

	durationMs := float64(time.Since(start).Microseconds()) / 1000
	source := "text"
	textLen := 0
	if doc != nil {
		if doc.Source != "" {
			source = doc.Source
		}
		textLen = len(doc.Text)
	}
	e.metrics.RecordExtraction(ctx, &common.ExtractionMetricParams{
		Source:        source,
		SchemaFields:  stats.LeafFields,
		MatchedFields: stats.MatchedFields,
		TextChars:     textLen,
		DurationMs:    durationMs,
		Success:       true,
	})
	e.logger.Debug("extraction complete",
		logging.Int("schema_fields", stats.LeafFields),
		logging.Int("matched_fields", stats.MatchedFields),
		logging.Int("text_chars", textLen),
		logging.Float64("duration_ms", durationMs),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ExtractSource parses an interface declaration and extracts against it.
// Malformed declaration lines are skipped by the parser, so a partially
// valid declaration still produces a (partial) result tree.
func (e *Engine) ExtractSource(ctx context.Context, interfaceSource string, doc *types.Document) (types.Result, error) {
	return e.Extract(ctx, schema.Parse(interfaceSource), doc)
}

// ---------------------------------------------------------------------------
// Logger adapter
// ---------------------------------------------------------------------------

// kvLogger adapts the structured field logger to the engine-local
// keysAndValues logging interface.
type kvLogger struct {
	l logging.Logger
}

func (k kvLogger) Debug(msg string, keysAndValues ...interface{}) {
	k.l.Debug(msg, kvFields(keysAndValues)...)
}

func (k kvLogger) Info(msg string, keysAndValues ...interface{}) {
	k.l.Info(msg, kvFields(keysAndValues)...)
}

func (k kvLogger) Warn(msg string, keysAndValues ...interface{}) {
	k.l.Warn(msg, kvFields(keysAndValues)...)
}

func (k kvLogger) Error(msg string, keysAndValues ...interface{}) {
	k.l.Error(msg, kvFields(keysAndValues)...)
}

func kvFields(kv []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = "arg"
		}
		fields = append(fields, logging.Any(key, kv[i+1]))
	}
	return fields
}
