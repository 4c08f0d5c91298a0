// Package extraction is the single-document application service: it loads a
// file through the text providers, falls back to the visual collaborator for
// scans, runs the engine, and caches the result keyed by document content
// and schema.
package extraction

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/sdsmatch/internal/config"
	"github.com/turtacn/sdsmatch/internal/engine/common"
	"github.com/turtacn/sdsmatch/internal/engine/extract"
	"github.com/turtacn/sdsmatch/internal/infrastructure/cache"
	"github.com/turtacn/sdsmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/sdsmatch/internal/infrastructure/pdftext"
	"github.com/turtacn/sdsmatch/pkg/errors"
	"github.com/turtacn/sdsmatch/pkg/types"
)

// ---------------------------------------------------------------------------
// Request / Response DTOs
// ---------------------------------------------------------------------------

// ExtractRequest asks for one document to be extracted against one schema.
type ExtractRequest struct {
	// Path is the document file; extension selects the provider.
	Path string `json:"path"`

	// SchemaSource is the interface declaration describing the target shape.
	SchemaSource string `json:"schema_source"`

	// BypassCache forces a fresh extraction even when a cached result exists.
	BypassCache bool `json:"bypass_cache,omitempty"`
}

// DocumentResult is the outcome of one document extraction.
type DocumentResult struct {
	RequestID string       `json:"request_id"`
	Source    string       `json:"source"`
	Result    types.Result `json:"result"`
	CacheHit  bool         `json:"cache_hit"`

	// UsedVisual and TextChars describe the extraction that actually ran
	// in this call; on a cache hit no document is loaded and both stay zero.
	UsedVisual bool `json:"used_visual"`
	TextChars  int  `json:"text_chars"`

	DurationMs  int64     `json:"duration_ms"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service is the application-layer contract for single-document extraction.
type Service interface {
	// ExtractFile loads, optionally visually extracts, and maps one file.
	ExtractFile(ctx context.Context, req *ExtractRequest) (*DocumentResult, error)

	// ExtractText maps already-extracted text without touching the cache.
	ExtractText(ctx context.Context, schemaSource, text string) (*DocumentResult, error)
}

type service struct {
	engine    *extract.Engine
	store     cache.Store
	visual    pdftext.VisualExtractor
	visualCfg config.VisualConfig
	logger    logging.Logger
	metrics   common.EngineMetrics
}

// NewService constructs the extraction service. engine is required; a nil
// store disables caching, a nil visual extractor disables the fallback.
func NewService(
	engine *extract.Engine,
	store cache.Store,
	visual pdftext.VisualExtractor,
	visualCfg config.VisualConfig,
	logger logging.Logger,
	metrics common.EngineMetrics,
) Service {
	if engine == nil {
		panic("extraction: engine must not be nil")
	}
	if store == nil {
		store = cache.NewNoopStore()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = common.NewNoopEngineMetrics()
	}
	return &service{
		engine:    engine,
		store:     store,
		visual:    visual,
		visualCfg: visualCfg,
		logger:    logger.Named("extraction"),
		metrics:   metrics,
	}
}

func (s *service) ExtractFile(ctx context.Context, req *ExtractRequest) (*DocumentResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	start := time.Now()

	docBytes, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDocumentRead, "read document "+req.Path)
	}
	key := cache.Key(docBytes, req.SchemaSource)

	usedVisual := false
	textChars := 0
	compute := func(ctx context.Context) (types.Result, error) {
		doc, err := s.loadDocument(ctx, req.Path)
		if err != nil {
			return nil, err
		}
		if s.shouldFallBack(doc) {
			if visualDoc := s.tryVisual(ctx, req.Path, doc); visualDoc != nil {
				doc = visualDoc
				usedVisual = true
			}
		}
		textChars = len(doc.Text)
		return s.engine.ExtractSource(ctx, req.SchemaSource, doc)
	}

	var result types.Result
	var hit bool
	if req.BypassCache {
		result, err = compute(ctx)
	} else {
		result, hit, err = s.store.GetOrCompute(ctx, key, compute)
	}
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCacheAccess(ctx, s.store.Name(), hit)

	return &DocumentResult{
		RequestID:   uuid.NewString(),
		Source:      req.Path,
		Result:      result,
		CacheHit:    hit,
		UsedVisual:  usedVisual,
		TextChars:   textChars,
		DurationMs:  time.Since(start).Milliseconds(),
		ExtractedAt: time.Now().UTC(),
	}, nil
}

func (s *service) ExtractText(ctx context.Context, schemaSource, text string) (*DocumentResult, error) {
	if strings.TrimSpace(schemaSource) == "" {
		return nil, errors.Validation("schema source is required")
	}
	start := time.Now()

	doc := &types.Document{Text: pdftext.NormalizeText(text), Source: "text"}
	result, err := s.engine.ExtractSource(ctx, schemaSource, doc)
	if err != nil {
		return nil, err
	}
	return &DocumentResult{
		RequestID:   uuid.NewString(),
		Source:      "text",
		Result:      result,
		TextChars:   len(doc.Text),
		DurationMs:  time.Since(start).Milliseconds(),
		ExtractedAt: time.Now().UTC(),
	}, nil
}

// loadDocument picks a provider by extension and loads the file.
func (s *service) loadDocument(ctx context.Context, path string) (*types.Document, error) {
	doc, err := pdftext.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// shouldFallBack reports whether the text layer is too thin to match against.
func (s *service) shouldFallBack(doc *types.Document) bool {
	if s.visual == nil || !s.visualCfg.Enabled {
		return false
	}
	return len(strings.TrimSpace(doc.Text)) < s.visualCfg.MinTextLength
}

// tryVisual runs the visual collaborator under its own timeout. Failure is
// never fatal: the caller keeps whatever text the provider produced.
func (s *service) tryVisual(ctx context.Context, path string, doc *types.Document) *types.Document {
	reason := "short_text"
	if strings.TrimSpace(doc.Text) == "" {
		reason = "no_text"
	}

	timeout := s.visualCfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	visualDoc, err := s.visual.Extract(vctx, path)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	s.metrics.RecordVisualFallback(ctx, reason, elapsed)

	if err != nil {
		s.logger.Warn("visual extraction failed, continuing with text layer",
			logging.String("path", path),
			logging.String("reason", reason),
			logging.Err(err),
		)
		return nil
	}
	s.logger.Info("visual extraction succeeded",
		logging.String("path", path),
		logging.String("reason", reason),
		logging.Int("text_chars", len(visualDoc.Text)),
	)
	return visualDoc
}

func validateRequest(req *ExtractRequest) error {
	if req == nil {
		return errors.Validation("extract request must not be nil")
	}
	if req.Path == "" {
		return errors.Validation("document path is required")
	}
	if strings.TrimSpace(req.SchemaSource) == "" {
		return errors.Validation("schema source is required")
	}
	return nil
}
