package common

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/turtacn/sdsmatch/pkg/errors"
)

// ---------------------------------------------------------------------------
// Metric parameter types
// ---------------------------------------------------------------------------

// ExtractionMetricParams carries the measurements of a single document
// extraction run.
type ExtractionMetricParams struct {
	// Source identifies where the document text came from:
	// "text", "sidecar", "visual" or "cache".
	Source string

	// SchemaFields is the number of leaf fields in the requested schema.
	SchemaFields int

	// MatchedFields is the number of leaf fields that received a non-default
	// value.
	MatchedFields int

	// TextChars is the length of the document text in runes.
	TextChars int

	// DurationMs is the wall-clock duration of the extraction.
	DurationMs float64

	// Success reports whether the extraction completed without error.
	Success bool
}

// FieldMatchMetricParams carries the measurements of a single field match
// attempt.
type FieldMatchMetricParams struct {
	// FieldName is the schema path of the field, e.g. "productInfo.name".
	FieldName string

	// Strategy names the matching strategy that produced the value:
	// "pattern", "table", "fuzzy", "window" or "none".
	Strategy string

	// Score is the confidence score of the accepted match, in [0, 1].
	Score float64

	// DurationMs is the wall-clock duration of the match attempt.
	DurationMs float64
}

// BatchMetricParams carries the measurements of a batch processing run.
type BatchMetricParams struct {
	BatchName         string
	TotalItems        int
	SuccessItems      int
	FailedItems       int
	TimeoutItems      int
	CancelledItems    int
	TotalDurationMs   float64
	AvgItemDurationMs float64
	MaxConcurrency    int
}

// EngineStats is a point-in-time snapshot of engine activity, served by the
// in-memory metrics implementation.
type EngineStats struct {
	TotalExtractions      uint64             `json:"total_extractions"`
	SuccessfulExtractions uint64             `json:"successful_extractions"`
	FailedExtractions     uint64             `json:"failed_extractions"`
	CacheHits             uint64             `json:"cache_hits"`
	CacheMisses           uint64             `json:"cache_misses"`
	VisualFallbacks       uint64             `json:"visual_fallbacks"`
	AvgExtractionMs       float64            `json:"avg_extraction_ms"`
	MatchesByStrategy     map[string]uint64  `json:"matches_by_strategy"`
	ExtractionsBySource   map[string]uint64  `json:"extractions_by_source"`
}

// ---------------------------------------------------------------------------
// EngineMetrics interface
// ---------------------------------------------------------------------------

// EngineMetrics is the metrics contract of the extraction engine. Three
// implementations exist: Prometheus-backed for production, in-memory for
// tests and the stats command, and no-op as the default.
type EngineMetrics interface {
	// RecordExtraction records the outcome of one document extraction.
	RecordExtraction(ctx context.Context, params *ExtractionMetricParams)

	// RecordFieldMatch records the outcome of one field match attempt.
	RecordFieldMatch(ctx context.Context, params *FieldMatchMetricParams)

	// RecordBatchProcessing records the outcome of a batch run.
	RecordBatchProcessing(ctx context.Context, params *BatchMetricParams)

	// RecordCacheAccess records a result-cache lookup. backend is the cache
	// backend name ("disk", "redis"), hit reports whether the lookup hit.
	RecordCacheAccess(ctx context.Context, backend string, hit bool)

	// RecordCircuitBreakerStateChange records a breaker transition.
	RecordCircuitBreakerStateChange(ctx context.Context, name, fromState, toState string)

	// RecordVisualFallback records one fallback to the visual extraction
	// service, with the reason that triggered it ("short_text", "no_text").
	RecordVisualFallback(ctx context.Context, reason string, durationMs float64)

	// GetExtractionLatencyHistogram returns the extraction latency histogram.
	// Only supported by the in-memory implementation.
	GetExtractionLatencyHistogram(ctx context.Context) (*LatencyHistogram, error)

	// GetCurrentStats returns a snapshot of current engine statistics.
	// Only supported by the in-memory implementation.
	GetCurrentStats(ctx context.Context) (*EngineStats, error)
}

// defaultLatencyBuckets are the histogram bucket upper bounds in
// milliseconds shared by all latency histograms.
var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// scoreBuckets are the bucket upper bounds for match-score histograms.
var scoreBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

// ---------------------------------------------------------------------------
// Prometheus implementation
// ---------------------------------------------------------------------------

type prometheusEngineMetrics struct {
	extractionsTotal    *prometheus.CounterVec
	extractionDuration  *prometheus.HistogramVec
	matchedFieldsRatio  prometheus.Histogram
	fieldMatchesTotal   *prometheus.CounterVec
	fieldMatchScore     prometheus.Histogram
	batchItemsTotal     *prometheus.CounterVec
	batchDuration       *prometheus.HistogramVec
	cacheAccessTotal    *prometheus.CounterVec
	circuitBreakerState *prometheus.GaugeVec
	visualFallbacks     *prometheus.CounterVec
	visualDuration      prometheus.Histogram
}

// NewPrometheusEngineMetrics creates a Prometheus-backed EngineMetrics and
// registers all collectors with reg. A nil reg falls back to the default
// registerer.
func NewPrometheusEngineMetrics(reg prometheus.Registerer) EngineMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &prometheusEngineMetrics{
		extractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdsmatch_engine_extractions_total",
				Help: "Total number of document extractions by source and status.",
			},
			[]string{"source", "status"},
		),
		extractionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sdsmatch_engine_extraction_duration_milliseconds",
				Help:    "Document extraction latency in milliseconds.",
				Buckets: defaultLatencyBuckets,
			},
			[]string{"source"},
		),
		matchedFieldsRatio: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sdsmatch_engine_matched_fields_ratio",
				Help:    "Ratio of matched leaf fields to schema leaf fields per extraction.",
				Buckets: scoreBuckets,
			},
		),
		fieldMatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdsmatch_engine_field_matches_total",
				Help: "Total number of field match attempts by strategy.",
			},
			[]string{"strategy"},
		),
		fieldMatchScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sdsmatch_engine_field_match_score",
				Help:    "Confidence score of accepted field matches.",
				Buckets: scoreBuckets,
			},
		),
		batchItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdsmatch_engine_batch_items_total",
				Help: "Total number of batch items by batch name and status.",
			},
			[]string{"batch", "status"},
		),
		batchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sdsmatch_engine_batch_duration_milliseconds",
				Help:    "Batch run duration in milliseconds.",
				Buckets: []float64{100, 500, 1000, 5000, 10000, 30000, 60000, 300000},
			},
			[]string{"batch"},
		),
		cacheAccessTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdsmatch_engine_cache_access_total",
				Help: "Total number of result-cache lookups by backend and result.",
			},
			[]string{"backend", "result"},
		),
		circuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sdsmatch_engine_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		visualFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdsmatch_engine_visual_fallbacks_total",
				Help: "Total number of fallbacks to the visual extraction service.",
			},
			[]string{"reason"},
		),
		visualDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sdsmatch_engine_visual_duration_milliseconds",
				Help:    "Visual extraction service call latency in milliseconds.",
				Buckets: defaultLatencyBuckets,
			},
		),
	}

	reg.MustRegister(
		m.extractionsTotal,
		m.extractionDuration,
		m.matchedFieldsRatio,
		m.fieldMatchesTotal,
		m.fieldMatchScore,
		m.batchItemsTotal,
		m.batchDuration,
		m.cacheAccessTotal,
		m.circuitBreakerState,
		m.visualFallbacks,
		m.visualDuration,
	)

	return m
}

func (m *prometheusEngineMetrics) RecordExtraction(_ context.Context, params *ExtractionMetricParams) {
	if params == nil {
		return
	}
	status := "success"
	if !params.Success {
		status = "failure"
	}
	source := params.Source
	if source == "" {
		source = "text"
	}
	m.extractionsTotal.WithLabelValues(source, status).Inc()
	m.extractionDuration.WithLabelValues(source).Observe(params.DurationMs)
	if params.SchemaFields > 0 {
		m.matchedFieldsRatio.Observe(float64(params.MatchedFields) / float64(params.SchemaFields))
	}
}

func (m *prometheusEngineMetrics) RecordFieldMatch(_ context.Context, params *FieldMatchMetricParams) {
	if params == nil {
		return
	}
	strategy := params.Strategy
	if strategy == "" {
		strategy = "none"
	}
	m.fieldMatchesTotal.WithLabelValues(strategy).Inc()
	if strategy != "none" {
		m.fieldMatchScore.Observe(params.Score)
	}
}

func (m *prometheusEngineMetrics) RecordBatchProcessing(_ context.Context, params *BatchMetricParams) {
	if params == nil {
		return
	}
	name := params.BatchName
	if name == "" {
		name = "batch-processor"
	}
	m.batchItemsTotal.WithLabelValues(name, "success").Add(float64(params.SuccessItems))
	m.batchItemsTotal.WithLabelValues(name, "failed").Add(float64(params.FailedItems))
	m.batchItemsTotal.WithLabelValues(name, "timeout").Add(float64(params.TimeoutItems))
	m.batchItemsTotal.WithLabelValues(name, "cancelled").Add(float64(params.CancelledItems))
	m.batchDuration.WithLabelValues(name).Observe(params.TotalDurationMs)
}

func (m *prometheusEngineMetrics) RecordCacheAccess(_ context.Context, backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	if backend == "" {
		backend = "disk"
	}
	m.cacheAccessTotal.WithLabelValues(backend, result).Inc()
}

func (m *prometheusEngineMetrics) RecordCircuitBreakerStateChange(_ context.Context, name, _, toState string) {
	var v float64
	switch toState {
	case "OPEN":
		v = 1
	case "HALF_OPEN":
		v = 2
	default:
		v = 0
	}
	m.circuitBreakerState.WithLabelValues(name).Set(v)
}

func (m *prometheusEngineMetrics) RecordVisualFallback(_ context.Context, reason string, durationMs float64) {
	if reason == "" {
		reason = "unknown"
	}
	m.visualFallbacks.WithLabelValues(reason).Inc()
	m.visualDuration.Observe(durationMs)
}

func (m *prometheusEngineMetrics) GetExtractionLatencyHistogram(_ context.Context) (*LatencyHistogram, error) {
	return nil, errors.New(errors.ErrCodeNotImplemented,
		"latency histogram snapshots are not supported by the Prometheus backend; query Prometheus instead")
}

func (m *prometheusEngineMetrics) GetCurrentStats(_ context.Context) (*EngineStats, error) {
	return nil, errors.New(errors.ErrCodeNotImplemented,
		"stats snapshots are not supported by the Prometheus backend; query Prometheus instead")
}

// ---------------------------------------------------------------------------
// No-op implementation
// ---------------------------------------------------------------------------

type noopEngineMetrics struct{}

// NewNoopEngineMetrics returns an EngineMetrics that records nothing.
func NewNoopEngineMetrics() EngineMetrics {
	return noopEngineMetrics{}
}

func (noopEngineMetrics) RecordExtraction(context.Context, *ExtractionMetricParams)       {}
func (noopEngineMetrics) RecordFieldMatch(context.Context, *FieldMatchMetricParams)       {}
func (noopEngineMetrics) RecordBatchProcessing(context.Context, *BatchMetricParams)       {}
func (noopEngineMetrics) RecordCacheAccess(context.Context, string, bool)                 {}
func (noopEngineMetrics) RecordCircuitBreakerStateChange(context.Context, string, string, string) {
}
func (noopEngineMetrics) RecordVisualFallback(context.Context, string, float64) {}

func (noopEngineMetrics) GetExtractionLatencyHistogram(context.Context) (*LatencyHistogram, error) {
	return newLatencyHistogram(defaultLatencyBuckets).Snapshot(), nil
}

func (noopEngineMetrics) GetCurrentStats(context.Context) (*EngineStats, error) {
	return &EngineStats{
		MatchesByStrategy:   map[string]uint64{},
		ExtractionsBySource: map[string]uint64{},
	}, nil
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

type inMemoryEngineMetrics struct {
	mu sync.RWMutex

	totalExtractions      uint64
	successfulExtractions uint64
	failedExtractions     uint64
	cacheHits             uint64
	cacheMisses           uint64
	visualFallbacks       uint64
	extractionMsSum       float64
	matchesByStrategy     map[string]uint64
	extractionsBySource   map[string]uint64
	latency               *latencyHistogram
}

// NewInMemoryEngineMetrics returns an EngineMetrics that aggregates counters
// in memory. Intended for tests and the cache/stats CLI surface.
func NewInMemoryEngineMetrics() EngineMetrics {
	return &inMemoryEngineMetrics{
		matchesByStrategy:   make(map[string]uint64),
		extractionsBySource: make(map[string]uint64),
		latency:             newLatencyHistogram(defaultLatencyBuckets),
	}
}

func (m *inMemoryEngineMetrics) RecordExtraction(_ context.Context, params *ExtractionMetricParams) {
	if params == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalExtractions++
	if params.Success {
		m.successfulExtractions++
	} else {
		m.failedExtractions++
	}
	source := params.Source
	if source == "" {
		source = "text"
	}
	m.extractionsBySource[source]++
	m.extractionMsSum += params.DurationMs
	m.latency.Observe(params.DurationMs)
}

func (m *inMemoryEngineMetrics) RecordFieldMatch(_ context.Context, params *FieldMatchMetricParams) {
	if params == nil {
		return
	}
	strategy := params.Strategy
	if strategy == "" {
		strategy = "none"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesByStrategy[strategy]++
}

func (m *inMemoryEngineMetrics) RecordBatchProcessing(_ context.Context, _ *BatchMetricParams) {
	// Batch aggregates are derivable from per-item extraction records; the
	// in-memory backend does not track them separately.
}

func (m *inMemoryEngineMetrics) RecordCacheAccess(_ context.Context, _ string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

func (m *inMemoryEngineMetrics) RecordCircuitBreakerStateChange(context.Context, string, string, string) {
}

func (m *inMemoryEngineMetrics) RecordVisualFallback(_ context.Context, _ string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visualFallbacks++
}

func (m *inMemoryEngineMetrics) GetExtractionLatencyHistogram(_ context.Context) (*LatencyHistogram, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latency.Snapshot(), nil
}

func (m *inMemoryEngineMetrics) GetCurrentStats(_ context.Context) (*EngineStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &EngineStats{
		TotalExtractions:      m.totalExtractions,
		SuccessfulExtractions: m.successfulExtractions,
		FailedExtractions:     m.failedExtractions,
		CacheHits:             m.cacheHits,
		CacheMisses:           m.cacheMisses,
		VisualFallbacks:       m.visualFallbacks,
		MatchesByStrategy:     make(map[string]uint64, len(m.matchesByStrategy)),
		ExtractionsBySource:   make(map[string]uint64, len(m.extractionsBySource)),
	}
	if m.totalExtractions > 0 {
		stats.AvgExtractionMs = m.extractionMsSum / float64(m.totalExtractions)
	}
	for k, v := range m.matchesByStrategy {
		stats.MatchesByStrategy[k] = v
	}
	for k, v := range m.extractionsBySource {
		stats.ExtractionsBySource[k] = v
	}
	return stats, nil
}

// ---------------------------------------------------------------------------
// Latency histogram
// ---------------------------------------------------------------------------

// LatencyHistogram is an immutable snapshot of a latency distribution.
type LatencyHistogram struct {
	// Buckets holds the upper bounds of each bucket in milliseconds,
	// ascending. An implicit +Inf bucket follows the last bound.
	Buckets []float64 `json:"buckets"`

	// Counts holds the observation count per bucket. len(Counts) equals
	// len(Buckets)+1; the final entry is the +Inf bucket.
	Counts []uint64 `json:"counts"`

	// Sum is the sum of all observed values.
	Sum float64 `json:"sum"`

	// Count is the total number of observations.
	Count uint64 `json:"count"`
}

// Percentile estimates the p-th percentile (0-100) using linear
// interpolation within the containing bucket.
func (h *LatencyHistogram) Percentile(p float64) float64 {
	if h == nil || h.Count == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	target := p / 100 * float64(h.Count)

	var cumulative uint64
	lower := 0.0
	for i, c := range h.Counts {
		var upper float64
		if i < len(h.Buckets) {
			upper = h.Buckets[i]
		} else {
			// +Inf bucket: report the last finite bound.
			return h.Buckets[len(h.Buckets)-1]
		}
		next := cumulative + c
		if float64(next) >= target && c > 0 {
			fraction := (target - float64(cumulative)) / float64(c)
			if fraction < 0 {
				fraction = 0
			}
			if fraction > 1 {
				fraction = 1
			}
			return lower + fraction*(upper-lower)
		}
		cumulative = next
		lower = upper
	}
	return h.Buckets[len(h.Buckets)-1]
}

// Mean returns the arithmetic mean of all observations.
func (h *LatencyHistogram) Mean() float64 {
	if h == nil || h.Count == 0 {
		return 0
	}
	return h.Sum / float64(h.Count)
}

// latencyHistogram is the mutable accumulator behind LatencyHistogram.
// Callers must hold their own lock; the in-memory metrics implementation
// guards it with its mutex.
type latencyHistogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newLatencyHistogram(buckets []float64) *latencyHistogram {
	b := make([]float64, len(buckets))
	copy(b, buckets)
	return &latencyHistogram{
		buckets: b,
		counts:  make([]uint64, len(b)+1),
	}
}

// Observe records a single value.
func (h *latencyHistogram) Observe(v float64) {
	idx := len(h.buckets) // +Inf bucket by default
	for i, upper := range h.buckets {
		if v <= upper {
			idx = i
			break
		}
	}
	h.counts[idx]++
	h.sum += v
	h.count++
}

// Snapshot returns an immutable copy of the current distribution.
func (h *latencyHistogram) Snapshot() *LatencyHistogram {
	s := &LatencyHistogram{
		Buckets: make([]float64, len(h.buckets)),
		Counts:  make([]uint64, len(h.counts)),
		Sum:     h.sum,
		Count:   h.count,
	}
	copy(s.Buckets, h.buckets)
	copy(s.Counts, h.counts)
	return s
}
