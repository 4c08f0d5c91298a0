// Package batchproc runs one schema against every document in a directory.
// Documents are processed concurrently through the generic batch processor;
// each document is isolated, so one unreadable PDF never aborts the run.
// Results land as per-document JSON files plus an optional XLSX summary.
package batchproc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/sdsmatch/internal/application/extraction"
	"github.com/turtacn/sdsmatch/internal/config"
	"github.com/turtacn/sdsmatch/internal/engine/common"
	"github.com/turtacn/sdsmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/sdsmatch/internal/infrastructure/pdftext"
	"github.com/turtacn/sdsmatch/pkg/errors"
)

// ---------------------------------------------------------------------------
// Request / Report DTOs
// ---------------------------------------------------------------------------

// RunRequest describes one directory batch.
type RunRequest struct {
	// InputDir is scanned non-recursively for supported document files.
	InputDir string `json:"input_dir"`

	// SchemaSource is the interface declaration applied to every document.
	SchemaSource string `json:"schema_source"`

	// OutputDir overrides the configured report directory when non-empty.
	OutputDir string `json:"output_dir,omitempty"`
}

// DocumentReport is the per-document line of a batch report.
type DocumentReport struct {
	Path       string                     `json:"path"`
	Status     string                     `json:"status"`
	Error      string                     `json:"error,omitempty"`
	DurationMs float64                    `json:"duration_ms"`
	CacheHit   bool                       `json:"cache_hit"`
	UsedVisual bool                       `json:"used_visual"`
	Result     *extraction.DocumentResult `json:"-"`
}

// RunReport summarizes one batch run.
type RunReport struct {
	RunID       string           `json:"run_id"`
	InputDir    string           `json:"input_dir"`
	OutputDir   string           `json:"output_dir"`
	Documents   []DocumentReport `json:"documents"`
	Total       int              `json:"total"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	CacheHits   int              `json:"cache_hits"`
	VisualRuns  int              `json:"visual_runs"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	ReportPath  string           `json:"report_path,omitempty"`
	SummaryXLSX string           `json:"summary_xlsx,omitempty"`
}

// ---------------------------------------------------------------------------
// Runner
// ---------------------------------------------------------------------------

// Runner orchestrates directory batches over the single-document service.
type Runner struct {
	svc       extraction.Service
	batchCfg  config.BatchConfig
	reportCfg config.ReportConfig
	logger    logging.Logger
	metrics   common.EngineMetrics
}

func NewRunner(
	svc extraction.Service,
	batchCfg config.BatchConfig,
	reportCfg config.ReportConfig,
	logger logging.Logger,
	metrics common.EngineMetrics,
) *Runner {
	if svc == nil {
		panic("batchproc: extraction service must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = common.NewNoopEngineMetrics()
	}
	return &Runner{
		svc:       svc,
		batchCfg:  batchCfg,
		reportCfg: reportCfg,
		logger:    logger.Named("batch"),
		metrics:   metrics,
	}
}

// Run scans, extracts and reports. It fails only for unusable input (missing
// directory, empty schema, no documents) or an unwritable output directory;
// per-document failures are recorded in the report instead.
func (r *Runner) Run(ctx context.Context, req *RunRequest) (*RunReport, error) {
	if req == nil || strings.TrimSpace(req.SchemaSource) == "" {
		return nil, errors.Validation("batch run needs an input directory and a schema")
	}
	paths, err := scanDocuments(req.InputDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.NotFound("no supported documents in " + req.InputDir)
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = r.reportCfg.OutputDir
	}
	if outputDir == "" {
		return nil, errors.Validation("batch run needs an output directory")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportWrite, "create output directory "+outputDir)
	}

	report := &RunReport{
		RunID:     uuid.NewString(),
		InputDir:  req.InputDir,
		OutputDir: outputDir,
		StartedAt: time.Now().UTC(),
	}
	r.logger.Info("batch run starting",
		logging.String("run_id", report.RunID),
		logging.String("input_dir", req.InputDir),
		logging.Int("documents", len(paths)),
		logging.Int("workers", r.batchCfg.Workers),
	)

	processor := common.NewBatchProcessor[string, *extraction.DocumentResult](
		common.WithBatchName("directory-extraction"),
		common.WithMaxConcurrency(r.batchCfg.Workers),
		common.WithItemTimeout(r.batchCfg.ItemTimeout),
		common.WithBatchTimeout(r.batchCfg.BatchTimeout),
		common.WithRetryPolicy(r.batchCfg.MaxRetries, r.batchCfg.RetryBackoff),
		common.WithBatchMetrics(r.metrics),
	)

	batch, err := processor.Process(ctx, paths, func(ctx context.Context, path string) (*extraction.DocumentResult, error) {
		return r.svc.ExtractFile(ctx, &extraction.ExtractRequest{
			Path:         path,
			SchemaSource: req.SchemaSource,
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBatchAborted, "batch processing failed")
	}

	for _, item := range batch.Results {
		doc := DocumentReport{
			Path:       paths[item.Index],
			Status:     item.Status.String(),
			DurationMs: item.DurationMs,
		}
		if item.Error != nil {
			doc.Error = item.Error.Error()
		}
		if item.Status == common.ItemStatusSuccess && item.Result != nil {
			doc.Result = item.Result
			doc.CacheHit = item.Result.CacheHit
			doc.UsedVisual = item.Result.UsedVisual
			report.Succeeded++
			if doc.CacheHit {
				report.CacheHits++
			}
			if doc.UsedVisual {
				report.VisualRuns++
			}
		} else {
			report.Failed++
		}
		report.Documents = append(report.Documents, doc)
	}
	report.Total = batch.TotalCount
	report.FinishedAt = time.Now().UTC()

	if err := r.writeResults(report); err != nil {
		return nil, err
	}
	if r.reportCfg.XLSX {
		xlsxPath := filepath.Join(outputDir, "summary.xlsx")
		if err := writeXLSXSummary(xlsxPath, report); err != nil {
			return nil, err
		}
		report.SummaryXLSX = xlsxPath
	}

	r.logger.Info("batch run finished",
		logging.String("run_id", report.RunID),
		logging.Int("total", report.Total),
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.Int("cache_hits", report.CacheHits),
	)
	return report, nil
}

// scanDocuments lists supported files in dir, sorted for a stable run order.
func scanDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDocumentRead, "scan input directory "+dir)
	}
	supported := make(map[string]struct{})
	for _, ext := range pdftext.SupportedExtensions() {
		supported[ext] = struct{}{}
	}

	var paths []string
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(de.Name()))
		if _, ok := supported[ext]; !ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, de.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// writeResults writes each successful document's result and the run summary.
func (r *Runner) writeResults(report *RunReport) error {
	for _, doc := range report.Documents {
		if doc.Result == nil {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(doc.Path), filepath.Ext(doc.Path)) + ".json"
		raw, err := json.MarshalIndent(doc.Result.Result, "", "  ")
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encode result for "+doc.Path)
		}
		if err := os.WriteFile(filepath.Join(report.OutputDir, name), raw, 0o644); err != nil {
			return errors.Wrap(err, errors.ErrCodeReportWrite, "write result for "+doc.Path)
		}
	}

	summaryPath := filepath.Join(report.OutputDir, fmt.Sprintf("run-%s.json", report.RunID))
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode run report")
	}
	if err := os.WriteFile(summaryPath, raw, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeReportWrite, "write run report")
	}
	report.ReportPath = summaryPath
	return nil
}
