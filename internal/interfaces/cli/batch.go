package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/sdsmatch/internal/application/batchproc"
)

// batchOptions holds flags for the batch command.
type batchOptions struct {
	SchemaPath string
	OutputDir  string
	XLSX       bool
}

// NewBatchCmd creates the directory batch extraction command.
func NewBatchCmd() *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch <input-dir>",
		Short: "Extract schema fields from every document in a directory",
		Long:  "Batch scans a directory for supported documents, extracts each one against\nthe schema, writes per-document JSON results plus a run summary to the output\ndirectory, and prints the run report.",
		Example: `  sdsmatch batch ./incoming --schema sds.schema
  sdsmatch batch ./incoming --schema sds.schema --output ./results --xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.SchemaPath, "schema", "s", "", "path to the interface schema file (required)")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", "", "directory for result files (default: configured report directory)")
	cmd.Flags().BoolVar(&opts.XLSX, "xlsx", false, "also write a spreadsheet summary")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runBatch(cmd *cobra.Command, inputDir string, opts *batchOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	schemaSource, err := readSchemaFile(opts.SchemaPath)
	if err != nil {
		return err
	}

	if opts.XLSX {
		cliCtx.Config.Report.XLSX = true
	}

	svcs, err := buildServices(cliCtx)
	if err != nil {
		return err
	}
	defer svcs.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	defer cancel()

	report, err := svcs.runner.Run(ctx, &batchproc.RunRequest{
		InputDir:     inputDir,
		SchemaSource: schemaSource,
		OutputDir:    opts.OutputDir,
	})
	if err != nil {
		return err
	}

	return PrintResult(cmd, &batchReportView{report})
}

// batchReportView adapts a run report for table and text output.
type batchReportView struct {
	*batchproc.RunReport
}

func (v *batchReportView) TableHeaders() []string {
	return []string{"Document", "Status", "Cache", "Visual", "Duration (ms)", "Error"}
}

func (v *batchReportView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Documents))
	for _, d := range v.Documents {
		rows = append(rows, []string{
			d.Path,
			d.Status,
			strconv.FormatBool(d.CacheHit),
			strconv.FormatBool(d.UsedVisual),
			strconv.FormatFloat(d.DurationMs, 'f', 1, 64),
			d.Error,
		})
	}
	return rows
}

func (v *batchReportView) String() string {
	return fmt.Sprintf("run %s: %d documents, %d succeeded, %d failed, %d cache hits (results: %s)",
		v.RunID, v.Total, v.Succeeded, v.Failed, v.CacheHits, v.OutputDir)
}
