package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/sdsmatch/internal/application/extraction"
	"github.com/turtacn/sdsmatch/pkg/errors"
)

// extractOptions holds flags for the extract command.
type extractOptions struct {
	SchemaPath string
	NoCache    bool
	ShowMeta   bool
}

// NewExtractCmd creates the single-document extraction command.
func NewExtractCmd() *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <document>",
		Short: "Extract schema fields from a single document",
		Long:  "Extract reads one PDF or text document, matches it against the schema\ndeclared in the --schema file, and prints the resulting JSON object.",
		Example: `  sdsmatch extract bleach.pdf --schema sds.schema
  sdsmatch extract msds.txt --schema sds.schema --no-cache -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.SchemaPath, "schema", "s", "", "path to the interface schema file (required)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "bypass the result cache")
	cmd.Flags().BoolVar(&opts.ShowMeta, "show-meta", false, "include request metadata (timings, cache, visual) in the output")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runExtract(cmd *cobra.Command, docPath string, opts *extractOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	schemaSource, err := readSchemaFile(opts.SchemaPath)
	if err != nil {
		return err
	}

	svcs, err := buildServices(cliCtx)
	if err != nil {
		return err
	}
	defer svcs.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	defer cancel()

	result, err := svcs.service.ExtractFile(ctx, &extraction.ExtractRequest{
		Path:         docPath,
		SchemaSource: schemaSource,
		BypassCache:  opts.NoCache,
	})
	if err != nil {
		return err
	}

	if opts.ShowMeta {
		return PrintResult(cmd, result)
	}
	return PrintResult(cmd, result.Result)
}

// readSchemaFile loads and sanity-checks an interface schema file.
func readSchemaFile(path string) (string, error) {
	if path == "" {
		return "", errors.Validation("schema file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.DocumentRead("read schema file").WithCause(err).WithDetail("path=" + path)
	}
	source := string(data)
	if strings.TrimSpace(source) == "" {
		return "", errors.Validation("schema file is empty").WithDetail("path=" + path)
	}
	return source, nil
}
