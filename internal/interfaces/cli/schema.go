package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/sdsmatch/internal/engine/schema"
	"github.com/turtacn/sdsmatch/pkg/errors"
	"github.com/turtacn/sdsmatch/pkg/types"
)

// NewSchemaCmd creates the schema inspection command group.
func NewSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect interface schema files",
	}

	cmd.AddCommand(newSchemaInspectCmd())

	return cmd
}

func newSchemaInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <schema-file>",
		Short: "Parse a schema file and show its field tree",
		Long:  "Inspect parses an interface schema file and prints the resulting field\ntree: one line per field with its kind and the search terms derived from\nthe field name and annotations.",
		Example: `  sdsmatch schema inspect sds.schema
  sdsmatch schema inspect sds.schema -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaInspect(cmd, args[0])
		},
	}
}

func runSchemaInspect(cmd *cobra.Command, path string) error {
	source, err := readSchemaFile(path)
	if err != nil {
		return err
	}

	root := schema.Parse(source)
	if root == nil || (len(root.Children) == 0 && len(root.ItemSchema) == 0) {
		return errors.New(errors.ErrCodeSchemaEmpty, "schema declares no fields").WithDetail("path=" + path)
	}

	return PrintResult(cmd, &schemaView{root})
}

// schemaView adapts a parsed schema for text and table output.
type schemaView struct {
	Root *types.SchemaNode
}

func (v *schemaView) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Root)
}

func (v *schemaView) String() string {
	var sb strings.Builder
	writeNodeTree(&sb, v.Root, 0)
	return strings.TrimRight(sb.String(), "\n")
}

func (v *schemaView) TableHeaders() []string {
	return []string{"Field", "Kind", "Search Terms"}
}

func (v *schemaView) TableRows() [][]string {
	var rows [][]string
	collectNodeRows(&rows, v.Root, "")
	return rows
}

// writeNodeTree renders one node per line, indented by depth.
func writeNodeTree(sb *strings.Builder, node *types.SchemaNode, depth int) {
	if node == nil {
		return
	}
	if node.Name != "" {
		fmt.Fprintf(sb, "%s%s  (%s)\n", strings.Repeat("  ", depth), node.Name, node.Kind)
		depth++
	}
	for _, child := range node.Children {
		writeNodeTree(sb, child, depth)
	}
	for _, item := range node.ItemSchema {
		writeNodeTree(sb, item, depth)
	}
}

func collectNodeRows(rows *[][]string, node *types.SchemaNode, prefix string) {
	if node == nil {
		return
	}
	path := prefix
	if node.Name != "" {
		if path != "" {
			path += "."
		}
		path += node.Name
		*rows = append(*rows, []string{path, string(node.Kind), strings.Join(node.SearchTerms, ", ")})
	}
	for _, child := range node.Children {
		collectNodeRows(rows, child, path)
	}
	for _, item := range node.ItemSchema {
		collectNodeRows(rows, item, path+"[]")
	}
}
