package pdftext

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/turtacn/sdsmatch/pkg/errors"
	"github.com/turtacn/sdsmatch/pkg/types"
)

// TextProvider reads pre-extracted plain-text documents. A sidecar file
// named <base>.tables.json next to the text file supplies structured tables
// as a JSON array of row-major string grids; it is optional, and a missing
// sidecar is not an error.
type TextProvider struct{}

func (p *TextProvider) Name() string { return "text" }

func (p *TextProvider) Supports(path string) bool {
	return hasExt(path, ".txt", ".text")
}

func (p *TextProvider) Load(ctx context.Context, path string) (*types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDocumentRead,
			fmt.Sprintf("read text file %s", path))
	}

	tables, err := loadTableSidecar(sidecarPath(path))
	if err != nil {
		return nil, err
	}

	return &types.Document{
		Text:   NormalizeText(string(raw)),
		Tables: tables,
		Source: path,
	}, nil
}

// sidecarPath maps document.txt to document.tables.json.
func sidecarPath(path string) string {
	base := strings.TrimSuffix(path, "."+lastExt(path))
	return base + ".tables.json"
}

func lastExt(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return ""
}

func loadTableSidecar(path string) ([]types.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeDocumentRead,
			fmt.Sprintf("read table sidecar %s", path))
	}

	var grids [][][]string
	if err := json.Unmarshal(raw, &grids); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization,
			fmt.Sprintf("parse table sidecar %s", path))
	}

	tables := make([]types.Table, 0, len(grids))
	for _, grid := range grids {
		rows := make([][]string, 0, len(grid))
		for _, row := range grid {
			cells := make([]string, len(row))
			for i, cell := range row {
				cells[i] = NormalizeText(cell)
			}
			rows = append(rows, cells)
		}
		tables = append(tables, types.Table{Rows: rows})
	}
	return tables, nil
}
