package pdftext

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/turtacn/sdsmatch/pkg/errors"
	"github.com/turtacn/sdsmatch/pkg/types"
)

// PDFProvider extracts embedded text from PDF files. Text is read row by
// row so line boundaries survive; a PDF whose pages carry no text layer
// (pure scans) loads successfully as an empty Document, which callers treat
// as the trigger for visual extraction.
type PDFProvider struct{}

func (p *PDFProvider) Name() string { return "pdf" }

func (p *PDFProvider) Supports(path string) bool {
	return hasExt(path, ".pdf")
}

func (p *PDFProvider) Load(ctx context.Context, path string) (*types.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePDFParse,
			fmt.Sprintf("open pdf %s", path))
	}
	defer f.Close()

	var sb strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		// GetTextByRow keeps line structure; GetPlainText runs all text
		// together without breaks, which defeats line-oriented matching.
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodePDFParse,
				fmt.Sprintf("read text of page %d in %s", i, path))
		}
		for _, row := range rows {
			var words []string
			for _, word := range row.Content {
				if s := strings.TrimSpace(word.S); s != "" {
					words = append(words, s)
				}
			}
			if len(words) > 0 {
				sb.WriteString(strings.Join(words, " "))
				sb.WriteByte('\n')
			}
		}
	}

	return &types.Document{
		Text:   NormalizeText(sb.String()),
		Source: path,
	}, nil
}
