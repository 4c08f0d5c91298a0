// Package pdftext turns document files into the plain-text Document the
// extraction engine consumes. A provider is chosen by file extension: PDFs
// go through the embedded-text reader, plain-text files are read directly
// with an optional table sidecar. All provider output is Unicode-normalized
// so the matcher sees one canonical form of every character.
package pdftext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/turtacn/sdsmatch/pkg/errors"
	"github.com/turtacn/sdsmatch/pkg/types"
)

// Provider loads one document format into a Document.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Supports reports whether the provider handles the file at path,
	// judged by extension only.
	Supports(path string) bool

	// Load reads the file and returns its text and any structured tables.
	// The returned Document is never nil on success; an unreadable or
	// unparseable file is an error, an empty but readable file is not.
	Load(ctx context.Context, path string) (*types.Document, error)
}

// providers in dispatch order.
var providers = []Provider{
	&PDFProvider{},
	&TextProvider{},
}

// ForFile selects the provider for path by extension.
func ForFile(path string) (Provider, error) {
	for _, p := range providers {
		if p.Supports(path) {
			return p, nil
		}
	}
	return nil, errors.New(errors.ErrCodeDocumentUnsupported,
		fmt.Sprintf("no provider for file extension %q", filepath.Ext(path)))
}

// Load is the one-call form of ForFile + Provider.Load.
func Load(ctx context.Context, path string) (*types.Document, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	return p.Load(ctx, path)
}

// SupportedExtensions lists the extensions Load accepts, lowercase with the
// leading dot.
func SupportedExtensions() []string {
	return []string{".pdf", ".txt", ".text"}
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
