package extraction_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sdsmatch/internal/application/extraction"
	"github.com/turtacn/sdsmatch/internal/config"
	"github.com/turtacn/sdsmatch/internal/engine/extract"
	"github.com/turtacn/sdsmatch/internal/infrastructure/cache"
	"github.com/turtacn/sdsmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/sdsmatch/pkg/errors"
	"github.com/turtacn/sdsmatch/pkg/types"
)

const testSchema = `interface SDS {
  productName: string;
  signalWord: string;
}`

const testText = "Product Name: Acme Cleaner Plus\nSignal Word: Danger\n"

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newService(t *testing.T, store cache.Store, visual *fakeVisual, visualCfg config.VisualConfig) extraction.Service {
	t.Helper()
	engine := extract.New(nil, nil, nil)
	if visual == nil {
		return extraction.NewService(engine, store, nil, visualCfg, nil, nil)
	}
	return extraction.NewService(engine, store, visual, visualCfg, nil, nil)
}

// fakeVisual is a hand-rolled stub for the visual collaborator.
type fakeVisual struct {
	doc   *types.Document
	err   error
	calls int
}

func (f *fakeVisual) Extract(ctx context.Context, path string) (*types.Document, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func (f *fakeVisual) Health(context.Context) error { return nil }

func TestExtractFile_TextDocument(t *testing.T) {
	path := writeDoc(t, "sheet.txt", testText)
	svc := newService(t, nil, nil, config.VisualConfig{})

	res, err := svc.ExtractFile(context.Background(), &extraction.ExtractRequest{
		Path:         path,
		SchemaSource: testSchema,
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Cleaner Plus", res.Result["productName"])
	assert.Equal(t, "Danger", res.Result["signalWord"])
	assert.NotEmpty(t, res.RequestID)
	assert.False(t, res.CacheHit)
	assert.False(t, res.UsedVisual)
	assert.Equal(t, path, res.Source)
}

func TestExtractFile_CacheHitOnSecondRun(t *testing.T) {
	path := writeDoc(t, "sheet.txt", testText)
	store, err := cache.NewStore(config.CacheConfig{
		Backend: "disk", Dir: t.TempDir(), MaxSizeMB: 10, MaxAgeDays: 1,
	}, logging.NewNopLogger())
	require.NoError(t, err)
	svc := newService(t, store, nil, config.VisualConfig{})
	req := &extraction.ExtractRequest{Path: path, SchemaSource: testSchema}

	first, err := svc.ExtractFile(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Positive(t, first.TextChars)

	second, err := svc.ExtractFile(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Result, second.Result)
	// A hit skips document loading; the per-run fields stay zero.
	assert.Zero(t, second.TextChars)
	assert.False(t, second.UsedVisual)
}

func TestExtractFile_BypassCache(t *testing.T) {
	path := writeDoc(t, "sheet.txt", testText)
	store, err := cache.NewStore(config.CacheConfig{
		Backend: "disk", Dir: t.TempDir(), MaxSizeMB: 10, MaxAgeDays: 1,
	}, logging.NewNopLogger())
	require.NoError(t, err)
	svc := newService(t, store, nil, config.VisualConfig{})

	req := &extraction.ExtractRequest{Path: path, SchemaSource: testSchema}
	_, err = svc.ExtractFile(context.Background(), req)
	require.NoError(t, err)

	req.BypassCache = true
	res, err := svc.ExtractFile(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
}

func TestExtractFile_VisualFallbackOnEmptyText(t *testing.T) {
	path := writeDoc(t, "scan.txt", "   \n")
	visual := &fakeVisual{doc: &types.Document{Text: testText, Source: path}}
	svc := newService(t, nil, visual, config.VisualConfig{
		Enabled:       true,
		Endpoint:      "http://visual.local",
		MinTextLength: 20,
	})

	res, err := svc.ExtractFile(context.Background(), &extraction.ExtractRequest{
		Path:         path,
		SchemaSource: testSchema,
	})
	require.NoError(t, err)

	assert.True(t, res.UsedVisual)
	assert.Equal(t, 1, visual.calls)
	assert.Equal(t, "Acme Cleaner Plus", res.Result["productName"])
}

func TestExtractFile_VisualFailureDegradesToTextLayer(t *testing.T) {
	path := writeDoc(t, "scan.txt", "   \n")
	visual := &fakeVisual{err: errors.Unavailable("visual service down")}
	svc := newService(t, nil, visual, config.VisualConfig{
		Enabled:       true,
		Endpoint:      "http://visual.local",
		MinTextLength: 20,
	})

	res, err := svc.ExtractFile(context.Background(), &extraction.ExtractRequest{
		Path:         path,
		SchemaSource: testSchema,
	})
	require.NoError(t, err)

	assert.False(t, res.UsedVisual)
	assert.Equal(t, "", res.Result["productName"], "empty text degrades to defaults")
}

func TestExtractFile_VisualSkippedWhenTextSufficient(t *testing.T) {
	path := writeDoc(t, "sheet.txt", testText)
	visual := &fakeVisual{doc: &types.Document{Text: "other"}}
	svc := newService(t, nil, visual, config.VisualConfig{
		Enabled:       true,
		Endpoint:      "http://visual.local",
		MinTextLength: 10,
	})

	res, err := svc.ExtractFile(context.Background(), &extraction.ExtractRequest{
		Path:         path,
		SchemaSource: testSchema,
	})
	require.NoError(t, err)

	assert.False(t, res.UsedVisual)
	assert.Zero(t, visual.calls)
}

func TestExtractFile_Validation(t *testing.T) {
	svc := newService(t, nil, nil, config.VisualConfig{})
	ctx := context.Background()

	_, err := svc.ExtractFile(ctx, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = svc.ExtractFile(ctx, &extraction.ExtractRequest{SchemaSource: testSchema})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = svc.ExtractFile(ctx, &extraction.ExtractRequest{Path: "x.txt"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestExtractFile_MissingFile(t *testing.T) {
	svc := newService(t, nil, nil, config.VisualConfig{})

	_, err := svc.ExtractFile(context.Background(), &extraction.ExtractRequest{
		Path:         filepath.Join(t.TempDir(), "absent.txt"),
		SchemaSource: testSchema,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDocumentRead))
}

func TestExtractText(t *testing.T) {
	svc := newService(t, nil, nil, config.VisualConfig{})

	res, err := svc.ExtractText(context.Background(), testSchema, testText)
	require.NoError(t, err)

	assert.Equal(t, "Acme Cleaner Plus", res.Result["productName"])
	assert.Equal(t, "text", res.Source)

	_, err = svc.ExtractText(context.Background(), "   ", testText)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}
