package pdftext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/turtacn/sdsmatch/internal/config"
	"github.com/turtacn/sdsmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/sdsmatch/pkg/errors"
	"github.com/turtacn/sdsmatch/pkg/types"
)

// VisualExtractor is the optional document-understanding collaborator used
// when a PDF has no usable text layer. Implementations run a layout/OCR
// model behind an HTTP endpoint; the engine never depends on one directly.
type VisualExtractor interface {
	Extract(ctx context.Context, path string) (*types.Document, error)
	Health(ctx context.Context) error
}

var (
	ErrVisualUnavailable = errors.New(errors.ErrCodeVisualUnavailable, "visual extraction service unavailable")
	ErrVisualBadResponse = errors.New(errors.ErrCodeVisualBadResponse, "visual extraction service returned an unusable response")
)

// HTTPVisualExtractor calls a remote visual extraction service. The service
// accepts a multipart upload under the "file" field and answers with the
// recovered text and row-major tables.
type HTTPVisualExtractor struct {
	endpoint   string
	minLength  int
	httpClient *http.Client
	logger     logging.Logger
}

// NewHTTPVisualExtractor builds the client from configuration. The caller
// is expected to have validated cfg; a zero timeout falls back to 30s.
func NewHTTPVisualExtractor(cfg config.VisualConfig, logger logging.Logger) *HTTPVisualExtractor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPVisualExtractor{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		minLength:  cfg.MinTextLength,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("visual"),
	}
}

// visualResponse is the service's answer format.
type visualResponse struct {
	Text   string       `json:"text"`
	Tables [][][]string `json:"tables,omitempty"`
}

func (v *HTTPVisualExtractor) Extract(ctx context.Context, path string) (*types.Document, error) {
	body, contentType, err := multipartFile(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint+"/extract", body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVisualUnavailable, "build visual extraction request")
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.logger.Warn("visual extraction request failed",
			logging.String("path", path), logging.Err(err))
		return nil, ErrVisualUnavailable.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrVisualUnavailable.WithDetail(
			fmt.Sprintf("service answered %s", resp.Status))
	}

	var parsed visualResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, ErrVisualBadResponse.WithCause(err)
	}

	text := NormalizeText(parsed.Text)
	if len(strings.TrimSpace(text)) < v.minLength {
		return nil, ErrVisualBadResponse.WithDetail(
			fmt.Sprintf("text length %d below minimum %d", len(text), v.minLength))
	}

	tables := make([]types.Table, 0, len(parsed.Tables))
	for _, grid := range parsed.Tables {
		tables = append(tables, types.Table{Rows: grid})
	}

	v.logger.Debug("visual extraction complete",
		logging.String("path", path),
		logging.Int("text_chars", len(text)),
		logging.Int("tables", len(tables)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return &types.Document{Text: text, Tables: tables, Source: path}, nil
}

func (v *HTTPVisualExtractor) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return ErrVisualUnavailable.WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ErrVisualUnavailable.WithDetail(resp.Status)
	}
	return nil
}

// multipartFile buffers path into a multipart body under the "file" field.
func multipartFile(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeDocumentRead,
			fmt.Sprintf("open %s for visual extraction", path))
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeInternal, "build multipart body")
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeDocumentRead,
			fmt.Sprintf("read %s for visual extraction", path))
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeInternal, "finalize multipart body")
	}
	return &buf, w.FormDataContentType(), nil
}
