// Package textextract converts uploaded documents (PDF, images, DOCX, XLSX,
// plain text) into the text blocks fed to the extraction pipeline.
//
// A document that cannot be read still yields a text block describing the
// failure, so one bad file never aborts a request.
package textextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/ocr"
)

// OCR is the subset of *ocr.Engine used here.
type OCR interface {
	ExtractPDF(ctx context.Context, path string) (ocr.Result, error)
	ExtractImage(ctx context.Context, path string) (ocr.Result, error)
}

type Service struct {
	ocr    OCR
	logger *slog.Logger
}

var _ TextExtractor = (*Service)(nil)

func NewService(engine OCR, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ocr: engine, logger: logger}
}

// Extract reads path according to its extension. The returned error mirrors
// Result.Err; Result.Text is populated either way.
func (s *Service) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := strings.ToLower(filepath.Ext(path))
	kind := constants.MapExtToFormat(ext)
	res := Result{Path: path, SourceType: kind}

	var err error
	switch kind {
	case constants.PDF:
		err = s.fromOCR(&res, func() (ocr.Result, error) { return s.ocr.ExtractPDF(ctx, path) })
	case constants.IMAGE:
		err = s.fromOCR(&res, func() (ocr.Result, error) { return s.ocr.ExtractImage(ctx, path) })
	case constants.DOCX:
		res.Method = "docx-xml"
		res.Text, err = readDOCX(path)
	case constants.XLSX:
		res.Method = "xlsx-cells"
		res.Text, err = readXLSX(path)
	case constants.TXT:
		res.Method = "plain"
		res.Text, err = readTXT(path)
	default:
		res.Text = "Unsupported file format: " + ext
		res.Err = fmt.Errorf("unsupported file format %q", ext)
		s.logger.Warn("textextract.unsupported", "path", path, "ext", ext)
		return res, res.Err
	}
	res.Duration = time.Since(start)

	if err != nil {
		res.Err = err
		res.Text = fmt.Sprintf("Error extracting text from %s: %v", kindLabel(kind), err)
		s.logger.Warn("textextract.failed",
			"path", path,
			"kind", kind,
			"error", err,
			"duration_ms", res.Duration.Milliseconds(),
		)
		return res, err
	}
	s.logger.Info("textextract.ok",
		"path", path,
		"kind", kind,
		"method", res.Method,
		"chars", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// ExtractAll processes paths one after another and keeps their order.
func (s *Service) ExtractAll(ctx context.Context, paths []string) []Result {
	out := make([]Result, 0, len(paths))
	for _, p := range paths {
		r, _ := s.Extract(ctx, p)
		out = append(out, r)
	}
	return out
}

// Texts returns the text of every result, in order.
func Texts(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Text
	}
	return out
}

func (s *Service) fromOCR(res *Result, run func() (ocr.Result, error)) error {
	if s.ocr == nil {
		return errors.New("ocr engine is not configured")
	}
	r, err := run()
	res.Method = r.Method
	res.Pages = r.Pages
	res.Warnings = r.Warnings
	if err != nil {
		return err
	}
	res.Text = r.Text
	return nil
}

func kindLabel(kind string) string {
	if kind == constants.IMAGE {
		return "image"
	}
	return kind
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readTXT(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return "", errors.New("file is not valid UTF-8")
	}
	return string(raw), nil
}
