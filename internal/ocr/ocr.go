// Package ocr turns scanned documents into text with the poppler and
// tesseract command-line tools.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/medparams/constants"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "ces+eng"
	TessdataDir   string
	DPI           int // rasterization DPI for PDFs, default 300
	MaxPages      int // 0 = no limit

	PSM int // page segmentation mode; 0 leaves tesseract's default
}

type Result struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
}

type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "ces+eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Engine{cfg: cfg, runner: execRunner{}, logger: logger}
}

// WithRunner swaps the command runner; tests use it to fake the binaries.
func (e *Engine) WithRunner(r Runner) *Engine {
	e.runner = r
	return e
}

// Extract picks a strategy based on file extension.
func (e *Engine) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := filepath.Ext(path)
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)
	var (
		res Result
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.ExtractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.ExtractImage(ctx, path)
	default:
		e.logger.Error("ocr.extract.unsupported", "path", path, "ext", ext)
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Warn("ocr.extract.failed", "path", path, "error", err, "duration_ms", res.Duration.Milliseconds())
		return res, err
	}
	e.logger.Info("ocr.extract.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
