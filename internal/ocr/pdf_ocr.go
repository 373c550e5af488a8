package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/medparams/constants"
)

// ExtractPDF rasterizes every page and OCRs them in order. Pages are joined
// with a blank line. A page that fails OCR is skipped with a warning; the
// PDF fails only when no page produced text.
func (e *Engine) ExtractPDF(ctx context.Context, path string) (Result, error) {
	res := Result{SourceType: constants.PDF, Method: "pdf-ocr", Language: e.cfg.TesseractLang}

	tmpDir, err := os.MkdirTemp("", "medparams-pp-*")
	if err != nil {
		return res, err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("ocr.pdf.cleanup_failed", "dir", dir, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		res.Warnings = append(res.Warnings, strings.TrimSpace(string(errb)))
		return res, fmt.Errorf("pdftoppm: %w", err)
	}

	pages, _ := filepath.Glob(prefix + "-*.png")
	sortPages(pages)
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		res.Warnings = append(res.Warnings, fmt.Sprintf("only the first %d of %d pages were read", e.cfg.MaxPages, len(pages)))
		pages = pages[:e.cfg.MaxPages]
	}
	if len(pages) == 0 {
		return res, fmt.Errorf("pdftoppm produced no pages")
	}

	texts := make([]string, 0, len(pages))
	for _, img := range pages {
		txt, err := e.tesseract(ctx, img)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", filepath.Base(img), err))
			continue
		}
		texts = append(texts, txt)
	}
	res.Pages = len(pages)
	if len(texts) == 0 {
		return res, fmt.Errorf("ocr failed on all %d pages", len(pages))
	}
	res.Text = strings.Join(texts, "\n\n")
	return res, nil
}

// sortPages orders page-N.png numerically; pdftoppm zero-pads by page count,
// but not every version does.
func sortPages(pages []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		n := 0
		if i := strings.LastIndexByte(base, '-'); i >= 0 {
			fmt.Sscanf(base[i+1:], "%d", &n)
		}
		return n
	}
	sort.SliceStable(pages, func(i, j int) bool { return num(pages[i]) < num(pages[j]) })
}
