package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/medparams/constants"
)

func (e *Engine) ExtractImage(ctx context.Context, path string) (Result, error) {
	res := Result{SourceType: constants.IMAGE, Method: "image-ocr", Language: e.cfg.TesseractLang}
	txt, err := e.tesseract(ctx, path)
	if err != nil {
		return res, err
	}
	res.Text = txt
	res.Pages = 1
	return res, nil
}

// tesseract <file> stdout -l <lang> [--psm N] [--tessdata-dir D]
func (e *Engine) tesseract(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, truncate(msg, 512))
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return Normalize(string(out)), nil
}
