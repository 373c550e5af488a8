package textextract

import (
	"context"
	"time"
)

// TextExtractor turns one document into text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Result is always usable as document text: on failure Text carries a
// human-readable error line and Err is set.
type Result struct {
	Path       string
	Text       string
	SourceType string // constants.PDF | IMAGE | DOCX | XLSX | TXT, "" when unsupported
	Method     string
	Pages      int
	Duration   time.Duration
	Warnings   []string
	Err        error
}

// OK reports whether real text was extracted.
func (r Result) OK() bool { return r.Err == nil }
