package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/medparams/constants"
)

// fakeRunner emulates pdftoppm (writes page files) and tesseract (echoes a
// canned text per input file).
type fakeRunner struct {
	mu      sync.Mutex
	pages   int
	pdfErr  error
	ocr     map[string]string // base name -> text
	ocrFail map[string]bool
	calls   [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	switch name {
	case "pdftoppm":
		if f.pdfErr != nil {
			return nil, []byte("Syntax Error: Couldn't read xref table"), f.pdfErr
		}
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), nil, 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		base := filepath.Base(args[0])
		if f.ocrFail[base] {
			return nil, []byte("Error in pixReadStream"), errors.New("exit status 1")
		}
		return []byte(f.ocr[base]), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %s", name)
}

func TestExtractImage(t *testing.T) {
	r := &fakeRunner{ocr: map[string]string{"scan.png": "Výška: 180 cm  \r\n\r\n\r\n\r\nBMI 24\f"}}
	e := NewEngine(Config{PSM: 6, TessdataDir: "/tess"}, nil).WithRunner(r)

	res, err := e.ExtractImage(context.Background(), "/docs/scan.png")
	require.NoError(t, err)
	assert.Equal(t, "Výška: 180 cm\n\nBMI 24", res.Text)
	assert.Equal(t, constants.IMAGE, res.SourceType)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "ces+eng", res.Language)

	assert.Equal(t, []string{"tesseract", "/docs/scan.png", "stdout", "-l", "ces+eng", "--psm", "6", "--tessdata-dir", "/tess"}, r.calls[0])
}

func TestExtractImage_Failure(t *testing.T) {
	r := &fakeRunner{ocrFail: map[string]bool{"bad.jpg": true}}
	_, err := NewEngine(Config{}, nil).WithRunner(r).ExtractImage(context.Background(), "bad.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pixReadStream")
}

func TestExtractPDF_PagesInOrder(t *testing.T) {
	texts := map[string]string{}
	for i := 1; i <= 11; i++ {
		texts[fmt.Sprintf("page-%d.png", i)] = fmt.Sprintf("strana %d", i)
	}
	r := &fakeRunner{pages: 11, ocr: texts}
	e := NewEngine(Config{DPI: 150}, nil).WithRunner(r)

	res, err := e.ExtractPDF(context.Background(), "/docs/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, 11, res.Pages)
	parts := strings.Split(res.Text, "\n\n")
	require.Len(t, parts, 11)
	assert.Equal(t, "strana 1", parts[0])
	assert.Equal(t, "strana 2", parts[1])
	assert.Equal(t, "strana 11", parts[10])

	assert.Equal(t, []string{"pdftoppm", "-r", "150", "-png", "/docs/report.pdf"}, r.calls[0][:5])
}

func TestExtractPDF_MaxPages(t *testing.T) {
	r := &fakeRunner{pages: 3, ocr: map[string]string{"page-1.png": "a", "page-2.png": "b", "page-3.png": "c"}}
	res, err := NewEngine(Config{MaxPages: 2}, nil).WithRunner(r).ExtractPDF(context.Background(), "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb", res.Text)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "first 2 of 3")
}

func TestExtractPDF_PartialAndTotalFailure(t *testing.T) {
	r := &fakeRunner{
		pages:   2,
		ocr:     map[string]string{"page-2.png": "druhá"},
		ocrFail: map[string]bool{"page-1.png": true},
	}
	e := NewEngine(Config{}, nil).WithRunner(r)
	res, err := e.ExtractPDF(context.Background(), "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "druhá", res.Text)
	assert.Len(t, res.Warnings, 1)

	r.ocrFail["page-2.png"] = true
	_, err = e.ExtractPDF(context.Background(), "x.pdf")
	assert.ErrorContains(t, err, "all 2 pages")
}

func TestExtractPDF_RasterizeFails(t *testing.T) {
	r := &fakeRunner{pdfErr: errors.New("exit status 1")}
	res, err := NewEngine(Config{}, nil).WithRunner(r).ExtractPDF(context.Background(), "broken.pdf")
	assert.ErrorContains(t, err, "pdftoppm")
	assert.Contains(t, res.Warnings, "Syntax Error: Couldn't read xref table")

	r = &fakeRunner{pages: 0}
	_, err = NewEngine(Config{}, nil).WithRunner(r).ExtractPDF(context.Background(), "empty.pdf")
	assert.ErrorContains(t, err, "no pages")
}

func TestExtract_Dispatch(t *testing.T) {
	r := &fakeRunner{pages: 1, ocr: map[string]string{"page-1.png": "pdf", "a.JPG": "img"}}
	e := NewEngine(Config{}, nil).WithRunner(r)

	res, err := e.Extract(context.Background(), "doc.PDF")
	require.NoError(t, err)
	assert.Equal(t, "pdf", res.Text)

	res, err = e.Extract(context.Background(), "a.JPG")
	require.NoError(t, err)
	assert.Equal(t, "img", res.Text)

	_, err = e.Extract(context.Background(), "a.docx")
	assert.Error(t, err)
}

func TestSortPages(t *testing.T) {
	pages := []string{"/t/page-10.png", "/t/page-2.png", "/t/page-1.png"}
	sortPages(pages)
	assert.Equal(t, []string{"/t/page-1.png", "/t/page-2.png", "/t/page-10.png"}, pages)
}

func TestNormalize(t *testing.T) {
	cases := map[string]struct{ in, want string }{
		"empty":          {"", ""},
		"crlf":           {"a\r\nb\rc", "a\nb\nc"},
		"rulers dropped": {"Hlava\n-----\n| |\n____\nTělo", "Hlava\n\n| |\n\nTělo"},
		"blank runs":     {"a\n\n\n\n\nb", "a\n\nb"},
		"values kept":    {"Hb 0O1 g/l  \t", "Hb 0O1 g/l"},
		"form feed":      {"p1\fp2", "p1\np2"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...(truncated)", truncate("abc", 2))
}
