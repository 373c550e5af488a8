package textextract

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/ocr"
)

type fakeOCR struct {
	text string
	err  error
}

func (f fakeOCR) ExtractPDF(context.Context, string) (ocr.Result, error) {
	return ocr.Result{Text: f.text, Method: "pdf-ocr", Pages: 2, Warnings: []string{"w"}}, f.err
}

func (f fakeOCR) ExtractImage(context.Context, string) (ocr.Result, error) {
	return ocr.Result{Text: f.text, Method: "image-ocr", Pages: 1}, f.err
}

func writeFile(t *testing.T, name string, body []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, body, 0o644))
	return p
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Propouštěcí zpráva</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Výška: </w:t></w:r><w:r><w:t>180 cm</w:t></w:r></w:p>
    <w:tbl><w:tr><w:tc><w:p><w:r><w:t>BMI</w:t><w:tab/><w:t>24</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
    <w:p><w:r><w:t>řádek</w:t><w:br/><w:t>další</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDOCX(t *testing.T, entries map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "zprava.docx")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func TestExtract_TXT(t *testing.T) {
	s := NewService(nil, nil)
	p := writeFile(t, "a.TXT", []byte("\xef\xbb\xbfPacient měří 180 cm"))

	res, err := s.Extract(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "Pacient měří 180 cm", res.Text)
	assert.Equal(t, constants.TXT, res.SourceType)
	assert.Equal(t, "plain", res.Method)
}

func TestExtract_TXTInvalidUTF8(t *testing.T) {
	p := writeFile(t, "latin2.txt", []byte{0x56, 0xfd, 0x9a, 0x6b, 0x61})
	res, err := NewService(nil, nil).Extract(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, "Error extracting text from TXT: file is not valid UTF-8", res.Text)
}

func TestExtract_DOCX(t *testing.T) {
	p := writeDOCX(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML,
	})
	res, err := NewService(nil, nil).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Propouštěcí zpráva\nVýška: 180 cm\nBMI\t24\nřádek\ndalší", res.Text)
	assert.Equal(t, constants.DOCX, res.SourceType)
}

func TestExtract_DOCXErrors(t *testing.T) {
	p := writeDOCX(t, map[string]string{"word/other.xml": "<x/>"})
	res, err := NewService(nil, nil).Extract(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, "Error extracting text from DOCX: word/document.xml not found", res.Text)

	p = writeFile(t, "fake.docx", []byte("not a zip"))
	res, err = NewService(nil, nil).Extract(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, res.Text, "Error extracting text from DOCX: open docx")
}

func TestExtract_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Parametr"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Hodnota"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Výška"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 180))
	_, err := f.NewSheet("Labs")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Labs", "A1", "Hb"))
	require.NoError(t, f.SetCellValue("Labs", "B1", "140"))
	require.NoError(t, f.SetCellValue("Labs", "A3", "CRP"))
	_, err = f.NewSheet("Empty")
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "labs.xlsx")
	require.NoError(t, f.SaveAs(p))
	require.NoError(t, f.Close())

	res, err := NewService(nil, nil).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Parametr\tHodnota\nVýška\t180\n\nHb\t140\nCRP", res.Text)
	assert.Equal(t, "xlsx-cells", res.Method)
}

func TestExtract_OCRKinds(t *testing.T) {
	s := NewService(fakeOCR{text: "naskenováno"}, nil)

	res, err := s.Extract(context.Background(), "/in/scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "naskenováno", res.Text)
	assert.Equal(t, constants.PDF, res.SourceType)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, []string{"w"}, res.Warnings)

	res, err = s.Extract(context.Background(), "/in/photo.jpeg")
	require.NoError(t, err)
	assert.Equal(t, constants.IMAGE, res.SourceType)
	assert.Equal(t, "image-ocr", res.Method)
}

func TestExtract_OCRFailure(t *testing.T) {
	s := NewService(fakeOCR{err: errors.New("tesseract: exit status 1")}, nil)
	res, err := s.Extract(context.Background(), "/in/photo.png")
	require.Error(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, "Error extracting text from image: tesseract: exit status 1", res.Text)

	res, _ = NewService(nil, nil).Extract(context.Background(), "/in/scan.pdf")
	assert.Equal(t, "Error extracting text from PDF: ocr engine is not configured", res.Text)
}

func TestExtract_Unsupported(t *testing.T) {
	res, err := NewService(nil, nil).Extract(context.Background(), "/in/notes.rtf")
	require.Error(t, err)
	assert.Equal(t, "Unsupported file format: .rtf", res.Text)
	assert.Empty(t, res.SourceType)
}

func TestExtractAll_KeepsOrder(t *testing.T) {
	a := writeFile(t, "a.txt", []byte("first"))
	b := writeFile(t, "b.txt", []byte("second"))
	results := NewService(nil, nil).ExtractAll(context.Background(), []string{b, "/x.odt", a})
	assert.Equal(t, []string{"second", "Unsupported file format: .odt", "first"}, Texts(results))
}
