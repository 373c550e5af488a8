package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"whitespace", " \n\n ", map[string]string{}},
		{"pairs", "Výška,180\nHmotnost, 82 \n", map[string]string{"Výška": "180", "Hmotnost": "82"}},
		{"no comma ignored", "No parameters found\nBMI,24", map[string]string{"BMI": "24"}},
		{"value with comma cut", "Lokalizace metastáz,játra, plíce", map[string]string{"Lokalizace metastáz": "játra"}},
		{"last value wins", "BMI,24\nBMI,25", map[string]string{"BMI": "25"}},
		{"empty value kept", "Progrese,", map[string]string{"Progrese": ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseReply(tc.reply))
		})
	}
}

func TestBuildRow(t *testing.T) {
	row := BuildRow([]string{"Výška", "BMI", "Progrese"}, map[string]string{"BMI": "24", "Unknown": "x"}, "/in/a.txt")
	assert.Equal(t, []string{"", "24", "", "/in/a.txt"}, row)
}

func TestDefaultHeader(t *testing.T) {
	assert.Len(t, DefaultHeader, 40)
	assert.Equal(t, "Předchozí onkologické onemocnění", DefaultHeader[0])
	assert.Equal(t, "Progrese", DefaultHeader[len(DefaultHeader)-1])
	assert.Contains(t, DefaultHeader, "Datum zahájení  série")
}

func TestLoadHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "header.csv")

	require.NoError(t, os.WriteFile(path, []byte("\xef\xbb\xbfVýška,BMI,file_path\nignored,row\n"), 0o644))
	cols, err := LoadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Výška", "BMI"}, cols)

	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))
	_, err = LoadHeader(path)
	assert.Error(t, err)

	_, err = LoadHeader(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestCSVWriter_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	w, err := OpenCSV(path, []string{"Výška", "BMI"})
	require.NoError(t, err)
	require.NoError(t, w.Write([]string{"180", "", "a.txt"}))
	require.NoError(t, w.Close())

	w, err = OpenCSV(path, []string{"Výška", "BMI"})
	require.NoError(t, err)
	require.NoError(t, w.Write([]string{"", "24, approx", "b.txt"}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Výška", "BMI", "file_path"},
		{"180", "", "a.txt"},
		{"", "24, approx", "b.txt"},
	}, rows)
}
