// Package batch runs the extraction pipeline over a directory of text files
// and collects the model replies into one table.
package batch

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// FilePathColumn is appended to every header.
const FilePathColumn = "file_path"

// DefaultHeader lists the oncology registry columns, in output order.
var DefaultHeader = []string{
	"Předchozí onkologické onemocnění", "Výška", "Hmotnost", "BMI", "Pohlaví",
	"Léková alergie", "Specifikace", "Alergie na jód/kontrastní látky", "Specifikace",
	"Performance status (ECOG)", "Datum stanovení definitivní diagnózy", "Diagnóza - kód MKN",
	"Lateralita", "Grading (diferenciace nádoru) G", "ORPHA kód", "cT", "četnost", "cN", "cM",
	"y", "r", "a", "pT", "pN", "pM", "Stádium", "Lokalizace metastáz",
	"Výběr diagnostické skupiny", "Datum zahájení léčby", "Datum operace", "Datum zahájení",
	"Datum ukončení", "Datum zahájení  série", "Datum ukončení série", "Zevní radioterapie",
	"Typ zevní RT", "Brachyterapie", "Datum hodnocení léčebné odpovědi",
	"Hodnocená léčebná odpověď", "Progrese",
}

// ParseReply reads "name,value" lines. Each line is split on every comma and
// only the first two fields are used, so a value containing a comma is cut.
// Lines with fewer than two fields are ignored; a repeated name keeps the
// last value.
func ParseReply(reply string) map[string]string {
	values := map[string]string{}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return values
	}
	for _, line := range strings.Split(reply, "\n") {
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		values[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return values
}

// BuildRow projects values onto header, leaving unknown columns empty, and
// appends path as the last cell.
func BuildRow(header []string, values map[string]string, path string) []string {
	row := make([]string, 0, len(header)+1)
	for _, h := range header {
		row = append(row, values[h])
	}
	return append(row, path)
}

// LoadHeader reads a header override: one line, comma separated.
func LoadHeader(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read header file: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	line, _, _ := strings.Cut(strings.TrimSpace(string(raw)), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("header file %s is empty", path)
	}
	cols := strings.Split(line, ",")
	if cols[len(cols)-1] == FilePathColumn {
		cols = cols[:len(cols)-1]
	}
	return cols, nil
}
