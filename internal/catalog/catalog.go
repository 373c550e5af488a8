// Package catalog loads the medical parameter definitions and the optional
// abbreviation glossary that are substituted into extraction prompts.
//
// Source files are line-delimited with ';' separated fields. Blank lines and
// lines starting with '#' are skipped. Read failures are logged and degrade to
// empty results; the request continues with a smaller parameter set.
package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/common"
)

const (
	fieldSep      = ";"
	commentMarker = "#"
)

// Parameter is one medical parameter the model is asked to extract.
type Parameter struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Abbreviation is one glossary entry; independent of the analysis type.
type Abbreviation struct {
	Abbreviation string `json:"abbreviation"`
	Meaning      string `json:"meaning"`
}

// Catalog reads parameter content from a directory on every call, so edits to
// the files take effect without a restart.
type Catalog struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{dir: dir, logger: logger}
}

// Dir returns the content directory.
func (c *Catalog) Dir() string { return c.dir }

// ParametersPath returns the file backing the parameter list for t.
func (c *Catalog) ParametersPath(t constants.AnalysisType) string {
	if t == constants.AnalysisExtended {
		return filepath.Join(c.dir, constants.ParametersExtendedFile)
	}
	return filepath.Join(c.dir, constants.ParametersFile)
}

// AbbreviationsPath returns the glossary file.
func (c *Catalog) AbbreviationsPath() string {
	return filepath.Join(c.dir, constants.AbbreviationsFile)
}

// LoadParameters returns the ordered parameter list for t.
func (c *Catalog) LoadParameters(t constants.AnalysisType) []Parameter {
	params, _ := c.LoadParametersWithReport(t)
	return params
}

// LoadParametersWithReport is LoadParameters plus the load outcome.
func (c *Catalog) LoadParametersWithReport(t constants.AnalysisType) ([]Parameter, common.LoadReport) {
	path := c.ParametersPath(t)
	raw, err := os.ReadFile(path)
	if err != nil {
		report := common.ReportFromError(path, err)
		report.Log(c.logger, "catalog.parameters.load")
		return []Parameter{}, report
	}
	params := ParseParameters(raw)
	report := common.ReportEntries(path, len(params))
	report.Log(c.logger, "catalog.parameters.load")
	return params, report
}

// LoadAbbreviations returns the ordered glossary.
func (c *Catalog) LoadAbbreviations() []Abbreviation {
	abbrs, _ := c.LoadAbbreviationsWithReport()
	return abbrs
}

// LoadAbbreviationsWithReport is LoadAbbreviations plus the load outcome.
func (c *Catalog) LoadAbbreviationsWithReport() ([]Abbreviation, common.LoadReport) {
	path := c.AbbreviationsPath()
	raw, err := os.ReadFile(path)
	if err != nil {
		report := common.ReportFromError(path, err)
		report.Log(c.logger, "catalog.abbreviations.load")
		return []Abbreviation{}, report
	}
	abbrs := ParseAbbreviations(raw)
	report := common.ReportEntries(path, len(abbrs))
	report.Log(c.logger, "catalog.abbreviations.load")
	return abbrs, report
}

// LoadDescriptions maps parameter name to description. Duplicate names keep
// the last definition.
func (c *Catalog) LoadDescriptions(t constants.AnalysisType) map[string]string {
	params := c.LoadParameters(t)
	out := make(map[string]string, len(params))
	for _, p := range params {
		out[p.Name] = p.Description
	}
	return out
}

// ParseParameters parses `name;description[;type]` lines. Short rows default
// the missing fields to empty.
func ParseParameters(raw []byte) []Parameter {
	params := []Parameter{}
	for _, fields := range dataLines(raw) {
		p := Parameter{Name: field(fields, 0)}
		p.Description = field(fields, 1)
		p.Type = field(fields, 2)
		params = append(params, p)
	}
	return params
}

// ParseAbbreviations parses `abbreviation;meaning` lines; rows with fewer than
// two fields are skipped.
func ParseAbbreviations(raw []byte) []Abbreviation {
	abbrs := []Abbreviation{}
	for _, fields := range dataLines(raw) {
		if len(fields) < 2 {
			continue
		}
		abbrs = append(abbrs, Abbreviation{Abbreviation: field(fields, 0), Meaning: field(fields, 1)})
	}
	return abbrs
}

// FormatParameters renders the numbered list used in prompts:
// "1. name: description (type)", dropping empty parts.
func FormatParameters(params []Parameter) string {
	lines := make([]string, 0, len(params))
	for i, p := range params {
		line := fmt.Sprintf("%d. %s", i+1, p.Name)
		if p.Description != "" {
			line += ": " + p.Description
		}
		if p.Type != "" {
			line += " (" + p.Type + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// FormatAbbreviations renders "abbr - meaning" lines.
func FormatAbbreviations(abbrs []Abbreviation) string {
	lines := make([]string, 0, len(abbrs))
	for _, a := range abbrs {
		lines = append(lines, a.Abbreviation+" - "+a.Meaning)
	}
	return strings.Join(lines, "\n")
}

func dataLines(raw []byte) [][]string {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	var out [][]string
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		out = append(out, strings.Split(line, fieldSep))
	}
	return out
}

func field(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}
