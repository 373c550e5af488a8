package anonymize

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/joseph-ayodele/medparams/internal/common"
)

// LoadNames reads one name per line, trimming whitespace and dropping blank
// lines. It never fails: problems come back as an empty list and a report.
func LoadNames(path string) ([]string, common.LoadReport) {
	if strings.TrimSpace(path) == "" {
		return nil, common.LoadReport{Source: path, Status: common.LoadMissing}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, common.ReportFromError(path, err)
	}
	names := ParseNames(raw)
	return names, common.ReportEntries(path, len(names))
}

// ParseNames splits raw UTF-8 content into the ordered name list.
func ParseNames(raw []byte) []string {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	var names []string
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if n := strings.TrimSpace(sc.Text()); n != "" {
			names = append(names, n)
		}
	}
	return names
}
