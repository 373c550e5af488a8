package llm

import (
	"log/slog"
	"regexp"
	"strings"
)

var (
	reFence      = regexp.MustCompile("^\\s*```")
	reListMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d{1,3}[.)])\s+`)
)

// SanitizeReply normalizes a model reply into plain "name,value" lines:
//   - drops markdown code fences
//   - strips list markers ("- ", "* ", "3. ") and bold markers
//   - trims each line and drops blank lines
//
// It returns the cleaned text and a note for each kind of change made.
func SanitizeReply(reply string, logger *slog.Logger) (string, []string) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		out   []string
		notes []string
		seen  = map[string]bool{}
	)
	note := func(n string) {
		if !seen[n] {
			seen[n] = true
			notes = append(notes, n)
		}
	}

	for _, line := range strings.Split(strings.ReplaceAll(reply, "\r\n", "\n"), "\n") {
		if reFence.MatchString(line) {
			note("code_fence")
			continue
		}
		if loc := reListMarker.FindStringIndex(line); loc != nil {
			line = line[loc[1]:]
			note("list_marker")
		}
		if strings.Contains(line, "**") {
			line = strings.ReplaceAll(line, "**", "")
			note("bold")
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}

	if len(notes) > 0 {
		logger.Debug("llm.reply.sanitized", "changes", notes, "lines", len(out))
	}
	return strings.Join(out, "\n"), notes
}
