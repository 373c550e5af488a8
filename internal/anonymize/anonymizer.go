// Package anonymize replaces configured person names with positional
// placeholders before any document text leaves the process.
//
// Names are matched as literal substrings, case-insensitively, in list order:
// entry N becomes [PERSON_N]. There is no word-boundary check, and an earlier
// (shorter) entry that is a substring of a later one wins because it is
// replaced first. With MatchFoldDiacritics (the default) combining marks are
// ignored on both sides, so "NOVÁK" matches the entry "Novak".
package anonymize

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/common"
)

// MatchPolicy controls how a name entry is compared to document text.
type MatchPolicy int

const (
	// MatchFoldDiacritics folds case and strips combining marks.
	MatchFoldDiacritics MatchPolicy = iota
	// MatchLiteral folds case only.
	MatchLiteral
)

func (p MatchPolicy) String() string {
	if p == MatchLiteral {
		return "literal"
	}
	return "fold"
}

// ParseMatchPolicy maps a config value to a policy; unknown values fold.
func ParseMatchPolicy(s string) MatchPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "literal") {
		return MatchLiteral
	}
	return MatchFoldDiacritics
}

// Placeholder returns the token bound to the entry at 0-based index i.
func Placeholder(i int) string {
	return fmt.Sprintf("[%s%d]", constants.PlaceholderPrefix, i+1)
}

// snapshot is the immutable compiled match set for one name list.
type snapshot struct {
	names        []string
	placeholders []string
	literal      []*regexp.Regexp
	folded       []string
}

func compile(names []string) *snapshot {
	s := &snapshot{
		names:        make([]string, 0, len(names)),
		placeholders: make([]string, 0, len(names)),
		literal:      make([]*regexp.Regexp, 0, len(names)),
		folded:       make([]string, 0, len(names)),
	}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		s.placeholders = append(s.placeholders, Placeholder(len(s.names)))
		s.names = append(s.names, n)
		s.literal = append(s.literal, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(n)))
		s.folded = append(s.folded, foldString(n))
	}
	return s
}

// Anonymizer is safe for concurrent use. Reload swaps the match set
// atomically, so readers never observe a partially updated list.
type Anonymizer struct {
	policy MatchPolicy
	source string
	logger *slog.Logger
	snap   atomic.Pointer[snapshot]
}

// New builds an anonymizer over an in-memory name list.
func New(names []string, policy MatchPolicy, logger *slog.Logger) *Anonymizer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Anonymizer{policy: policy, logger: logger}
	a.snap.Store(compile(names))
	return a
}

// NewFromFile loads names from path. A missing or unreadable file yields a
// no-op anonymizer; the report says which case applied.
func NewFromFile(path string, policy MatchPolicy, logger *slog.Logger) (*Anonymizer, common.LoadReport) {
	a := New(nil, policy, logger)
	a.source = path
	return a, a.Reload()
}

// Reload re-reads the source file and replaces the match set. On failure the
// list becomes empty, matching the behaviour at construction.
func (a *Anonymizer) Reload() common.LoadReport {
	names, report := LoadNames(a.source)
	report.Log(a.logger, "anonymize.names.load")
	a.snap.Store(compile(names))
	return report
}

// Names returns a copy of the current ordered name list.
func (a *Anonymizer) Names() []string {
	s := a.snap.Load()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Policy reports the configured match policy.
func (a *Anonymizer) Policy() MatchPolicy { return a.policy }

// Anonymize replaces every occurrence of every loaded name with its placeholder.
func (a *Anonymizer) Anonymize(text string) string {
	s := a.snap.Load()
	if len(s.names) == 0 || text == "" {
		return text
	}
	result := text
	for i := range s.names {
		if a.policy == MatchLiteral {
			result = s.literal[i].ReplaceAllLiteralString(result, s.placeholders[i])
			continue
		}
		result = replaceFolded(result, s.folded[i], s.placeholders[i])
	}
	return result
}

// AnonymizeBatch maps Anonymize over texts, preserving order.
func (a *Anonymizer) AnonymizeBatch(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = a.Anonymize(t)
	}
	return out
}
