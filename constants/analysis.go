package constants

import "strings"

// AnalysisType selects which parameter set variant goes into the prompt.
type AnalysisType string

const (
	AnalysisStandard AnalysisType = "standard"
	AnalysisExtended AnalysisType = "extended"
)

var allAnalysisTypes = []AnalysisType{AnalysisStandard, AnalysisExtended}

// AnalysisTypes returns every supported analysis type in display order.
func AnalysisTypes() []AnalysisType {
	out := make([]AnalysisType, len(allAnalysisTypes))
	copy(out, allAnalysisTypes)
	return out
}

// ParseAnalysisType canonicalizes input; anything unknown (or empty) is standard.
// The bool reports whether input named a known type.
func ParseAnalysisType(input string) (AnalysisType, bool) {
	normalized := AnalysisType(strings.ToLower(strings.TrimSpace(input)))
	for _, t := range allAnalysisTypes {
		if normalized == t {
			return t, true
		}
	}
	return AnalysisStandard, false
}
