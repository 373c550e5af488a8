package core

import "github.com/joseph-ayodele/medparams/constants"

// Request is one extraction call: the document texts (already extracted),
// the requested model and the analysis type.
type Request struct {
	Texts        []string
	ModelID      string
	AnalysisType constants.AnalysisType
}

// Response is the single outcome shape handed back to callers.
type Response struct {
	Success      bool                   `json:"success"`
	Text         string                 `json:"response,omitempty"`
	ErrorKind    string                 `json:"error_kind,omitempty"`
	Message      string                 `json:"message,omitempty"`
	AnalysisType constants.AnalysisType `json:"analysis_type"`
	Model        string                 `json:"model,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
}
