package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/joseph-ayodele/medparams/internal/common"
)

// ChatMessage is one turn of a chat-completions request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the OpenAI-shaped body sent to either backend.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// Completer is one chat-completions backend (hosted or self-hosted).
// Implementations return *common.AppError values of kind PROVIDER_ERROR or
// TRANSPORT_ERROR.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// ModelMapper is implemented by backends that send a different model id
// than the one requested.
type ModelMapper interface {
	MapModel(requested string) string
}

// ModelDescriptor identifies a hosted model usable for extraction.
type ModelDescriptor struct {
	ID string `json:"id"`
}

// CompletionResult is the single outcome shape of a dispatch: either Text or Err.
type CompletionResult struct {
	Text    string
	Backend string
	Model   string
	Err     *common.AppError
}

// OK reports whether the dispatch produced text.
func (r CompletionResult) OK() bool { return r.Err == nil }

// ErrorKind returns the error code, or "" on success.
func (r CompletionResult) ErrorKind() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Code
}

// Message returns the human-readable failure message, or "" on success.
func (r CompletionResult) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Message
}

func failure(err error, backend, model string) CompletionResult {
	return CompletionResult{Backend: backend, Model: model, Err: common.AsAppError(err)}
}

// StatusError records the HTTP status behind a PROVIDER_ERROR.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string { return fmt.Sprintf("http status %d", e.Status) }

// HTTPStatus returns the provider status carried by err, or 0.
func HTTPStatus(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
