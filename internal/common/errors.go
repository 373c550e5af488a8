package common

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers of the extraction pipeline.
const (
	CodeConfiguration  = "CONFIGURATION_ERROR"
	CodePromptTooLarge = "PROMPT_TOO_LARGE"
	CodeTemplate       = "TEMPLATE_ERROR"
	CodeProvider       = "PROVIDER_ERROR"
	CodeTransport      = "TRANSPORT_ERROR"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeInternal       = "INTERNAL_ERROR"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrPromptTooLarge = errors.New("prompt too large")
	ErrTemplate       = errors.New("template error")
	ErrProvider       = errors.New("provider error")
	ErrTransport      = errors.New("transport error")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternal       = errors.New("internal error")
)

var sentinels = map[string]error{
	CodeConfiguration:  ErrConfiguration,
	CodePromptTooLarge: ErrPromptTooLarge,
	CodeTemplate:       ErrTemplate,
	CodeProvider:       ErrProvider,
	CodeTransport:      ErrTransport,
	CodeInvalidInput:   ErrInvalidInput,
	CodeInternal:       ErrInternal,
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Is lets errors.Is match an AppError against the sentinel for its code,
// so callers need not care whether a Cause was attached.
func (e *AppError) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

func ConfigurationError(message string) *AppError {
	return NewAppError(CodeConfiguration, message, nil)
}

func PromptTooLargeError(message string) *AppError {
	return NewAppError(CodePromptTooLarge, message, nil)
}

func TemplateError(message string, cause error) *AppError {
	return NewAppError(CodeTemplate, message, cause)
}

// ProviderError carries the remote backend's own message verbatim.
func ProviderError(message string) *AppError {
	return NewAppError(CodeProvider, message, nil)
}

func TransportError(message string, cause error) *AppError {
	return NewAppError(CodeTransport, message, cause)
}

func InvalidInputError(message string) *AppError {
	return NewAppError(CodeInvalidInput, message, nil)
}

// AsAppError unwraps err to an *AppError; anything else becomes INTERNAL_ERROR.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return NewAppError(CodeInternal, err.Error(), err)
}

// KindOf returns the error code of err, or "" for nil.
func KindOf(err error) string {
	if ae := AsAppError(err); ae != nil {
		return ae.Code
	}
	return ""
}
