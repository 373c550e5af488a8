package llm

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/common"
)

// DispatcherOptions tunes a Dispatcher.
type DispatcherOptions struct {
	Timeout  time.Duration
	Fallback bool // retry once on the self-hosted backend after a hosted outage
}

// Dispatcher sends one prompt to the backend chosen at construction. Backend
// selection never changes at runtime unless Fallback was requested.
type Dispatcher struct {
	primary   Completer
	secondary Completer
	models    *ModelCatalog
	timeout   time.Duration
	logger    *slog.Logger
}

// NewDispatcher picks hosted when it is non-nil, otherwise selfHosted. With
// both nil every Dispatch returns CONFIGURATION_ERROR.
func NewDispatcher(hosted, selfHosted Completer, models *ModelCatalog, opts DispatcherOptions, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if models == nil {
		models = NewModelCatalog(nil, DefaultModelID, logger)
	}
	d := &Dispatcher{models: models, timeout: opts.Timeout, logger: logger}
	switch {
	case hosted != nil:
		d.primary = hosted
		if opts.Fallback && selfHosted != nil {
			d.secondary = selfHosted
		}
	case selfHosted != nil:
		d.primary = selfHosted
	}
	return d
}

// Backend names the selected backend, or "" when none is configured.
func (d *Dispatcher) Backend() string {
	if d.primary == nil {
		return ""
	}
	return d.primary.Name()
}

// Models exposes the catalog used for model resolution.
func (d *Dispatcher) Models() *ModelCatalog { return d.models }

// Dispatch resolves modelID against the catalog and sends the prompt.
func (d *Dispatcher) Dispatch(ctx context.Context, prompt, modelID string) CompletionResult {
	ctx, rid := common.EnsureRequestID(ctx)
	model, known := d.models.Resolve(modelID)
	if !known {
		d.logger.Info("llm.dispatch.model_substituted", "req_id", rid, "requested", modelID, "model", model)
	}
	if d.primary == nil {
		d.logger.Error("llm.dispatch.no_backend", "req_id", rid)
		return failure(common.ConfigurationError("no LLM backend configured: set OPENAI_API_KEY or LOCAL_LLM_URL"), "", model)
	}

	req := ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: "system", Content: constants.SystemInstruction},
			{Role: "user", Content: prompt},
		},
	}

	res := d.send(ctx, d.primary, req)
	if res.OK() || d.secondary == nil || !shouldFallBack(res.Err) {
		return res
	}
	d.logger.Warn("llm.dispatch.fallback",
		"req_id", rid,
		"from", d.primary.Name(),
		"to", d.secondary.Name(),
		"error_kind", res.ErrorKind(),
		"message", res.Message(),
	)
	return d.send(ctx, d.secondary, req)
}

func (d *Dispatcher) send(ctx context.Context, c Completer, req ChatRequest) CompletionResult {
	rid := common.RequestIDFromContext(ctx)
	if m, ok := c.(ModelMapper); ok {
		req.Model = m.MapModel(req.Model)
	}
	ctx, cancel := common.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	d.logger.Info("llm.dispatch.start", "req_id", rid, "backend", c.Name(), "model", req.Model)
	text, err := c.Complete(ctx, req)
	if err != nil {
		res := failure(err, c.Name(), req.Model)
		d.logger.Error("llm.dispatch.failed",
			"req_id", rid,
			"backend", c.Name(),
			"error_kind", res.ErrorKind(),
			"message", res.Message(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return res
	}
	d.logger.Info("llm.dispatch.ok",
		"req_id", rid,
		"backend", c.Name(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return CompletionResult{Text: text, Backend: c.Name(), Model: req.Model}
}

// shouldFallBack is true for outages: no response at all, rate limiting, or
// a server-side failure. Client errors such as a bad key are not retried.
func shouldFallBack(err *common.AppError) bool {
	switch err.Code {
	case common.CodeTransport:
		return true
	case common.CodeProvider:
		s := HTTPStatus(err)
		return s == http.StatusTooManyRequests || s >= 500
	}
	return false
}
