package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/common"
	"github.com/joseph-ayodele/medparams/internal/llm"
	"github.com/joseph-ayodele/medparams/internal/textextract"
)

// Anonymizer redacts person names from document text.
type Anonymizer interface {
	AnonymizeBatch(texts []string) []string
}

// Dispatcher sends one prompt to the configured LLM backend.
type Dispatcher interface {
	Dispatch(ctx context.Context, prompt, modelID string) llm.CompletionResult
	Models() *llm.ModelCatalog
	Backend() string
}

// Processor coordinates anonymization, prompt assembly, the budget check and
// dispatch. It never returns an error: every failure becomes a Response.
type Processor struct {
	logger     *slog.Logger
	anonymizer Anonymizer
	prompts    *llm.PromptAssembler
	budget     *llm.BudgetGuard
	dispatcher Dispatcher
	extractor  textextract.TextExtractor
}

func NewProcessor(
	logger *slog.Logger,
	anonymizer Anonymizer,
	prompts *llm.PromptAssembler,
	budget *llm.BudgetGuard,
	dispatcher Dispatcher,
	extractor textextract.TextExtractor,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:     logger,
		anonymizer: anonymizer,
		prompts:    prompts,
		budget:     budget,
		dispatcher: dispatcher,
		extractor:  extractor,
	}
}

// Models exposes the model catalog used to resolve requested ids.
func (p *Processor) Models() *llm.ModelCatalog { return p.dispatcher.Models() }

// Run executes the pipeline for already-extracted texts.
func (p *Processor) Run(ctx context.Context, req Request) Response {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()
	at, _ := constants.ParseAnalysisType(string(req.AnalysisType))
	resp := Response{AnalysisType: at, RequestID: rid}

	v := common.NewValidator().Field("texts", req.Texts, common.NonEmptyTexts)
	if err := common.ValidateAndReturnError(v); err != nil {
		return p.fail(resp, err, start)
	}

	if p.dispatcher.Backend() == "" {
		return p.fail(resp, common.ErrNoBackend, start)
	}

	model, _ := p.dispatcher.Models().Resolve(req.ModelID)
	resp.Model = model

	p.logger.Info("processor.run.start",
		"req_id", rid,
		"texts", len(req.Texts),
		"analysis_type", at,
		"model", model,
	)

	texts := req.Texts
	if p.anonymizer != nil {
		texts = p.anonymizer.AnonymizeBatch(texts)
	}

	prompt, err := p.prompts.CreatePrompt(texts, at)
	if err != nil {
		return p.fail(resp, err, start)
	}

	if err := p.budget.Check(prompt, model); err != nil {
		return p.fail(resp, err, start)
	}

	res := p.dispatcher.Dispatch(ctx, prompt, model)
	if !res.OK() {
		return p.fail(resp, res.Err, start)
	}

	resp.Success = true
	resp.Text = res.Text
	resp.Model = res.Model
	p.logger.Info("processor.run.ok",
		"req_id", rid,
		"backend", res.Backend,
		"model", res.Model,
		"response_len", len(res.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp
}

// ProcessFiles extracts text from every path in order, then runs the pipeline
// over those texts followed by req.Texts. Documents that fail extraction still
// contribute their error line.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string, req Request) Response {
	ctx, rid := common.EnsureRequestID(ctx)
	if len(paths) > 0 && p.extractor == nil {
		return p.fail(Response{AnalysisType: req.AnalysisType, RequestID: rid},
			common.ConfigurationError("text extraction is not configured"), time.Now())
	}
	results := make([]textextract.Result, 0, len(paths))
	for _, path := range paths {
		r, _ := p.extractor.Extract(ctx, path)
		results = append(results, r)
	}
	req.Texts = append(textextract.Texts(results), req.Texts...)
	return p.Run(ctx, req)
}

func (p *Processor) fail(resp Response, err error, start time.Time) Response {
	ae := common.AsAppError(err)
	resp.Success = false
	resp.ErrorKind = ae.Code
	resp.Message = ae.Message
	p.logger.Error("processor.run.failed",
		"req_id", resp.RequestID,
		"error_kind", ae.Code,
		"message", ae.Message,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp
}
