package core

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/anonymize"
	"github.com/joseph-ayodele/medparams/internal/catalog"
	"github.com/joseph-ayodele/medparams/internal/common"
	"github.com/joseph-ayodele/medparams/internal/llm"
	"github.com/joseph-ayodele/medparams/internal/llm/openai"
	"github.com/joseph-ayodele/medparams/internal/ocr"
	"github.com/joseph-ayodele/medparams/internal/textextract"
)

// Pipeline bundles the process-wide components built from one Config.
type Pipeline struct {
	Processor  *Processor
	Catalog    *catalog.Catalog
	Anonymizer *anonymize.Anonymizer
	Models     *llm.ModelCatalog
	Dispatcher *llm.Dispatcher
	Extractor  *textextract.Service
}

// Build wires every component from cfg and refreshes the model list once.
// A config without any LLM backend still builds; each request then fails
// with CONFIGURATION_ERROR.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		if !errors.Is(err, common.ErrNoBackend) {
			return nil, err
		}
		logger.Warn("core.build.no_backend", "error_kind", common.KindOf(err), "error", err)
	}

	anon, report := anonymize.NewFromFile(cfg.Content.NamesFile, anonymize.ParseMatchPolicy(cfg.Anonymizer.Match), logger)
	logger.Info("core.build.anonymizer",
		"names", report.Entries,
		"status", report.Status,
		"policy", anon.Policy().String(),
	)

	cat := catalog.New(cfg.Content.Dir, logger)

	var (
		hosted, selfHosted llm.Completer
		lister             llm.ModelLister
	)
	if cfg.LLM.HostedConfigured() {
		hosted = openai.NewClient(openai.Config{
			Name:    openai.BackendHosted,
			APIKey:  cfg.LLM.OpenAIAPIKey,
			BaseURL: cfg.LLM.OpenAIBaseURL,
			Timeout: cfg.LLM.Timeout,
		}, logger)
		lister = llm.NewOpenAIModelLister(cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIBaseURL, cfg.LLM.Timeout)
	}
	if cfg.LLM.SelfHostedConfigured() {
		selfHosted = openai.NewClient(openai.Config{
			Name:          openai.BackendSelfHosted,
			BaseURL:       cfg.LLM.LocalURL,
			ModelOverride: cfg.LLM.LocalModel,
			Timeout:       cfg.LLM.Timeout,
		}, logger)
	}

	models := llm.NewModelCatalog(lister, cfg.LLM.DefaultModel, logger)
	models.Refresh(ctx)

	dispatcher := llm.NewDispatcher(hosted, selfHosted, models, llm.DispatcherOptions{
		Timeout:  cfg.LLM.Timeout,
		Fallback: cfg.LLM.Fallback == common.FallbackSelfHosted,
	}, logger)

	extractor := NewExtractor(cfg, logger)

	prompts := llm.NewPromptAssembler(cat, logger)
	for _, at := range constants.AnalysisTypes() {
		missing, err := prompts.UnbackedSlots(at)
		if err != nil {
			logger.Warn("core.build.template_invalid", "error_kind", common.KindOf(err), "error", err)
			break
		}
		if len(missing) > 0 {
			logger.Warn("core.build.template_unbacked", "analysis_type", at, "slots", missing)
		}
	}

	proc := NewProcessor(
		logger,
		anon,
		prompts,
		llm.NewBudgetGuard(cfg.LLM.MaxContextTokens, nil, logger),
		dispatcher,
		extractor,
	)
	logger.Info("core.build.ok",
		"backend", dispatcher.Backend(),
		"fallback", cfg.LLM.Fallback,
		"models", len(models.IDs()),
		"content_dir", cfg.Content.Dir,
	)
	return &Pipeline{
		Processor:  proc,
		Catalog:    cat,
		Anonymizer: anon,
		Models:     models,
		Dispatcher: dispatcher,
		Extractor:  extractor,
	}, nil
}

// NewExtractor builds the document text extractor alone; it needs no LLM
// backend.
func NewExtractor(cfg *common.Config, logger *slog.Logger) *textextract.Service {
	engine := ocr.NewEngine(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)
	return textextract.NewService(engine, logger)
}
