package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/core"
	"github.com/joseph-ayodele/medparams/internal/ingest"
	"github.com/joseph-ayodele/medparams/internal/llm"
	"github.com/joseph-ayodele/medparams/internal/repository"
)

// DefaultModel matches the batch tool's historical choice.
const DefaultModel = "gpt-4o-mini"

// Pipeline is the part of core.Processor the runner needs.
type Pipeline interface {
	Run(ctx context.Context, req core.Request) core.Response
}

type Options struct {
	Header       []string
	Model        string
	AnalysisType constants.AnalysisType
	XLSXPath     string // optional workbook written after the run
}

type Stats struct {
	Found     int
	Skipped   int
	Processed int
	Written   int
	Failed    int
}

// Runner feeds text files through the pipeline one at a time and appends a
// row per usable reply to the CSV output.
type Runner struct {
	pipeline Pipeline
	ledger   repository.LedgerRepository
	out      *CSVWriter
	opts     Options
	logger   *slog.Logger
}

func NewRunner(p Pipeline, ledger repository.LedgerRepository, out *CSVWriter, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Header) == 0 {
		opts.Header = DefaultHeader
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.AnalysisType == "" {
		opts.AnalysisType = constants.AnalysisStandard
	}
	return &Runner{pipeline: p, ledger: ledger, out: out, opts: opts, logger: logger}
}

// Run processes every *.txt directly inside dir, in path order.
func (r *Runner) Run(ctx context.Context, dir string) (Stats, error) {
	paths, _, err := ingest.ScanDirectory(dir, ingest.ScanOptions{Exts: []string{"txt"}})
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Found: len(paths)}
	r.logger.Info("batch.run.start", "dir", dir, "files", len(paths), "model", r.opts.Model)

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		r.account(&stats, r.ProcessFile(ctx, p))
	}
	r.logger.Info("batch.run.done",
		"found", stats.Found,
		"skipped", stats.Skipped,
		"written", stats.Written,
		"failed", stats.Failed,
	)
	return stats, nil
}

// Watch processes files already in dir and then every new or rewritten
// *.txt until ctx is cancelled.
func (r *Runner) Watch(ctx context.Context, dir string, debounce time.Duration) (Stats, error) {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		Exts:        []string{"txt"},
		InitialScan: true,
		Debounce:    debounce,
		Logger:      r.logger,
	})
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	for {
		select {
		case p, ok := <-events:
			if !ok {
				return stats, ctx.Err()
			}
			stats.Found++
			r.account(&stats, r.ProcessFile(ctx, p))
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.logger.Warn("batch.watch.error", "error", err)
		}
	}
}

// Outcome is what happened to one file.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeWritten
	OutcomeEmpty  // pipeline succeeded but the reply held no name,value lines
	OutcomeFailed // pipeline or I/O failure
)

// ProcessFile runs one file unless the ledger already holds a successful
// record for the same content.
func (r *Runner) ProcessFile(ctx context.Context, path string) Outcome {
	hash, err := ingest.HashFile(path)
	if err != nil {
		r.logger.Error("batch.file.hash_failed", "path", path, "error", err)
		return OutcomeFailed
	}
	if done, err := r.ledger.Done(ctx, path, hash); err != nil {
		r.logger.Warn("batch.ledger.lookup_failed", "path", path, "error", err)
	} else if done {
		r.logger.Debug("batch.file.skipped", "path", path)
		return OutcomeSkipped
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		r.logger.Error("batch.file.read_failed", "path", path, "error", err)
		return OutcomeFailed
	}

	resp := r.pipeline.Run(ctx, core.Request{
		Texts:        []string{string(raw)},
		ModelID:      r.opts.Model,
		AnalysisType: r.opts.AnalysisType,
	})
	entry := repository.LedgerEntry{
		Path:         path,
		ContentHash:  hash,
		ErrorKind:    resp.ErrorKind,
		Model:        resp.Model,
		AnalysisType: string(resp.AnalysisType),
	}

	outcome := OutcomeFailed
	if resp.Success {
		clean, _ := llm.SanitizeReply(resp.Text, r.logger)
		values := ParseReply(clean)
		entry.ValuesFound = len(values)
		outcome = OutcomeEmpty
		if len(values) > 0 {
			if err := r.out.Write(BuildRow(r.opts.Header, values, path)); err != nil {
				r.logger.Error("batch.output.write_failed", "path", path, "error", err)
				return OutcomeFailed
			}
			entry.Success = true
			outcome = OutcomeWritten
		}
	} else {
		r.logger.Warn("batch.file.failed", "path", path, "error_kind", resp.ErrorKind, "message", resp.Message)
	}

	if err := r.ledger.Record(ctx, entry); err != nil {
		r.logger.Warn("batch.ledger.record_failed", "path", path, "error", err)
	}
	r.logger.Info("batch.file.done", "path", path, "values", entry.ValuesFound, "success", entry.Success)
	return outcome
}

func (r *Runner) account(s *Stats, o Outcome) {
	switch o {
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeWritten:
		s.Processed++
		s.Written++
	case OutcomeEmpty:
		s.Processed++
	case OutcomeFailed:
		s.Failed++
	}
}

// ExportWorkbook re-reads the CSV output and writes it as XLSX when configured.
func (r *Runner) ExportWorkbook(csvPath string) error {
	if r.opts.XLSXPath == "" {
		return nil
	}
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open csv for export: %w", err)
	}
	defer f.Close()
	rows, err := ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read csv for export: %w", err)
	}
	if len(rows) == 0 {
		return errors.New("nothing to export")
	}
	return ExportXLSX(r.opts.XLSXPath, rows, r.logger)
}
