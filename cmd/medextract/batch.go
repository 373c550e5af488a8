package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/batch"
	"github.com/joseph-ayodele/medparams/internal/repository"
)

var (
	batchOutput     string
	batchXLSX       string
	batchLedger     string
	batchModel      string
	batchAnalysis   string
	batchHeaderFile string
	batchWatch      bool
	batchDebounce   time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Process every .txt file in a directory into one CSV table",
	Long: `Batch sends each .txt file in <dir> through the pipeline and appends one
CSV row per reply, with the file path as the last column. Files already
recorded in the ledger with unchanged content are skipped, so an interrupted
run can be restarted.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "./processed_data.csv", "CSV output path (appended to)")
	batchCmd.Flags().StringVar(&batchXLSX, "xlsx", "", "Also write the full table to this XLSX file")
	batchCmd.Flags().StringVar(&batchLedger, "ledger", "", "Processed-file ledger (default: BATCH_LEDGER)")
	batchCmd.Flags().StringVarP(&batchModel, "model", "m", batch.DefaultModel, "Model id")
	batchCmd.Flags().StringVarP(&batchAnalysis, "analysis-type", "a", string(constants.AnalysisStandard), "Analysis type: standard | extended")
	batchCmd.Flags().StringVar(&batchHeaderFile, "header-file", "", "File whose first line is the comma-separated column header")
	batchCmd.Flags().BoolVar(&batchWatch, "watch", false, "Keep running and process new files as they appear")
	batchCmd.Flags().DurationVar(&batchDebounce, "debounce", 2*time.Second, "Quiet period before a changed file is processed (with --watch)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	header := batch.DefaultHeader
	if batchHeaderFile != "" {
		h, err := batch.LoadHeader(batchHeaderFile)
		if err != nil {
			return err
		}
		header = h
	}
	at, _ := constants.ParseAnalysisType(batchAnalysis)

	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}

	ledgerPath := batchLedger
	if ledgerPath == "" {
		ledgerPath = cfg.Batch.LedgerPath
	}
	db, err := repository.Open(ctx, repository.Config{Path: ledgerPath}, logger)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer repository.Close(db, logger)

	out, err := batch.OpenCSV(batchOutput, header)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Error("cli.batch.output_close_failed", "error", err)
		}
	}()

	runner := batch.NewRunner(p.Processor, repository.NewLedgerRepository(db, logger), out, batch.Options{
		Header:       header,
		Model:        batchModel,
		AnalysisType: at,
		XLSXPath:     batchXLSX,
	}, logger)

	var stats batch.Stats
	if batchWatch {
		stats, err = runner.Watch(ctx, dir, batchDebounce)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	} else {
		stats, err = runner.Run(ctx, dir)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Found %d files, skipped %d, processed %d, wrote %d rows, %d failed\n",
		stats.Found, stats.Skipped, stats.Processed, stats.Written, stats.Failed)

	if err := runner.ExportWorkbook(batchOutput); err != nil {
		return fmt.Errorf("failed to export xlsx: %w", err)
	}
	return nil
}
