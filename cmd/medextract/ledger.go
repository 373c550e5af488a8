package main

import (
	"encoding/hex"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/medparams/internal/repository"
)

var ledgerPath string

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Check the batch ledger and list processed files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := ledgerPath
		if path == "" {
			path = cfg.Batch.LedgerPath
		}
		db, err := repository.Open(ctx, repository.Config{Path: path}, logger)
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer repository.Close(db, logger)

		if err := repository.HealthCheck(ctx, db, time.Second); err != nil {
			return fmt.Errorf("ledger health: %w", err)
		}
		entries, err := repository.NewLedgerRepository(db, logger).List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list ledger: %w", err)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PATH\tOK\tVALUES\tERROR\tMODEL\tHASH\tPROCESSED")
		for _, e := range entries {
			hash := hex.EncodeToString(e.ContentHash)
			if len(hash) > 12 {
				hash = hash[:12]
			}
			fmt.Fprintf(tw, "%s\t%t\t%d\t%s\t%s\t%s\t%s\n",
				e.Path, e.Success, e.ValuesFound, e.ErrorKind, e.Model, hash,
				e.ProcessedAt.Local().Format(time.DateTime))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d files recorded in %s\n", len(entries), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.Flags().StringVar(&ledgerPath, "ledger", "", "Processed-file ledger (default: BATCH_LEDGER)")
}
