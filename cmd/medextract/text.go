package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/medparams/internal/core"
)

var textRaw bool

var textCmd = &cobra.Command{
	Use:   "text <files...>",
	Short: "Extract document text without calling an LLM",
	Long: `Text runs only the extraction stage (OCR for PDF and images, XML for
DOCX, cells for XLSX) and prints what the pipeline would see for each file.
Nothing is anonymized or sent anywhere.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ex := core.NewExtractor(cfg, logger)
		start := time.Now()
		results := ex.ExtractAll(cmd.Context(), args)

		failed := 0
		for _, r := range results {
			if !r.OK() {
				failed++
			}
		}
		logger.Info("cli.text.done",
			"files", len(results),
			"failed", failed,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		if textRaw {
			for i, r := range results {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				fmt.Fprintln(cmd.OutOrStdout(), r.Text)
			}
		} else {
			type fileText struct {
				Path     string   `json:"path"`
				Format   string   `json:"format,omitempty"`
				Method   string   `json:"method,omitempty"`
				Pages    int      `json:"pages,omitempty"`
				Warnings []string `json:"warnings,omitempty"`
				Error    string   `json:"error,omitempty"`
				Text     string   `json:"text"`
			}
			out := make([]fileText, 0, len(results))
			for _, r := range results {
				ft := fileText{Path: r.Path, Format: r.SourceType, Method: r.Method, Pages: r.Pages, Warnings: r.Warnings, Text: r.Text}
				if r.Err != nil {
					ft.Error = r.Err.Error()
				}
				out = append(out, ft)
			}
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
		}
		if failed == len(results) {
			return errors.New("no document could be read")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(textCmd)
	textCmd.Flags().BoolVar(&textRaw, "raw", false, "Print plain text instead of JSON")
}
