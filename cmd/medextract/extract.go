package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/core"
)

var (
	extractText     string
	extractStdin    bool
	extractModel    string
	extractAnalysis string
)

var extractCmd = &cobra.Command{
	Use:   "extract [files...]",
	Short: "Run the extraction pipeline over documents and/or inline text",
	Long: `Extract reads every file given (PDF, JPG/PNG, DOCX, XLSX, TXT) plus the
optional --text value, and prints the pipeline response as JSON. Inline text
comes after the documents. The exit status is non-zero when the response is
not successful.`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractText, "text", "t", "", "Inline text to include")
	extractCmd.Flags().BoolVar(&extractStdin, "stdin", false, "Read additional text from standard input")
	extractCmd.Flags().StringVarP(&extractModel, "model", "m", "", "Model id (default: OPENAI_MODEL)")
	extractCmd.Flags().StringVarP(&extractAnalysis, "analysis-type", "a", string(constants.AnalysisStandard), "Analysis type: standard | extended")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}

	at, ok := constants.ParseAnalysisType(extractAnalysis)
	if !ok {
		logger.Warn("cli.extract.unknown_analysis_type", "value", extractAnalysis, "using", at)
	}
	model := extractModel
	if model == "" {
		model = cfg.LLM.DefaultModel
	}

	var texts []string
	if extractText != "" {
		texts = append(texts, extractText)
	}
	if extractStdin {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		texts = append(texts, string(raw))
	}

	resp := p.Processor.ProcessFiles(ctx, args, core.Request{Texts: texts, ModelID: model, AnalysisType: at})
	if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if !resp.Success {
		return errors.New(resp.ErrorKind + ": " + resp.Message)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
