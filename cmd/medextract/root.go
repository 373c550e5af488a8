package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/medparams/internal/common"
	"github.com/joseph-ayodele/medparams/internal/core"
)

var (
	envFile    string
	logFormat  string
	contentDir string
	namesFile  string

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "medextract",
	Short: "Extract medical parameters from clinical documents with an LLM",
	Long: `medextract de-identifies clinical documents, builds a prompt from the
parameter catalog in the content directory and asks the configured LLM
(hosted or self-hosted) to list the parameters it finds.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			common.LoadDotEnv(envFile)
		} else {
			common.LoadDotEnv()
		}
		cfg = common.LoadConfig()
		if contentDir != "" {
			cfg.Content.Dir = contentDir
		}
		if namesFile != "" {
			cfg.Content.NamesFile = namesFile
		}
		logger = newLogger(cmd.ErrOrStderr(), logFormat, cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format: json | text")
	rootCmd.PersistentFlags().StringVar(&contentDir, "content-dir", "", "Directory with prompt template and parameter files (overrides CONTENT_DIR)")
	rootCmd.PersistentFlags().StringVar(&namesFile, "names-file", "", "Name list used for anonymization (overrides NAMES_FILE)")
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func buildPipeline(ctx context.Context) (*core.Pipeline, error) {
	p, err := core.Build(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	return p, nil
}
