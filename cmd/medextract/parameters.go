package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/medparams/constants"
	"github.com/joseph-ayodele/medparams/internal/catalog"
)

var parametersCmd = &cobra.Command{
	Use:   "parameters",
	Short: "Print parameter descriptions for every analysis type",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.New(cfg.Content.Dir, logger)
		out := map[constants.AnalysisType]map[string]string{}
		for _, t := range constants.AnalysisTypes() {
			out[t] = cat.LoadDescriptions(t)
		}
		return writeJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(parametersCmd)
}
