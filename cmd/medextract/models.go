package main

import (
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models usable for extraction",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"models":  p.Models.IDs(),
			"default": p.Models.Default(),
			"backend": p.Dispatcher.Backend(),
		})
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
