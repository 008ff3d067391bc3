package cmd

import (
	"github.com/spf13/cobra"

	"github.com/askdoc/askdoc/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create a configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		_, err := config.RunWizard(cfgFile)
		exitOnError(err)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
