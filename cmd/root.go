package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "askdoc",
	Short: "Question answering over remote documents",
	Long: `Askdoc ingests a remote document into a namespaced vector knowledge
base exactly once, then answers batches of natural-language questions
against it, caching answers durably and by semantic similarity so
repeated or paraphrased questions skip generation.`,
}

func Execute() error {
	// Load .env if present; real environment variables win.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".askdoc.yml", "config file path")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
