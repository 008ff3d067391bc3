package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	askDocURL    string
	askQuestions []string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ingest a document and answer questions from the command line",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := buildApp(cfg)
		if err != nil {
			return err
		}
		defer a.close()

		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Ingesting"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionClearOnFinish(),
		)
		a.pipeline.SetProgressFunc(func(done, total int, stage string) {
			bar.ChangeMax(total)
			bar.Describe(fmt.Sprintf("Ingesting (%s)", stage))
			_ = bar.Set(done)
		})

		answers, err := a.engine.Process(context.Background(), askDocURL, askQuestions)
		_ = bar.Finish()
		if err != nil {
			return err
		}

		for _, q := range askQuestions {
			fmt.Printf("Q: %s\nA: %s\n\n", q, answers[q])
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askDocURL, "doc", "", "document URL to ingest and query")
	askCmd.Flags().StringArrayVarP(&askQuestions, "question", "q", nil, "question to ask (repeatable)")
	askCmd.MarkFlagRequired("doc")
	askCmd.MarkFlagRequired("question")
	rootCmd.AddCommand(askCmd)
}
