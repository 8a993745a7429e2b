package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muhammadolammi/cvbuilder/internal/config"
	"github.com/muhammadolammi/cvbuilder/internal/dialogue"
	"github.com/muhammadolammi/cvbuilder/internal/observability"
	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

var rootCmd = &cobra.Command{
	Use:   "cvbuilder",
	Short: "Conversational resume builder",
	Long:  "cvbuilder collects education, work experience and skills through a guided chat\nand produces a structured resume record.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(workerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and wires the session service on top of the
// configured extraction backend.
func setup(ctx context.Context) (*config.Config, *dialogue.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	observability.SetLevel(cfg.LogLevel)

	s := schema.Default()
	ex, err := newExtractor(ctx, cfg, s)
	if err != nil {
		return nil, nil, err
	}
	orch := dialogue.NewOrchestrator(s, ex, dialogue.Options{
		QuestionBudget: cfg.QuestionBudget,
		ExtractTimeout: cfg.ExtractTimeout,
	})
	observability.Logger().Info("session service ready",
		"extractor", cfg.Extractor, "model", cfg.ModelName, "question_budget", cfg.QuestionBudget)
	return cfg, dialogue.NewService(orch), nil
}
