// cmd/trialpipe/classify.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/David-Botos/trial-ingress/pkg/classifier"
)

var classifyCmd = &cobra.Command{
	Use:   "classify INTERVENTIONS...",
	Short: "Ask the classifier about intervention lists without touching storage",
	Long: `Each argument is one aggregated intervention string, e.g.
"Drug: Gemcitabine, Drug: Fluorouracil". One line is printed per argument:
the coerced answer (Y or N), a tab, then the argument.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		backend, err := classifier.NewBackend(ctx, cfg.Classifier, logger)
		if err != nil {
			return err
		}
		adapter := classifier.NewAdapter(backend, cfg.Classifier.Timeout, cfg.Classifier.Concurrency, logger)
		return classifyInterventions(ctx, adapter, args, os.Stdout)
	},
}

func classifyInterventions(ctx context.Context, adapter *classifier.Adapter, aggregated []string, out io.Writer) error {
	labels, err := adapter.ContainsChemo(ctx, aggregated)
	if err != nil {
		return err
	}
	for i, text := range aggregated {
		answer := "N"
		if labels[i] {
			answer = classifier.PositiveAnswer
		}
		fmt.Fprintf(out, "%s\t%s\n", answer, text)
	}
	return nil
}
