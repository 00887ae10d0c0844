// cmd/trialpipe/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/config"
	"github.com/David-Botos/trial-ingress/pkg/pipeline"
	"github.com/David-Botos/trial-ingress/pkg/server"
)

var (
	verbose bool
	timeout time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "trialpipe",
	Short: "Clinical-trial ingestion, classification and validation pipeline",
	Long: `trialpipe ingests oncology trials from the ClinicalTrials.gov registry,
materializes the transformed table, labels each trial's interventions as
chemotherapy or not with a language model, and scores the labels against
a fixed gold set.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err = newLogger(level, cfg.LogFormat)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline once",
	Long: `Fetch and clean every registry page, replace trial_data_raw, write the
CSV snapshot, run the transform, classify the selected trials into
trial_data_inferred and report accuracy against the gold labels.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(pipeline.OperationRun, true)
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch the registry and replace trial_data_raw only",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(pipeline.OperationIngest, false)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Score the stored predictions against the gold labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(pipeline.OperationValidate, false)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP trigger (GET /, POST /runs, GET /healthz)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := pipeline.NewFromConfig(ctx, cfg, true, logger)
		if err != nil {
			return err
		}
		srv, err := server.New(p, logger)
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx, cfg.ServerAddr)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Abort the operation after this long (0 for no limit)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(classifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runOperation executes one pipeline operation with signal handling
func runOperation(operation string, withBackend bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	p, err := pipeline.NewFromConfig(ctx, cfg, withBackend, logger)
	if err != nil {
		return err
	}

	summary, err := p.Execute(ctx, operation)
	if err != nil {
		return err
	}
	if summary.Report != nil {
		for _, line := range summary.Report.Lines() {
			fmt.Println(line)
		}
	}
	return nil
}
