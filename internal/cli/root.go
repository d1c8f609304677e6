package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/lamp/internal/config"
	"github.com/dshills/lamp/internal/providers"
	"github.com/dshills/lamp/internal/review"
)

const version = "0.3.0"

// Exit codes.
const (
	ExitSuccess         = 0
	ExitUsageError      = 2
	ExitAuthError       = 3
	ExitRuntimeError    = 4
	ExitQuotaError      = 5
	ExitPayloadTooLarge = 6
)

var (
	flagVerbose bool
	logger      *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lamp",
	Short: "Whole-file AI code review through OpenRouter",
	Long: "Lamp packs source files, directories and zip archives into a single review prompt, " +
		"sends it to a model on OpenRouter and prints the review with its executive summary.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(".env"); err != nil {
			return err
		}
		l, err := newLogger(flagVerbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newLogger builds a production logger on stderr. Only warnings surface
// unless verbose is set, so normal output stays readable.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// log returns the command logger, or a no-op logger when commands run
// outside the root command.
func log() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// exitCodeFor maps a review failure to its exit code.
func exitCodeFor(err error) int {
	var tooLarge *review.PayloadTooLargeError
	switch {
	case errors.As(err, &tooLarge):
		return ExitPayloadTooLarge
	case errors.Is(err, review.ErrNoFiles):
		return ExitUsageError
	case providers.IsAuthError(err):
		return ExitAuthError
	case providers.IsQuotaError(err):
		return ExitQuotaError
	}
	return ExitRuntimeError
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print lamp version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lamp version %s\n", version)
	},
}
