package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"

	logLevelJSON = "json"
	logLevelText = "text"
)

// NewRootCmd returns the cond-matcher root command with its subcommands
// attached: serve runs the matching service, mockoracle runs a standalone
// dev-tool price feed.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cond-matcher",
		Short:         "A conditional-order matcher for spot trading pairs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(flagLogLevel, zerolog.InfoLevel.String(), "logging level")
	rootCmd.PersistentFlags().String(flagLogFormat, logLevelText, "logging format; text or json")

	rootCmd.AddCommand(
		getServeCmd(),
		getMockOracleCmd(),
	)

	return rootCmd
}

// newLogger builds a zerolog.Logger from the flags registered on cmd (or one
// of its ancestors). An unknown level or format is returned as an error.
func newLogger(cmd *cobra.Command) (zerolog.Logger, error) {
	logLvlStr, err := cmd.Flags().GetString(flagLogLevel)
	if err != nil {
		return zerolog.Logger{}, err
	}

	logLvl, err := zerolog.ParseLevel(logLvlStr)
	if err != nil {
		return zerolog.Logger{}, err
	}

	logFormatStr, err := cmd.Flags().GetString(flagLogFormat)
	if err != nil {
		return zerolog.Logger{}, err
	}

	var logWriter io.Writer
	switch strings.ToLower(logFormatStr) {
	case logLevelJSON:
		logWriter = os.Stderr
	case logLevelText:
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr}
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid logging format: %s", logFormatStr)
	}

	return zerolog.New(logWriter).Level(logLvl).With().Timestamp().Logger(), nil
}

// trapSignal calls cancel on SIGINT/SIGTERM, logging the signal it
// received. The watcher goroutine exits once ctx is done.
func trapSignal(ctx context.Context, cancel context.CancelFunc, logger zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()
}
