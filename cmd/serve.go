package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ojo-network/cond-matcher/config"
	"github.com/ojo-network/cond-matcher/matcher"
	"github.com/ojo-network/cond-matcher/oracle"
	"github.com/ojo-network/cond-matcher/repository"
	v1 "github.com/ojo-network/cond-matcher/router/v1"
)

func getServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve [config-file]",
		Args:  cobra.MaximumNArgs(1),
		Short: "Runs the conditional-order matcher: oracle client, matcher fleet, and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			configPath := config.SampleNodeConfigPath
			if len(args) > 0 {
				configPath = args[0]
			}

			cfg, err := config.LoadConfigFromFlags(configPath, "")
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			trapSignal(ctx, cancel, logger)

			return runServe(ctx, cfg, logger)
		},
	}

	return serveCmd
}

// runServe wires the price cache, the streaming oracle client, the order
// repository, the matcher fleet, and the HTTP router together, then blocks
// until ctx is cancelled. Every long-running component is started under a
// single errgroup so a fatal error in any one of them tears the rest down.
func runServe(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	cache := oracle.NewCache()

	initialBackoff, maxBackoff, err := cfg.OracleBackoffs()
	if err != nil {
		return err
	}

	oracleClient := oracle.NewClient(oracle.ClientConfig{
		Endpoint:       cfg.Oracle.Endpoint,
		Pair:           cfg.Oracle.Pair,
		InitialBackoff: initialBackoff,
		MaxBackoff:     maxBackoff,
	}, cache, logger)

	repo := newRepository(cfg.Repository)

	tickPeriod, err := cfg.MatcherTickPeriod()
	if err != nil {
		return err
	}
	fleet := matcher.NewFleet(repo, cache, tickPeriod, logger)

	router := v1.New(logger, repo, cfg.Server.AllowedOrigins, cfg.Server.VerboseCORS)
	m := mux.NewRouter()
	router.RegisterRoutes(m, v1.APIPathPrefix)

	writeTimeout, err := time.ParseDuration(cfg.Server.WriteTimeout)
	if err != nil {
		return fmt.Errorf("invalid server write_timeout: %w", err)
	}
	readTimeout, err := time.ParseDuration(cfg.Server.ReadTimeout)
	if err != nil {
		return fmt.Errorf("invalid server read_timeout: %w", err)
	}

	httpSrv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      m,
		WriteTimeout: writeTimeout,
		ReadTimeout:  readTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		oracleClient.Run(ctx)
		return nil
	})

	g.Go(func() error {
		return fleet.Start(ctx, cfg.Assets)
	})

	g.Go(func() error {
		logger.Info().Str("addr", cfg.Server.ListenAddr).Msg("HTTP API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newRepository returns the Repository backing store named by kind. Only
// "memory" is currently supported; unrecognized values fall back to it.
func newRepository(kind string) repository.Repository {
	switch kind {
	case "memory", "":
		return repository.NewInMemory()
	default:
		return repository.NewInMemory()
	}
}
