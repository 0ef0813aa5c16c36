package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	flagMockBind     = "bind"
	flagMockPairs    = "pairs"
	flagMockInterval = "interval"
)

// mockTick is the wire shape the matcher's oracle client decodes.
type mockTick struct {
	Pair  string  `json:"pair"`
	Price float64 `json:"price"`
	TsMs  int64   `json:"ts_ms"`
}

var mockUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func getMockOracleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mockoracle",
		Short: "Runs a standalone websocket server that random-walks a price per pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			bind, err := cmd.Flags().GetString(flagMockBind)
			if err != nil {
				return err
			}
			pairsStr, err := cmd.Flags().GetString(flagMockPairs)
			if err != nil {
				return err
			}
			interval, err := cmd.Flags().GetDuration(flagMockInterval)
			if err != nil {
				return err
			}

			pairs := splitPairs(pairsStr)
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			srv := newMockOracleServer(pairs, interval, logger)
			return srv.run(ctx, bind)
		},
	}

	cmd.Flags().String(flagMockBind, "127.0.0.1:9001", "address to bind the mock oracle websocket server")
	cmd.Flags().String(flagMockPairs, "BTC/USDT,ETH/USDT,SOL/USDT", "comma-separated list of pairs to publish")
	cmd.Flags().Duration(flagMockInterval, time.Second, "interval between published ticks")

	return cmd
}

func splitPairs(s string) []string {
	parts := strings.Split(s, ",")
	pairs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// mockOracleServer random-walks a baseline price per pair and pushes one
// tick per pair, per interval, to every connected client (optionally
// filtered to a single pair by the ?pair= query parameter).
type mockOracleServer struct {
	pairs    []string
	interval time.Duration
	logger   zerolog.Logger

	mtx       sync.Mutex
	baselines map[string]float64
}

func newMockOracleServer(pairs []string, interval time.Duration, logger zerolog.Logger) *mockOracleServer {
	baselines := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		baselines[pair] = seedPrice(pair)
	}

	return &mockOracleServer{
		pairs:     pairs,
		interval:  interval,
		logger:    logger.With().Str("module", "mockoracle").Logger(),
		baselines: baselines,
	}
}

func (s *mockOracleServer) run(ctx context.Context, bind string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	httpSrv := &http.Server{Addr: bind, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", bind).Msg("mock oracle listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *mockOracleServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := mockUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("mock oracle: upgrade failed")
		return
	}
	defer conn.Close()

	pairs := s.pairs
	if filter := r.URL.Query().Get("pair"); filter != "" {
		pairs = []string{filter}
	}

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	// Control frames are only processed while reading, so drain the
	// connection in the background for the ping handler to run.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for range ticker.C {
		for _, pair := range pairs {
			tick := mockTick{
				Pair:  pair,
				Price: s.step(pair),
				TsMs:  time.Now().UnixMilli(),
			}
			data, err := json.Marshal(tick)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

// step advances pair's baseline price by a small bounded random walk and
// returns the new value.
func (s *mockOracleServer) step(pair string) float64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	prev, ok := s.baselines[pair]
	if !ok {
		prev = seedPrice(pair)
	}

	const drift = 0.0002
	noise := (rand.Float64()*2 - 1) * 0.003
	next := prev * (1 + drift + noise)
	if next < 0.01 {
		next = 0.01
	}

	s.baselines[pair] = next
	return next
}

// seedPrice derives a deterministic starting price from pair's name so
// repeated runs without a persisted baseline still look plausible.
func seedPrice(pair string) float64 {
	var h uint64 = 0xcbf29ce484222325
	for _, b := range []byte(pair) {
		h ^= uint64(b)
		h *= 0x100000001b3
	}
	return 50.0 + float64(h%500)
}
