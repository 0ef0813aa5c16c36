package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"cosmossdk.io/math"
	"github.com/armon/go-metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	defaultInitialBackoff = 2 * time.Second
	defaultMaxBackoff     = 30 * time.Second

	pongWait = 5 * time.Second
)

// ClientConfig configures a streaming Client connection to an oracle feed.
type ClientConfig struct {
	// Endpoint is the websocket URL of the oracle feed.
	Endpoint string
	// Pair, when set, is appended to Endpoint as a ?pair= filter. Left empty,
	// the client subscribes to every pair the server publishes.
	Pair string
	// InitialBackoff is the first reconnect delay. Defaults to 2s.
	InitialBackoff time.Duration
	// MaxBackoff caps the reconnect delay. Defaults to 30s.
	MaxBackoff time.Duration
}

// Client is a long-lived streaming consumer of oracle ticks. It reconnects
// with exponential backoff and feeds every decoded tick into a Cache. The
// sole writer to the Cache is the Client; malformed frames are logged and
// skipped without tearing down the session.
type Client struct {
	cfg    ClientConfig
	cache  *Cache
	logger zerolog.Logger
	dialer *websocket.Dialer
}

// NewClient returns a Client that writes ticks into cache, applying defaults
// for any zero-valued backoff fields in cfg.
func NewClient(cfg ClientConfig, cache *Cache, logger zerolog.Logger) *Client {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}

	return &Client{
		cfg:    cfg,
		cache:  cache,
		logger: logger.With().Str("module", "oracle_client").Str("endpoint", cfg.Endpoint).Logger(),
		dialer: websocket.DefaultDialer,
	}
}

// Run connects to the oracle endpoint and streams ticks into the cache until
// ctx is cancelled. The connection lifecycle is Disconnected -> Connected ->
// WaitingBackoff -> Disconnected; backoff resets to InitialBackoff on every
// successful connect and doubles, capped at MaxBackoff, on every exit from
// Connected. Run only returns once ctx is done.
func (c *Client) Run(ctx context.Context) {
	backoff := c.cfg.InitialBackoff

	for ctx.Err() == nil {
		conn, err := c.connect(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Dur("backoff", backoff).Msg("oracle connect failed")
			c.incrReconnect()
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, c.cfg.MaxBackoff)
			continue
		}

		c.logger.Info().Msg("oracle connected")
		backoff = c.cfg.InitialBackoff

		// Unblock the read loop on shutdown; a blocked ReadMessage only
		// returns once the connection is closed under it.
		watchDone := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				_ = conn.Close()
			case <-watchDone:
			}
		}()

		c.readLoop(ctx, conn)
		close(watchDone)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}

		c.logger.Info().Dur("backoff", backoff).Msg("oracle disconnected, reconnecting")
		c.incrReconnect()
		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, c.cfg.MaxBackoff)
	}
}

func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	target, err := buildURL(c.cfg.Endpoint, c.cfg.Pair)
	if err != nil {
		return nil, err
	}

	conn, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, err
	}

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(pongWait))
	})

	return conn, nil
}

// readLoop dispatches frames off conn until a read error or ctx cancellation.
// Control frames never reach ReadMessage: pings are answered by the handler
// registered in connect, and a server close surfaces here as a read error,
// which ends the session and drives the reconnect cycle. Binary frames are
// ignored; malformed text frames are logged and skipped without ending the
// session.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			c.logger.Warn().Err(err).Msg("oracle read error")
			return
		}

		if msgType != websocket.TextMessage {
			// binary frames carry no tick data.
			continue
		}

		c.handleFrame(data)
	}
}

// wireTick is the on-wire shape of a single oracle tick frame.
type wireTick struct {
	Pair  string      `json:"pair"`
	Price json.Number `json:"price"`
	TsMs  int64       `json:"ts_ms"`
}

func (c *Client) handleFrame(data []byte) {
	var wt wireTick
	if err := json.Unmarshal(data, &wt); err != nil {
		c.logger.Warn().Err(err).Bytes("raw", data).Msg("oracle: malformed tick frame, skipping")
		return
	}

	if wt.Pair == "" || wt.Price == "" || wt.TsMs == 0 {
		c.logger.Warn().Bytes("raw", data).Msg("oracle: tick frame missing required fields, skipping")
		return
	}

	px, err := math.LegacyNewDecFromStr(wt.Price.String())
	if err != nil || !px.IsPositive() {
		c.logger.Warn().Err(err).Bytes("raw", data).Msg("oracle: invalid tick price, skipping")
		return
	}

	c.cache.Set(Tick{
		Pair:       wt.Pair,
		Price:      px,
		ObservedAt: time.UnixMilli(wt.TsMs).UTC(),
	})
}

// incrReconnect records one reconnect cycle, labeled by endpoint.
func (c *Client) incrReconnect() {
	metrics.IncrCounterWithLabels(
		[]string{"oracle", "client", "reconnect"},
		1,
		[]metrics.Label{{Name: "endpoint", Value: c.cfg.Endpoint}},
	)
}

func buildURL(endpoint, pair string) (string, error) {
	if pair == "" {
		return endpoint, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid oracle endpoint %q: %w", endpoint, err)
	}

	q := u.Query()
	q.Set("pair", pair)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
