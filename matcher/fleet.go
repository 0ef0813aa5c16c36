// Package matcher runs the per-asset matcher fleet: one periodic worker per
// configured asset that reconciles the repository's active orders against
// the latest oracle price.
package matcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ojo-network/cond-matcher/oracle"
	"github.com/ojo-network/cond-matcher/orders"
	"github.com/ojo-network/cond-matcher/repository"
)

// activeStatuses is the fixed set of statuses a worker reconciles each tick.
var activeStatuses = [...]orders.Status{
	orders.StatusNew,
	orders.StatusOpen,
	orders.StatusPartiallyFilled,
}

// Fleet owns the set of per-asset matcher workers. Workers share the cache
// (read-only) and the repository; they never coordinate directly, since the
// repository partitions work by pair.
type Fleet struct {
	repo   repository.Repository
	cache  *oracle.Cache
	period time.Duration
	logger zerolog.Logger
}

// NewFleet returns a Fleet that reads prices from cache, reconciles orders
// in repo, and ticks every period.
func NewFleet(repo repository.Repository, cache *oracle.Cache, period time.Duration, logger zerolog.Logger) *Fleet {
	return &Fleet{
		repo:   repo,
		cache:  cache,
		period: period,
		logger: logger.With().Str("module", "matcher").Logger(),
	}
}

// Start launches one worker goroutine per asset and blocks until ctx is
// cancelled and every worker has returned. Workers return nil on
// cancellation rather than an error, so Start returns nil.
func (f *Fleet) Start(ctx context.Context, assets []string) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, asset := range assets {
		asset := asset
		g.Go(func() error {
			f.runWorker(ctx, asset)
			return nil
		})
	}

	return g.Wait()
}

// runWorker ticks every f.period for asset until ctx is cancelled. time.Ticker
// drops ticks a slow receiver missed rather than queueing them, so a worker
// that overran one period fires once immediately and resumes the cadence,
// never bursting through a backlog.
func (f *Fleet) runWorker(ctx context.Context, asset string) {
	logger := f.logger.With().Str("pair", asset).Logger()

	ticker := time.NewTicker(f.period)
	defer ticker.Stop()

	var tickNum uint64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickNum++
			f.tick(ctx, asset, tickNum, logger)
		}
	}
}

// tick runs one evaluation of asset against the latest oracle price: read
// the price, collect the active order set, apply the crossing rule to each
// order, and log a summary. No repository error aborts the tick; no tick
// failure stops the worker.
func (f *Fleet) tick(ctx context.Context, asset string, tickNum uint64, logger zerolog.Logger) {
	tick, ok := f.cache.GetPrice(asset)
	if !ok {
		logger.Debug().Uint64("tick", tickNum).Msg("no oracle price yet; skipping tick")
		return
	}

	active := f.collectActive(ctx, asset, logger)

	logger.Info().
		Uint64("tick", tickNum).
		Str("oracle_px", tick.Price.String()).
		Time("oracle_ts", tick.ObservedAt).
		Int("active_count", len(active)).
		Msg("tick")

	if len(active) == 0 {
		logger.Debug().Uint64("tick", tickNum).Msg("no active orders")
		return
	}

	matched, promoted := f.reconcile(ctx, asset, active, tick, logger)

	logger.Info().
		Uint64("tick", tickNum).
		Int("matched", matched).
		Int("promoted", promoted).
		Msg("tick summary")
}

// collectActive issues one List call per active status and concatenates the
// successful results. A failing call is logged and its contribution dropped;
// the other statuses still get processed.
func (f *Fleet) collectActive(ctx context.Context, asset string, logger zerolog.Logger) []orders.Order {
	var active []orders.Order

	for _, status := range activeStatuses {
		list, err := f.repo.List(ctx, repository.ListQuery{Pair: asset, Status: status})
		if err != nil {
			logger.Error().Err(err).Str("status", status.String()).Msg("failed to list orders")
			incrRepositoryError(asset, "list")
			continue
		}
		active = append(active, list...)
	}

	return active
}

// reconcile applies the crossing rule to every order in active, returning
// the number matched (filled) and promoted (New -> Open).
func (f *Fleet) reconcile(ctx context.Context, asset string, active []orders.Order, tick oracle.Tick, logger zerolog.Logger) (matched, promoted int) {
	for _, o := range active {
		switch {
		case o.Crosses(tick.Price):
			if _, err := f.repo.SetStatus(ctx, o.ID, orders.StatusFilled); err != nil {
				logger.Error().Err(err).Str("order_id", o.ID).Msg("failed to set status=filled")
				incrRepositoryError(asset, "set_status_filled")
				continue
			}
			matched++
			incrMatched(asset)
			logExecute(logger, o, tick)

		case o.Status == orders.StatusNew:
			if _, err := f.repo.SetStatus(ctx, o.ID, orders.StatusOpen); err != nil {
				logger.Error().Err(err).Str("order_id", o.ID).Msg("failed to promote new->open")
				incrRepositoryError(asset, "set_status_open")
				continue
			}
			promoted++
			incrPromoted(asset)

		default:
			// already Open or PartiallyFilled and not crossing: nothing to do.
		}
	}

	return matched, promoted
}

func logExecute(logger zerolog.Logger, o orders.Order, tick oracle.Tick) {
	logger.Info().
		Str("pair", o.Pair).
		Str("side", o.Side.String()).
		Str("id", o.ID).
		Str("quantity", o.Quantity.String()).
		Str("limit_px", o.Price.String()).
		Str("exec_px", tick.Price.String()).
		Time("oracle_ts", tick.ObservedAt).
		Msg("EXECUTE")
}
