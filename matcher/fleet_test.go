package matcher_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ojo-network/cond-matcher/matcher"
	"github.com/ojo-network/cond-matcher/oracle"
	"github.com/ojo-network/cond-matcher/orders"
	"github.com/ojo-network/cond-matcher/repository"
)

func dec(s string) math.LegacyDec {
	return math.LegacyMustNewDecFromStr(s)
}

const tickPeriod = 10 * time.Millisecond

// failingRepo wraps an InMemory repository so tests can inject failures on a
// specific order id's SetStatus call, or on List calls for a given status,
// to exercise the matcher's partial-failure isolation.
type failingRepo struct {
	*repository.InMemory

	failSetStatusID string
	failListStatus  orders.Status
}

func (r *failingRepo) SetStatus(ctx context.Context, id string, status orders.Status) (orders.Order, error) {
	if r.failSetStatusID != "" && id == r.failSetStatusID {
		return orders.Order{}, errors.New("injected set_status failure")
	}
	return r.InMemory.SetStatus(ctx, id, status)
}

func (r *failingRepo) List(ctx context.Context, q repository.ListQuery) ([]orders.Order, error) {
	if r.failListStatus != "" && q.Status == r.failListStatus {
		return nil, errors.New("injected list failure")
	}
	return r.InMemory.List(ctx, q)
}

func runFleetFor(t *testing.T, repo repository.Repository, cache *oracle.Cache, assets []string, wait time.Duration) {
	t.Helper()

	f := matcher.NewFleet(repo, cache, tickPeriod, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		_ = f.Start(ctx, assets)
		close(done)
	}()

	time.Sleep(wait)
	cancel()
	<-done
}

func TestBuyAtLimitEqualsOracleFills(t *testing.T) {
	repo := repository.NewInMemory()
	o, err := repo.Create(context.Background(), orders.NewOrder{
		Pair: "BTC/USDT", Side: orders.SideBuy, Price: dec("100.0"), Quantity: dec("1"),
	})
	require.NoError(t, err)

	cache := oracle.NewCache()
	cache.Set(oracle.Tick{Pair: "BTC/USDT", Price: dec("100.0"), ObservedAt: time.Now()})

	runFleetFor(t, repo, cache, []string{"BTC/USDT"}, 6*tickPeriod)

	got, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusFilled, got.Status)
}

func TestBuyBelowMarketPromotesThenStaysOpen(t *testing.T) {
	repo := repository.NewInMemory()
	o, err := repo.Create(context.Background(), orders.NewOrder{
		Pair: "BTC/USDT", Side: orders.SideBuy, Price: dec("100.0"), Quantity: dec("1"),
	})
	require.NoError(t, err)

	cache := oracle.NewCache()
	cache.Set(oracle.Tick{Pair: "BTC/USDT", Price: dec("101.0"), ObservedAt: time.Now()})

	runFleetFor(t, repo, cache, []string{"BTC/USDT"}, 6*tickPeriod)

	got, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusOpen, got.Status)
}

func TestSellAtMarketFills(t *testing.T) {
	repo := repository.NewInMemory()
	o, err := repo.Create(context.Background(), orders.NewOrder{
		Pair: "BTC/USDT", Side: orders.SideSell, Price: dec("100.0"), Quantity: dec("1"),
	})
	require.NoError(t, err)
	_, err = repo.SetStatus(context.Background(), o.ID, orders.StatusOpen)
	require.NoError(t, err)

	cache := oracle.NewCache()
	cache.Set(oracle.Tick{Pair: "BTC/USDT", Price: dec("100.5"), ObservedAt: time.Now()})

	runFleetFor(t, repo, cache, []string{"BTC/USDT"}, 6*tickPeriod)

	got, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusFilled, got.Status)
}

func TestMixedStatusesFillTogether(t *testing.T) {
	repo := repository.NewInMemory()

	seeded := make([]orders.Order, 0, 3)
	for _, status := range []orders.Status{orders.StatusNew, orders.StatusOpen, orders.StatusPartiallyFilled} {
		o := orders.New(orders.NewOrder{
			Pair: "BTC/USDT", Side: orders.SideBuy, Price: dec("100"), Quantity: dec("1"),
		})
		o.Status = status
		seeded = append(seeded, o)
	}
	repo.Seed(seeded...)

	cache := oracle.NewCache()
	cache.Set(oracle.Tick{Pair: "BTC/USDT", Price: dec("100.0"), ObservedAt: time.Now()})

	runFleetFor(t, repo, cache, []string{"BTC/USDT"}, 6*tickPeriod)

	for _, o := range seeded {
		got, err := repo.GetByID(context.Background(), o.ID)
		require.NoError(t, err)
		require.Equal(t, orders.StatusFilled, got.Status)
	}
}

func TestRepositoryErrorIsolatesOtherOrders(t *testing.T) {
	base := repository.NewInMemory()

	ok, err := base.Create(context.Background(), orders.NewOrder{
		Pair: "BTC/USDT", Side: orders.SideBuy, Price: dec("100"), Quantity: dec("1"),
	})
	require.NoError(t, err)
	_, err = base.SetStatus(context.Background(), ok.ID, orders.StatusOpen)
	require.NoError(t, err)

	bad, err := base.Create(context.Background(), orders.NewOrder{
		Pair: "BTC/USDT", Side: orders.SideBuy, Price: dec("100"), Quantity: dec("1"),
	})
	require.NoError(t, err)
	_, err = base.SetStatus(context.Background(), bad.ID, orders.StatusOpen)
	require.NoError(t, err)

	repo := &failingRepo{InMemory: base, failSetStatusID: bad.ID}

	cache := oracle.NewCache()
	cache.Set(oracle.Tick{Pair: "BTC/USDT", Price: dec("100.0"), ObservedAt: time.Now()})

	runFleetFor(t, repo, cache, []string{"BTC/USDT"}, 6*tickPeriod)

	gotOK, err := base.GetByID(context.Background(), ok.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusFilled, gotOK.Status)

	gotBad, err := base.GetByID(context.Background(), bad.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusOpen, gotBad.Status)
}

func TestListFailureIsolatesOtherStatuses(t *testing.T) {
	base := repository.NewInMemory()

	newOrder, err := base.Create(context.Background(), orders.NewOrder{
		Pair: "BTC/USDT", Side: orders.SideBuy, Price: dec("100"), Quantity: dec("1"),
	})
	require.NoError(t, err)

	openOrder, err := base.Create(context.Background(), orders.NewOrder{
		Pair: "BTC/USDT", Side: orders.SideBuy, Price: dec("100"), Quantity: dec("1"),
	})
	require.NoError(t, err)
	_, err = base.SetStatus(context.Background(), openOrder.ID, orders.StatusOpen)
	require.NoError(t, err)

	repo := &failingRepo{InMemory: base, failListStatus: orders.StatusOpen}

	cache := oracle.NewCache()
	cache.Set(oracle.Tick{Pair: "BTC/USDT", Price: dec("100.0"), ObservedAt: time.Now()})

	runFleetFor(t, repo, cache, []string{"BTC/USDT"}, 6*tickPeriod)

	gotNew, err := base.GetByID(context.Background(), newOrder.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusFilled, gotNew.Status, "new order must still be processed despite Open list failure")

	gotOpen, err := base.GetByID(context.Background(), openOrder.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusOpen, gotOpen.Status, "open order's list call failed every tick, so it is never touched")
}

func TestAbsentOracleTickLeavesOrderUnchanged(t *testing.T) {
	repo := repository.NewInMemory()
	o, err := repo.Create(context.Background(), orders.NewOrder{
		Pair: "ETH/USDT", Side: orders.SideBuy, Price: dec("100"), Quantity: dec("1"),
	})
	require.NoError(t, err)

	cache := oracle.NewCache() // no tick ever published for ETH/USDT

	runFleetFor(t, repo, cache, []string{"ETH/USDT"}, 6*tickPeriod)

	got, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusNew, got.Status)
}

func TestNoPhantomPromotionOfNonCrossingOpenOrder(t *testing.T) {
	repo := repository.NewInMemory()
	o, err := repo.Create(context.Background(), orders.NewOrder{
		Pair: "BTC/USDT", Side: orders.SideBuy, Price: dec("90"), Quantity: dec("1"),
	})
	require.NoError(t, err)
	_, err = repo.SetStatus(context.Background(), o.ID, orders.StatusOpen)
	require.NoError(t, err)

	cache := oracle.NewCache()
	cache.Set(oracle.Tick{Pair: "BTC/USDT", Price: dec("100.0"), ObservedAt: time.Now()})

	runFleetFor(t, repo, cache, []string{"BTC/USDT"}, 6*tickPeriod)

	got, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusOpen, got.Status, "non-crossing open order must not be mutated")
}

func TestTerminalOrdersAreNeverRevisited(t *testing.T) {
	repo := repository.NewInMemory()
	o, err := repo.Create(context.Background(), orders.NewOrder{
		Pair: "BTC/USDT", Side: orders.SideBuy, Price: dec("100"), Quantity: dec("1"),
	})
	require.NoError(t, err)
	before, err := repo.SetStatus(context.Background(), o.ID, orders.StatusCancelled)
	require.NoError(t, err)

	cache := oracle.NewCache()
	cache.Set(oracle.Tick{Pair: "BTC/USDT", Price: dec("100.0"), ObservedAt: time.Now()})

	runFleetFor(t, repo, cache, []string{"BTC/USDT"}, 6*tickPeriod)

	after, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusCancelled, after.Status)
	require.Equal(t, before.UpdatedAt, after.UpdatedAt)
}
