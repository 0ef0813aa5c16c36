package orders_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/ojo-network/cond-matcher/orders"
)

func dec(s string) math.LegacyDec {
	return math.LegacyMustNewDecFromStr(s)
}

func TestNewPopulatesFields(t *testing.T) {
	o := orders.New(orders.NewOrder{
		Pair:     "BTC/USDT",
		Side:     orders.SideBuy,
		Price:    dec("100.5"),
		Quantity: dec("2.0"),
	})

	require.Equal(t, "BTC/USDT", o.Pair)
	require.Equal(t, orders.SideBuy, o.Side)
	require.True(t, o.Price.Equal(dec("100.5")))
	require.True(t, o.Quantity.Equal(dec("2.0")))
	require.Equal(t, orders.StatusNew, o.Status)
	require.NotEmpty(t, o.ID)
	require.False(t, o.UpdatedAt.Before(o.CreatedAt))
}

func TestStatusTerminalAndActive(t *testing.T) {
	require.True(t, orders.StatusFilled.Terminal())
	require.True(t, orders.StatusCancelled.Terminal())
	require.False(t, orders.StatusNew.Terminal())
	require.False(t, orders.StatusOpen.Terminal())
	require.False(t, orders.StatusPartiallyFilled.Terminal())

	require.True(t, orders.StatusNew.Active())
	require.True(t, orders.StatusOpen.Active())
	require.True(t, orders.StatusPartiallyFilled.Active())
	require.False(t, orders.StatusFilled.Active())
	require.False(t, orders.StatusCancelled.Active())
}

func TestCrossesBuy(t *testing.T) {
	buy := orders.Order{Side: orders.SideBuy, Price: dec("100")}

	require.True(t, buy.Crosses(dec("100")), "equal price crosses")
	require.True(t, buy.Crosses(dec("99")), "oracle below limit crosses")
	require.False(t, buy.Crosses(dec("101")), "oracle above limit does not cross")
}

func TestCrossesSell(t *testing.T) {
	sell := orders.Order{Side: orders.SideSell, Price: dec("100")}

	require.True(t, sell.Crosses(dec("100")), "equal price crosses")
	require.True(t, sell.Crosses(dec("101")), "oracle above limit crosses")
	require.False(t, sell.Crosses(dec("99")), "oracle below limit does not cross")
}
