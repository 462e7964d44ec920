package venue_test

import (
	"context"
	"testing"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/pantheonelite/gocouncil/exchanges/venue"
	"github.com/stretchr/testify/require"
)

func TestPaperClientFillsAtMarkWithZeroCommission(t *testing.T) {
	c := venue.NewPaperClient(100)
	c.SetMarkPrice("BTCUSDT", decimal.MustFromString("50000", decimal.ScaleAsset))

	ctx := context.Background()
	price, err := c.GetTicker(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, "50000.00000000", price.String())

	res, err := c.PlaceOrder(ctx, venue.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     domain.OrderSideBuy,
		Type:     domain.OrderTypeMarket,
		Quantity: decimal.MustFromString("0.1", decimal.ScaleAsset),
	})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusFilled, res.Status)
	require.Equal(t, "50000.00000000", res.AvgPrice.String())
	require.True(t, res.Commission.IsZero())
}

func TestPaperClientUnknownSymbolErrors(t *testing.T) {
	c := venue.NewPaperClient(100)
	_, err := c.GetTicker(context.Background(), "ETHUSDT")
	require.Error(t, err)
}
