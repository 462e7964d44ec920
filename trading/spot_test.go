package trading_test

import (
	"context"
	"testing"

	"github.com/pantheonelite/gocouncil/domain"
	"github.com/stretchr/testify/require"
)

func TestExecuteSpotOpensHoldingOnBuy(t *testing.T) {
	h := newHarness(t, domain.TradingTypeSpot)
	out := h.executor.Execute(context.Background(), h.council, decision(domain.DecisionBuy, "0.8"), h.client, nil)
	require.True(t, out.Success)
	require.True(t, out.WasExecuted)

	holding, err := h.executor.SpotRepo.FindByKey(h.council.ID, "BTCUSDT", "paper", h.council.TradingMode)
	require.NoError(t, err)
	require.Equal(t, domain.HoldingStatusActive, holding.Status)
	require.False(t, holding.Total.IsZero())
}

func TestExecuteSpotSellBeyondHoldingFails(t *testing.T) {
	h := newHarness(t, domain.TradingTypeSpot)
	out := h.executor.Execute(context.Background(), h.council, decision(domain.DecisionSell, "0.8"), h.client, nil)
	require.False(t, out.Success)
	require.Equal(t, "insufficient_holdings", out.Reason)
	require.Error(t, out.Err)
}

func TestExecuteSpotSellClosesHoldingAtZero(t *testing.T) {
	h := newHarness(t, domain.TradingTypeSpot)
	ctx := context.Background()

	bought := h.executor.Execute(ctx, h.council, decision(domain.DecisionBuy, "0.8"), h.client, nil)
	require.True(t, bought.WasExecuted)

	sold := h.executor.Execute(ctx, h.council, decision(domain.DecisionSell, "0.8"), h.client, nil)
	require.True(t, sold.WasExecuted)

	holding, err := h.executor.SpotRepo.FindByKey(h.council.ID, "BTCUSDT", "paper", h.council.TradingMode)
	require.NoError(t, err)
	require.Equal(t, domain.HoldingStatusClosed, holding.Status)
	require.True(t, holding.Total.IsZero())
}
