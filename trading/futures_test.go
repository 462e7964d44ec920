package trading_test

import (
	"context"
	"testing"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/stretchr/testify/require"
)

func TestExecuteFuturesOpensNewPosition(t *testing.T) {
	h := newHarness(t, domain.TradingTypeFutures)
	out := h.executor.Execute(context.Background(), h.council, decision(domain.DecisionBuy, "0.8"), h.client, nil)
	require.True(t, out.Success)
	require.True(t, out.WasExecuted)
	require.Equal(t, "executed", out.Reason)
	require.NotNil(t, out.OrderID)

	open, err := h.executor.FuturesRepo.FindOpen(h.council.ID, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, domain.PositionSideLong, open[0].PositionSide)
	require.True(t, open[0].PositionAmt.GreaterThan(decimal.Zero(decimal.ScaleAsset)))
}

func TestExecuteFuturesMergesSameDirectionFill(t *testing.T) {
	h := newHarness(t, domain.TradingTypeFutures)
	ctx := context.Background()

	first := h.executor.Execute(ctx, h.council, decision(domain.DecisionBuy, "0.5"), h.client, nil)
	require.True(t, first.WasExecuted)

	second := h.executor.Execute(ctx, h.council, decision(domain.DecisionBuy, "0.5"), h.client, nil)
	require.True(t, second.WasExecuted)

	open, err := h.executor.FuturesRepo.FindOpen(h.council.ID, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, domain.PositionSideLong, open[0].PositionSide)
}

func TestExecuteFuturesReducesOnSmallerOpposingFill(t *testing.T) {
	h := newHarness(t, domain.TradingTypeFutures)
	ctx := context.Background()

	opened := h.executor.Execute(ctx, h.council, decision(domain.DecisionBuy, "0.8"), h.client, nil)
	require.True(t, opened.WasExecuted)

	open, err := h.executor.FuturesRepo.FindOpen(h.council.ID, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, open, 1)
	openedAmt := open[0].PositionAmt

	// A SELL at a lower max-position cap than the existing long reduces
	// rather than closes it outright.
	h.executor.MaxPositionPct = decimal.MustFromString("0.05", decimal.ScalePercent)
	reduced := h.executor.Execute(ctx, h.council, decision(domain.DecisionSell, "0.8"), h.client, nil)
	require.True(t, reduced.WasExecuted)

	open, err = h.executor.FuturesRepo.FindOpen(h.council.ID, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.True(t, open[0].PositionAmt.LessThan(openedAmt))
}

func TestExecuteFuturesClosesOnFullOpposingFill(t *testing.T) {
	h := newHarness(t, domain.TradingTypeFutures)
	ctx := context.Background()

	opened := h.executor.Execute(ctx, h.council, decision(domain.DecisionBuy, "0.8"), h.client, nil)
	require.True(t, opened.WasExecuted)

	closed := h.executor.Execute(ctx, h.council, decision(domain.DecisionSell, "0.8"), h.client, nil)
	require.True(t, closed.WasExecuted)

	open, err := h.executor.FuturesRepo.FindOpen(h.council.ID, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, open, 0)

	closedPositions, err := h.executor.FuturesRepo.FindClosed(h.council.ID, 10)
	require.NoError(t, err)
	require.Len(t, closedPositions, 1)
	require.Equal(t, domain.PositionStatusClosed, closedPositions[0].Status)
}
