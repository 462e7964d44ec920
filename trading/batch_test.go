package trading_test

import (
	"context"
	"testing"

	"github.com/pantheonelite/gocouncil/domain"
	"github.com/stretchr/testify/require"
)

func TestExecuteBatchCollectsFailuresWithoutAborting(t *testing.T) {
	h := newHarness(t, domain.TradingTypeFutures)

	decisions := []*domain.ConsensusDecision{
		decision(domain.DecisionBuy, "0.8"),
		decision(domain.DecisionHold, "0.9"),
		decision(domain.DecisionBuy, "0.1"),
	}

	result := h.executor.ExecuteBatch(context.Background(), h.council, decisions, h.client, nil)
	require.Len(t, result.Executed, 1)
	require.Len(t, result.Skipped, 2)
}
