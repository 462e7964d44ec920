package trading

import (
	"context"

	"github.com/pantheonelite/gocouncil/domain"
	"github.com/pantheonelite/gocouncil/exchanges/venue"
)

// ExecutedTrade records one decision that a sub-executor placed.
type ExecutedTrade struct {
	Symbol   string
	Decision domain.Decision
	Outcome  Outcome
}

// SkippedTrade records a decision that was intentionally not executed
// (hold, low confidence, or validation failure).
type SkippedTrade struct {
	Symbol   string
	Decision domain.Decision
	Reason   string
}

// BatchResult aggregates one cycle's trade batch.
type BatchResult struct {
	Executed []ExecutedTrade
	Skipped  []SkippedTrade
}

// ExecuteBatch runs Execute over every decision in the consensus list,
// collecting per-symbol failures rather than propagating them.
// afterTrade is invoked once per successfully executed trade.
func (e *Executor) ExecuteBatch(ctx context.Context, c *domain.Council, decisions []*domain.ConsensusDecision, client venue.Client, afterTrade func() error) BatchResult {
	var result BatchResult
	for _, d := range decisions {
		out := e.Execute(ctx, c, d, client, afterTrade)
		if out.WasExecuted {
			result.Executed = append(result.Executed, ExecutedTrade{Symbol: d.Symbol, Decision: d.Decision, Outcome: out})
		} else {
			result.Skipped = append(result.Skipped, SkippedTrade{Symbol: d.Symbol, Decision: d.Decision, Reason: out.Reason})
		}
	}
	return result
}
