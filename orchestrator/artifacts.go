package orchestrator

import (
	"github.com/pantheonelite/gocouncil/common/convert"
	councilmath "github.com/pantheonelite/gocouncil/common/math"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/pantheonelite/gocouncil/llm"
	"github.com/pantheonelite/gocouncil/portfolio"
	"github.com/pantheonelite/gocouncil/trading"
)

// signalsSummary compresses one cycle's agent invocations into the
// json-blob artifact a CouncilRunCycle persists.
func signalsSummary(results []llm.Result) map[string]any {
	out := make(map[string]any, len(results))
	for _, r := range results {
		key := r.Invocation.Profile.AgentKey + ":" + r.Invocation.Symbol
		entry := map[string]any{
			"action":     string(r.Signal.Action),
			"confidence": r.Signal.Confidence.String(),
		}
		if r.Err != nil {
			entry["error"] = r.Err.Error()
		}
		out[key] = entry
	}
	return out
}

func decisionsSummary(decisions []*domain.ConsensusDecision) map[string]any {
	out := make(map[string]any, len(decisions))
	for _, d := range decisions {
		out[d.Symbol] = map[string]any{
			"decision":   string(d.Decision),
			"confidence": d.Confidence.String(),
			"votes_buy":  d.Votes.VotesBuy,
			"votes_sell": d.Votes.VotesSell,
			"votes_hold": d.Votes.VotesHold,
		}
	}
	return out
}

func tradesSummary(executed []trading.ExecutedTrade, skipped []trading.SkippedTrade) map[string]any {
	ex := make([]map[string]any, 0, len(executed))
	for _, t := range executed {
		ex = append(ex, map[string]any{"symbol": t.Symbol, "decision": string(t.Decision), "reason": t.Outcome.Reason})
	}
	sk := make([]map[string]any, 0, len(skipped))
	for _, t := range skipped {
		sk = append(sk, map[string]any{"symbol": t.Symbol, "decision": string(t.Decision), "reason": t.Reason})
	}
	return map[string]any{"executed": ex, "skipped": sk}
}

func portfolioSummary(snap portfolio.Snapshot) map[string]any {
	return map[string]any{
		"total_value":           snap.TotalValue.String(),
		"total_value_formatted": convert.FloatToHumanFriendlyString(snap.TotalValue.ToFloat64ForBroadcast(), 2, ".", ","),
		"available_balance":     snap.AvailableBalance.String(),
		"total_positions":       snap.TotalPositions,
		"liquidation_risk":      string(snap.LiquidationRisk),
	}
}

func metricsSummary(c *domain.Council) map[string]any {
	out := map[string]any{
		"total_account_value": c.TotalAccountValue.String(),
		"net_pnl":              c.NetPnL.String(),
		"win_rate":             c.WinRate.String(),
		"open_futures_count":   c.OpenFuturesCount,
		"active_spot_holdings": c.ActiveSpotHoldings,
	}
	if initial := c.InitialCapital.ToFloat64ForBroadcast(); initial != 0 {
		current := c.TotalAccountValue.ToFloat64ForBroadcast()
		out["net_pnl_pct_vs_initial"] = councilmath.RoundFloat(councilmath.CalculatePercentageGainOrLoss(current, initial), 2)
	}
	return out
}
