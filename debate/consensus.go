// Package debate reduces the per-(symbol, agent) signal matrix into
// one persisted ConsensusDecision per symbol.
package debate

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/pantheonelite/gocouncil/agents"
	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/database/repository/consensusdecision"
	"github.com/pantheonelite/gocouncil/database/repository/debatemessage"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/pantheonelite/gocouncil/log"
)

// DefaultThreshold is the default consensus threshold T.
const DefaultThreshold = "0.6"

// Vote is one agent's directional stance on a symbol, derived from its
// signal.
type Vote string

const (
	VoteLong  Vote = "LONG"
	VoteShort Vote = "SHORT"
	VoteHold  Vote = "HOLD"
)

// AgentSignal pairs an agent_key with the signal it produced for one
// symbol.
type AgentSignal struct {
	AgentKey string
	Signal   agents.Signal
}

// Engine reduces per-symbol agent signals to ConsensusDecisions.
type Engine struct {
	Threshold decimal.Money
}

// NewEngine builds an Engine at the given threshold (decimal string,
// e.g. "0.6"); an empty string uses DefaultThreshold.
func NewEngine(threshold string) (*Engine, error) {
	if threshold == "" {
		threshold = DefaultThreshold
	}
	t, err := decimal.FromString(threshold, decimal.ScalePercent)
	if err != nil {
		return nil, fmt.Errorf("debate: parse threshold: %w", err)
	}
	return &Engine{Threshold: t}, nil
}

// deriveVote prefers signal.direction; if NONE/missing, falls back to
// action.
func deriveVote(s agents.Signal) Vote {
	switch s.Direction {
	case agents.DirectionLong:
		return VoteLong
	case agents.DirectionShort:
		return VoteShort
	}
	switch s.Action {
	case agents.ActionBuy:
		return VoteLong
	case agents.ActionSell:
		return VoteShort
	default:
		return VoteHold
	}
}

// Run reduces signalsBySymbol (already grouped per symbol, in
// deterministic symbol order) to one ConsensusDecision
// per non-empty symbol, persisting each decision plus a summarizing
// consensus AgentDebateMessage. Symbols with no signals are skipped.
func (e *Engine) Run(councilID, runID, cycleID int64, signalsBySymbol map[string][]AgentSignal, decisions *consensusdecision.Repository, messages *debatemessage.Repository) ([]*domain.ConsensusDecision, error) {
	symbols := make([]string, 0, len(signalsBySymbol))
	for sym := range signalsBySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	out := make([]*domain.ConsensusDecision, 0, len(symbols))
	for _, sym := range symbols {
		signals := signalsBySymbol[sym]
		if len(signals) == 0 {
			log.Debate.Warn(context.Background(), "empty agent signal set, skipping symbol", "council_id", councilID, "run_id", runID, "symbol", sym)
			continue
		}

		counts := domain.AgentVoteCounts{}
		agentVotes := make(map[string]string, len(signals))
		confidenceSum := decimal.Zero(decimal.ScalePercent)
		for _, as := range signals {
			vote := deriveVote(as.Signal)
			agentVotes[as.AgentKey] = string(vote)
			switch vote {
			case VoteLong:
				counts.VotesBuy++
			case VoteShort:
				counts.VotesSell++
			default:
				counts.VotesHold++
			}
			if sum, err := confidenceSum.Add(as.Signal.Confidence); err == nil {
				confidenceSum = sum
			}
		}
		counts.TotalVotes = counts.VotesBuy + counts.VotesSell + counts.VotesHold

		decision, reason := e.tally(counts)

		count := decimal.FromInt64Scaled(int64(len(signals)), 0)
		confidence, err := confidenceSum.Div(count)
		if err != nil {
			confidence = decimal.Zero(decimal.ScalePercent)
		}

		d := &domain.ConsensusDecision{
			CouncilID:       councilID,
			RunID:           runID,
			CycleID:         cycleID,
			Symbol:          sym,
			Decision:        decision,
			Confidence:      confidence,
			Votes:           counts,
			AgentVotes:      agentVotes,
			ExecutionReason: reason,
		}
		if err := decisions.Create(d); err != nil {
			return out, fmt.Errorf("debate: persist decision for %s: %w", sym, err)
		}

		if messages != nil {
			msg := &domain.AgentDebateMessage{
				CouncilID:    councilID,
				AgentName:    "system",
				MessageType:  domain.MessageTypeConsensus,
				Sentiment:    sentimentFor(decision),
				MarketSymbol: sym,
				Confidence:   confidence,
				Message: fmt.Sprintf("consensus %s on %s: %d long / %d short / %d hold (of %d)",
					decision, sym, counts.VotesBuy, counts.VotesSell, counts.VotesHold, counts.TotalVotes),
			}
			if err := messages.Append(msg); err != nil {
				return out, fmt.Errorf("debate: append consensus message for %s: %w", sym, err)
			}
		}

		out = append(out, d)
	}
	return out, nil
}

// tally applies the threshold decisioning. Ties below threshold fall
// through to HOLD.
func (e *Engine) tally(counts domain.AgentVoteCounts) (domain.Decision, string) {
	if counts.TotalVotes == 0 {
		return domain.DecisionHold, "hold_decision"
	}
	total := decimal.MustFromString(strconv.Itoa(counts.TotalVotes), decimal.ScalePercent)

	longRatio, err := decimal.MustFromString(strconv.Itoa(counts.VotesBuy), decimal.ScalePercent).Div(total)
	if err == nil && longRatio.GreaterThanOrEqual(e.Threshold) {
		return domain.DecisionBuy, "pending"
	}
	shortRatio, err := decimal.MustFromString(strconv.Itoa(counts.VotesSell), decimal.ScalePercent).Div(total)
	if err == nil && shortRatio.GreaterThanOrEqual(e.Threshold) {
		return domain.DecisionSell, "pending"
	}
	return domain.DecisionHold, "hold_decision"
}

func sentimentFor(d domain.Decision) domain.Sentiment {
	switch d {
	case domain.DecisionBuy:
		return domain.SentimentBullish
	case domain.DecisionSell:
		return domain.SentimentBearish
	default:
		return domain.SentimentNeutral
	}
}
