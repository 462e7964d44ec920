package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/pantheonelite/gocouncil/agents"
	"github.com/pantheonelite/gocouncil/agents/registry"
	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/database/repository/debatemessage"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/pantheonelite/gocouncil/portfolio"
	"golang.org/x/sync/errgroup"
)

// DefaultInvocationTimeout bounds a single agent call (30s default).
const DefaultInvocationTimeout = 30 * time.Second

// Invocation is one (agent, symbol) unit of work.
type Invocation struct {
	Profile  registry.Profile
	Symbol   string
	Council  *domain.Council
	Context  portfolio.Snapshot
	Model    string
}

// Result pairs an Invocation with the Signal it produced. Err is set
// when the provider call itself failed or timed out; Signal is still
// the default hold fallback in that case, but no debate message is
// appended for it.
type Result struct {
	Invocation Invocation
	Signal     agents.Signal
	Err        error
}

// Facade fans an agent roster out across a symbol list, bounded by a
// worker pool, and appends one AgentDebateMessage per non-error
// signal.
type Facade struct {
	Provider    Provider
	Concurrency int
	Timeout     time.Duration
}

// NewFacade builds a Facade with the default 30s per-call timeout;
// concurrency <= 0 defaults to 8.
func NewFacade(p Provider, concurrency int) *Facade {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Facade{Provider: p, Concurrency: concurrency, Timeout: DefaultInvocationTimeout}
}

// Invoke runs every (profile × symbol) pair concurrently and appends
// a debate message for every non-error signal via messages. Order of
// the returned slice is not significant; callers index by
// (AgentKey, Symbol).
func (f *Facade) Invoke(ctx context.Context, profiles []registry.Profile, symbols []string, council *domain.Council, snap portfolio.Snapshot, messages *debatemessage.Repository) ([]Result, error) {
	invocations := make([]Invocation, 0, len(profiles)*len(symbols))
	for _, p := range profiles {
		for _, sym := range symbols {
			invocations = append(invocations, Invocation{Profile: p, Symbol: sym, Council: council, Context: snap})
		}
	}

	results := make([]Result, len(invocations))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.Concurrency)

	for i, inv := range invocations {
		i, inv := i, inv
		g.Go(func() error {
			results[i] = f.invokeOne(ctx, inv)
			if results[i].Err == nil && messages != nil {
				msg := &domain.AgentDebateMessage{
					CouncilID:    council.ID,
					AgentName:    inv.Profile.AgentKey,
					MessageType:  inv.Profile.MessageType,
					Sentiment:    domain.Sentiment(results[i].Signal.Sentiment),
					MarketSymbol: inv.Symbol,
					Confidence:   results[i].Signal.Confidence,
					Message:      results[i].Signal.Reasoning,
				}
				if err := messages.Append(msg); err != nil {
					return fmt.Errorf("llm: append debate message for %s/%s: %w", inv.Profile.AgentKey, inv.Symbol, err)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// invokeOne runs a single (agent, symbol) call. LLM timeouts and
// schema violations never abort the cycle: they produce a default
// hold signal with confidence 0 and the error folded into reasoning
//.
func (f *Facade) invokeOne(ctx context.Context, inv Invocation) Result {
	callCtx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	resp, err := f.Provider.Complete(callCtx, Request{
		SystemPrompt: fmt.Sprintf("You are %s, a council trading agent.", inv.Profile.AgentKey),
		UserPrompt:   fmt.Sprintf("Analyze %s given the current portfolio context.", inv.Symbol),
		Model:        inv.Model,
	})
	if err != nil {
		return Result{
			Invocation: inv,
			Err:        err,
			Signal: agents.Signal{
				Action:     agents.ActionHold,
				Direction:  agents.DirectionNone,
				Sentiment:  agents.SentimentNeutral,
				Confidence: decimal.Zero(decimal.ScalePercent),
				Reasoning:  fmt.Sprintf("agent invocation failed: %v", err),
			},
		}
	}

	sig := agents.NormalizeSignal(resp.Field, resp.Confidence, resp.Reasoning)
	sig.Leverage = resp.Leverage
	if resp.StopLoss != nil {
		if m, err := decimal.FromString(*resp.StopLoss, decimal.ScaleAsset); err == nil {
			sig.StopLoss = &m
		}
	}
	if resp.EntryPrice != nil {
		if m, err := decimal.FromString(*resp.EntryPrice, decimal.ScaleAsset); err == nil {
			sig.EntryPrice = &m
		}
	}
	if resp.PositionSize != nil {
		if m, err := decimal.FromString(*resp.PositionSize, decimal.ScaleUSD); err == nil {
			sig.PositionSize = &m
		}
	}
	for _, tp := range resp.TakeProfits {
		price, err1 := decimal.FromString(tp.Price, decimal.ScaleAsset)
		qty, err2 := decimal.FromString(tp.Quantity, decimal.ScaleAsset)
		if err1 == nil && err2 == nil {
			sig.TakeProfits = append(sig.TakeProfits, agents.TakeProfitLevel{Price: price, Quantity: qty})
		}
	}
	sig.MessageType = string(inv.Profile.MessageType)
	return Result{Invocation: inv, Signal: sig}
}
