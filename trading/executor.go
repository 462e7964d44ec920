// Package trading translates consensus decisions into venue effects
// and local state updates.
package trading

import (
	"context"
	"fmt"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/common/errs"
	"github.com/pantheonelite/gocouncil/database/repository/council"
	"github.com/pantheonelite/gocouncil/database/repository/futuresposition"
	"github.com/pantheonelite/gocouncil/database/repository/order"
	"github.com/pantheonelite/gocouncil/database/repository/spotholding"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/pantheonelite/gocouncil/exchanges/venue"
)

// DefaultMinConfidence and DefaultMaxPositionPct are the default
// thresholds for trade preconditions and position sizing.
const (
	DefaultMinConfidence = "0.5"
	DefaultMaxPositionPct = "0.2"
)

// Outcome is the structured result of one trade attempt: cycle stages
// return structured outcomes, never exceptions for flow control.
type Outcome struct {
	Success     bool
	WasExecuted bool
	Reason      string
	Err         error
	OrderID     *int64
}

// Executor dispatches consensus decisions to the futures or spot
// sub-executor per council.trading_type.
type Executor struct {
	Council        *council.Repository
	FuturesRepo    *futuresposition.Repository
	SpotRepo       *spotholding.Repository
	Orders         *order.Repository
	MinConfidence  decimal.Money
	MaxPositionPct decimal.Money
}

// NewExecutor builds an Executor at the default thresholds; override
// MinConfidence/MaxPositionPct after construction for per-council
// config.
func NewExecutor(c *council.Repository, futures *futuresposition.Repository, spot *spotholding.Repository, orders *order.Repository) *Executor {
	return &Executor{
		Council:        c,
		FuturesRepo:    futures,
		SpotRepo:       spot,
		Orders:         orders,
		MinConfidence:  decimal.MustFromString(DefaultMinConfidence, decimal.ScalePercent),
		MaxPositionPct: decimal.MustFromString(DefaultMaxPositionPct, decimal.ScalePercent),
	}
}

// precondition applies the common checks shared by both sub-executors.
// ok=false means outcome should be returned as-is without dispatching
// to a sub-executor.
func (e *Executor) precondition(d *domain.ConsensusDecision) (Outcome, bool) {
	switch d.Decision {
	case domain.DecisionHold:
		return Outcome{Success: true, WasExecuted: false, Reason: "hold_decision"}, false
	case domain.DecisionBuy, domain.DecisionSell:
	default:
		return Outcome{Success: false, WasExecuted: false, Reason: "unknown_decision",
			Err: fmt.Errorf("%w: unknown decision %q", errs.ErrValidationFailure, d.Decision)}, false
	}
	if d.Confidence.LessThan(e.MinConfidence) {
		return Outcome{Success: true, WasExecuted: false, Reason: "low_confidence"}, false
	}
	return Outcome{}, true
}

// positionSizeUSD implements the shared sizing formula:
// available_balance · confidence · max_position_pct.
func (e *Executor) positionSizeUSD(confidence, availableBalance decimal.Money) (decimal.Money, error) {
	sized, err := availableBalance.Mul(confidence)
	if err != nil {
		return decimal.Money{}, err
	}
	sized, err = sized.Mul(e.MaxPositionPct)
	if err != nil {
		return decimal.Money{}, err
	}
	return sized, nil
}

// Execute dispatches d to the futures or spot sub-executor per
// council.trading_type, then runs the Metrics Engine hook via
// afterTrade (common postcondition).
func (e *Executor) Execute(ctx context.Context, c *domain.Council, d *domain.ConsensusDecision, client venue.Client, afterTrade func() error) Outcome {
	if out, ok := e.precondition(d); !ok {
		return out
	}

	var out Outcome
	switch c.TradingType {
	case domain.TradingTypeFutures:
		out = e.executeFutures(ctx, c, d, client)
	case domain.TradingTypeSpot:
		out = e.executeSpot(ctx, c, d, client)
	default:
		return Outcome{Success: false, Reason: "unknown_decision",
			Err: fmt.Errorf("%w: unknown trading type %q", errs.ErrValidationFailure, c.TradingType)}
	}

	if !out.WasExecuted {
		return out
	}

	if err := e.Council.SetLastExecuted(c.ID); err != nil {
		out.Err = fmt.Errorf("trading: set last executed: %w", err)
		return out
	}
	if afterTrade != nil {
		if err := afterTrade(); err != nil {
			out.Err = fmt.Errorf("trading: metrics hook: %w", err)
		}
	}
	return out
}
