// Package portfolio builds the single portfolio snapshot
// agents consume as advisory input before producing their signals.
package portfolio

import (
	"time"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/database/repository/futuresposition"
	"github.com/pantheonelite/gocouncil/domain"
)

// LiquidationRisk classifies how close the portfolio sits to
// liquidation across its open positions.
type LiquidationRisk string

const (
	RiskLow      LiquidationRisk = "low"
	RiskMedium   LiquidationRisk = "medium"
	RiskHigh     LiquidationRisk = "high"
	RiskCritical LiquidationRisk = "critical"
	RiskUnknown  LiquidationRisk = "unknown"
)

// PositionView is one normalized open position in the snapshot.
type PositionView struct {
	Symbol           string
	Side             domain.PositionSide // always LONG or SHORT, never BOTH
	PositionAmt      decimal.Money       // always >= 0
	EntryPrice       decimal.Money
	CurrentPrice     decimal.Money
	MarkPrice        decimal.Money
	UnrealizedPnL    decimal.Money
	Leverage         int
	Notional         decimal.Money
	LiquidationPrice *decimal.Money
	MarginUsed       decimal.Money
	OpenedAt         time.Time
}

// Snapshot is the output contract of the Portfolio Context Builder.
type Snapshot struct {
	InitialCapital   decimal.Money
	AvailableBalance decimal.Money
	TotalValue       decimal.Money
	UnrealizedPnL    decimal.Money

	Positions map[string]PositionView

	TotalPositions   int
	TotalNotional    decimal.Money
	TotalMarginUsed  decimal.Money
	MarginUsageRatio decimal.Money

	LiquidationRisk LiquidationRisk
}

// Build produces a Snapshot for council over symbols. On any read
// error it degrades to a minimal context built from the council
// entity alone, with LiquidationRisk = "unknown" — the snapshot is
// advisory, never a hard gate.
func Build(council *domain.Council, symbols []string, positions *futuresposition.Repository, prices map[string]decimal.Money) Snapshot {
	open, err := positions.FindOpen(council.ID, "")
	if err != nil {
		return minimal(council)
	}

	snap := Snapshot{
		InitialCapital:   council.InitialCapital,
		AvailableBalance: council.AvailableBalance,
		TotalValue:       council.TotalAccountValue,
		UnrealizedPnL:    council.UnrealizedProfit,
		Positions:        make(map[string]PositionView),
		TotalNotional:    decimal.Zero(decimal.ScaleAsset),
		TotalMarginUsed:  decimal.Zero(decimal.ScaleUSD),
	}

	wanted := toSet(symbols)
	worst := RiskLow
	for _, p := range open {
		if len(wanted) > 0 && !wanted[p.Symbol] {
			continue
		}
		view, ok := normalizePosition(p, prices[p.Symbol])
		if !ok {
			continue
		}
		snap.Positions[p.Symbol] = view
		snap.TotalPositions++
		if total, err := snap.TotalNotional.Add(view.Notional); err == nil {
			snap.TotalNotional = total
		}
		if used, err := snap.TotalMarginUsed.Add(view.MarginUsed); err == nil {
			snap.TotalMarginUsed = used
		}
		risk := classifyRisk(view)
		if riskRank(risk) > riskRank(worst) {
			worst = risk
		}
	}

	if snap.AvailableBalance.IsZero() {
		snap.MarginUsageRatio = decimal.Zero(decimal.ScalePercent)
	} else if ratio, err := snap.TotalMarginUsed.Div(snap.AvailableBalance); err == nil {
		snap.MarginUsageRatio = ratio
	}

	if snap.TotalPositions == 0 {
		snap.LiquidationRisk = RiskLow
	} else {
		snap.LiquidationRisk = worst
	}
	return snap
}

func minimal(council *domain.Council) Snapshot {
	return Snapshot{
		InitialCapital:   council.InitialCapital,
		AvailableBalance: council.AvailableBalance,
		TotalValue:       council.TotalAccountValue,
		UnrealizedPnL:    council.UnrealizedProfit,
		Positions:        map[string]PositionView{},
		TotalNotional:    decimal.Zero(decimal.ScaleUSD),
		TotalMarginUsed:  decimal.Zero(decimal.ScaleUSD),
		MarginUsageRatio: decimal.Zero(decimal.ScalePercent),
		LiquidationRisk:  RiskUnknown,
	}
}

// normalizePosition applies the BOTH-mode side inference:
// when stored position_side is BOTH, side is read from the sign of
// position_amt and the amount replaced by its absolute value. A
// position with position_amt = 0 is excluded.
func normalizePosition(p *domain.FuturesPosition, currentPrice decimal.Money) (PositionView, bool) {
	if p.PositionAmt.IsZero() {
		return PositionView{}, false
	}
	side := p.PositionSide
	amt := p.PositionAmt
	if side == domain.PositionSideBoth {
		if amt.IsNegative() {
			side = domain.PositionSideShort
		} else {
			side = domain.PositionSideLong
		}
		amt = amt.Abs()
	}
	if currentPrice.IsZero() {
		currentPrice = p.MarkPrice
	}
	var liq *decimal.Money
	if !p.LiquidationPrice.IsZero() {
		l := p.LiquidationPrice
		liq = &l
	}
	return PositionView{
		Symbol:           p.Symbol,
		Side:             side,
		PositionAmt:      amt,
		EntryPrice:       p.EntryPrice,
		CurrentPrice:     currentPrice,
		MarkPrice:        p.MarkPrice,
		UnrealizedPnL:    p.UnrealizedProfit,
		Leverage:         p.Leverage,
		Notional:         p.Notional,
		LiquidationPrice: liq,
		MarginUsed:       p.IsolatedMargin,
		OpenedAt:         p.OpenedAt,
	}, true
}

// classifyRisk computes distance_pct and buckets it.
func classifyRisk(p PositionView) LiquidationRisk {
	if p.LiquidationPrice == nil || p.CurrentPrice.IsZero() {
		return RiskLow
	}
	var distance decimal.Money
	var err error
	switch p.Side {
	case domain.PositionSideShort:
		distance, err = p.LiquidationPrice.Sub(p.CurrentPrice)
	default:
		distance, err = p.CurrentPrice.Sub(*p.LiquidationPrice)
	}
	if err != nil {
		return RiskLow
	}
	pct, err := distance.Div(p.CurrentPrice)
	if err != nil {
		return RiskLow
	}
	hundred := decimal.FromInt64Scaled(100, decimal.ScalePercent)
	pct, err = pct.Mul(hundred)
	if err != nil {
		return RiskLow
	}
	switch {
	case pct.LessThan(decimal.FromInt64Scaled(5, decimal.ScalePercent)):
		return RiskCritical
	case pct.LessThan(decimal.FromInt64Scaled(10, decimal.ScalePercent)):
		return RiskHigh
	case pct.LessThan(decimal.FromInt64Scaled(20, decimal.ScalePercent)):
		return RiskMedium
	default:
		return RiskLow
	}
}

func riskRank(r LiquidationRisk) int {
	switch r {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

func toSet(symbols []string) map[string]bool {
	if len(symbols) == 0 {
		return nil
	}
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[s] = true
	}
	return set
}
