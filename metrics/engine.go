// Package metrics recomputes a council's derived account metrics after
// every executed trade and persists the resulting performance
// snapshot.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/database/repository/consensusdecision"
	"github.com/pantheonelite/gocouncil/database/repository/council"
	"github.com/pantheonelite/gocouncil/database/repository/futuresposition"
	"github.com/pantheonelite/gocouncil/database/repository/order"
	"github.com/pantheonelite/gocouncil/database/repository/pnlsnapshot"
	"github.com/pantheonelite/gocouncil/database/repository/spotholding"
	"github.com/pantheonelite/gocouncil/domain"
)

// confidenceWindow bounds how many of the council's most recent
// decisions are read for average_confidence; the executed ones among
// them are averaged. The figure is a rolling indicator, not an
// all-time archive.
const confidenceWindow = 500

// Engine recomputes and persists a council's derived metrics.
type Engine struct {
	Council   *council.Repository
	Futures   *futuresposition.Repository
	Spot      *spotholding.Repository
	Orders    *order.Repository
	Decisions *consensusdecision.Repository
	Snapshots *pnlsnapshot.Repository
}

// NewEngine wires an Engine to its repositories.
func NewEngine(c *council.Repository, futures *futuresposition.Repository, spot *spotholding.Repository,
	orders *order.Repository, decisions *consensusdecision.Repository, snapshots *pnlsnapshot.Repository) *Engine {
	return &Engine{Council: c, Futures: futures, Spot: spot, Orders: orders, Decisions: decisions, Snapshots: snapshots}
}

// Recompute rebuilds every derived field on c from the current
// position/holding state, persists it, and appends one
// CouncilPerformanceSnapshot. It is idempotent: calling it twice
// without any state change between calls yields the same row.
// prices supplies current mark prices for spot holdings, keyed by
// symbol; a missing entry degrades that holding's unrealized PnL to
// zero by valuing it at its own average cost.
func (e *Engine) Recompute(c *domain.Council, prices map[string]decimal.Money) error {
	var err error
	switch c.TradingType {
	case domain.TradingTypeFutures:
		err = e.recomputeFutures(c)
	case domain.TradingTypeSpot:
		err = e.recomputeSpot(c, prices)
	default:
		return fmt.Errorf("metrics: unknown trading type %q", c.TradingType)
	}
	if err != nil {
		return fmt.Errorf("metrics: recompute %s: %w", c.TradingType, err)
	}

	totalTrades, err := e.Orders.CountByCouncil(c.ID)
	if err != nil {
		return fmt.Errorf("metrics: count trades: %w", err)
	}
	c.TotalTrades = totalTrades
	mirrorLegacy(c)

	if err := e.Council.UpdateMetrics(c); err != nil {
		return fmt.Errorf("metrics: persist council metrics: %w", err)
	}

	openPositions := c.OpenFuturesCount
	if c.TradingType == domain.TradingTypeSpot {
		openPositions = c.ActiveSpotHoldings
	}
	snapshot := &domain.CouncilPerformanceSnapshot{
		CouncilID:     c.ID,
		TotalValue:    c.TotalAccountValue,
		PnL:           c.NetPnL,
		PnLPercentage: c.TotalPnLPercentage,
		WinRate:       c.WinRate,
		TotalTrades:   c.TotalTrades,
		OpenPositions: openPositions,
	}
	if err := e.Snapshots.CreatePerformanceSnapshot(snapshot); err != nil {
		return fmt.Errorf("metrics: persist performance snapshot: %w", err)
	}
	return nil
}

// mirrorLegacy copies the newly recomputed fields into the legacy
// columns kept for dashboards still reading the original names.
func mirrorLegacy(c *domain.Council) {
	c.CurrentCapital = c.TotalAccountValue
	c.TotalPnL = c.NetPnL
	if c.InitialCapital.IsZero() {
		c.TotalPnLPercentage = decimal.Zero(decimal.ScalePercent)
	} else {
		hundred := decimal.MustFromString("100", decimal.ScalePercent)
		if scaled, err := hundred.Mul(c.NetPnL); err == nil {
			if pct, err := scaled.Div(c.InitialCapital); err == nil {
				c.TotalPnLPercentage = pct
			}
		}
	}
	c.LegacyWinRate = c.WinRate
}

// recomputeFutures recomputes a council's futures-side metrics.
func (e *Engine) recomputeFutures(c *domain.Council) error {
	open, err := e.Futures.FindOpen(c.ID, "")
	if err != nil {
		return err
	}
	closed, err := e.Futures.FindAllClosed(c.ID)
	if err != nil {
		return err
	}
	all := make([]*domain.FuturesPosition, 0, len(open)+len(closed))
	all = append(all, open...)
	all = append(all, closed...)

	totalUnrealized, err := decimal.Sum(decimal.ScaleUSD, collect(open, func(p *domain.FuturesPosition) decimal.Money { return p.UnrealizedProfit })...)
	if err != nil {
		return err
	}
	totalRealized, err := decimal.Sum(decimal.ScaleUSD, collect(closed, func(p *domain.FuturesPosition) decimal.Money { return p.RealizedPnL })...)
	if err != nil {
		return err
	}
	totalFees, err := decimal.Sum(decimal.ScaleUSD, collect(all, func(p *domain.FuturesPosition) decimal.Money { return p.FeesPaid })...)
	if err != nil {
		return err
	}
	totalFunding, err := decimal.Sum(decimal.ScaleUSD, collect(all, func(p *domain.FuturesPosition) decimal.Money { return p.FundingFees })...)
	if err != nil {
		return err
	}
	netPnL, err := totalRealized.Sub(totalFees)
	if err != nil {
		return err
	}

	marginAtNativeScale, err := decimal.Sum(decimal.ScaleAsset, collect(open, func(p *domain.FuturesPosition) decimal.Money { return p.IsolatedMargin })...)
	if err != nil {
		return err
	}
	totalMarginUsed, err := toScale(marginAtNativeScale, decimal.ScaleUSD)
	if err != nil {
		return err
	}

	totalAccountValue, err := c.InitialCapital.Add(totalRealized)
	if err != nil {
		return err
	}
	totalAccountValue, err = totalAccountValue.Add(totalUnrealized)
	if err != nil {
		return err
	}
	totalAccountValue, err = totalAccountValue.Sub(totalFees)
	if err != nil {
		return err
	}
	availableDiff, err := totalAccountValue.Sub(totalMarginUsed)
	if err != nil {
		return err
	}

	c.UnrealizedProfit = totalUnrealized
	c.RealizedPnL = totalRealized
	c.TotalFees = totalFees
	c.TotalFundingFees = totalFunding
	c.NetPnL = netPnL
	c.TotalAccountValue = totalAccountValue
	c.AvailableBalance = decimal.Max(decimal.Zero(decimal.ScaleUSD), availableDiff)
	c.UsedBalance = totalMarginUsed
	c.OpenFuturesCount = len(open)
	c.ClosedFuturesCount = len(closed)

	leverages := make([]decimal.Money, len(all))
	for i, p := range all {
		leverages[i] = decimal.FromInt64Scaled(int64(p.Leverage), 0)
	}
	avgLeverage, err := decimal.Mean(0, leverages...)
	if err != nil {
		return err
	}
	c.AverageLeverage, err = toScale(avgLeverage, decimal.ScalePercent)
	if err != nil {
		return err
	}

	c.AverageConfidence, err = e.averageExecutedConfidence(c.ID)
	if err != nil {
		return err
	}

	realizedClosed := collect(closed, func(p *domain.FuturesPosition) decimal.Money { return p.RealizedPnL })
	zeroUSD := decimal.Zero(decimal.ScaleUSD)
	c.BiggestWin = zeroUSD
	c.BiggestLoss = zeroUSD
	wins := 0
	for _, pnl := range realizedClosed {
		c.BiggestWin = decimal.Max(c.BiggestWin, pnl)
		c.BiggestLoss = decimal.Min(c.BiggestLoss, pnl)
		if pnl.GreaterThan(zeroUSD) {
			wins++
		}
	}
	if len(closed) == 0 {
		c.WinRate = decimal.Zero(decimal.ScalePercent)
	} else {
		winRatio, err := decimal.MustFromString(strconv.Itoa(wins*100), decimal.ScalePercent).
			Div(decimal.MustFromString(strconv.Itoa(len(closed)), decimal.ScalePercent))
		if err != nil {
			return err
		}
		c.WinRate = winRatio
	}

	c.HoldTime, err = holdTimeSplit(all)
	return err
}

// recomputeSpot recomputes a council's spot-side metrics. The spot
// model carries no per-holding realized PnL ledger, so council-level
// realized_pnl is zero and net_pnl equals the total unrealized PnL.
func (e *Engine) recomputeSpot(c *domain.Council, prices map[string]decimal.Money) error {
	active, err := e.Spot.FindActive(c.ID)
	if err != nil {
		return err
	}

	unrealizedVals := make([]decimal.Money, 0, len(active))
	investedVals := make([]decimal.Money, 0, len(active))
	for _, h := range active {
		price, ok := prices[h.Symbol]
		if !ok {
			price = h.AverageCost
		}
		marketValue, err := h.Total.Mul(price)
		if err != nil {
			return err
		}
		marketValueUSD, err := toScale(marketValue, decimal.ScaleUSD)
		if err != nil {
			return err
		}
		unrealized, err := marketValueUSD.Sub(h.TotalCost)
		if err != nil {
			return err
		}
		unrealizedVals = append(unrealizedVals, unrealized)
		investedVals = append(investedVals, h.TotalCost)
	}

	totalUnrealized, err := decimal.Sum(decimal.ScaleUSD, unrealizedVals...)
	if err != nil {
		return err
	}
	totalInvested, err := decimal.Sum(decimal.ScaleUSD, investedVals...)
	if err != nil {
		return err
	}
	totalAccountValue, err := c.InitialCapital.Add(totalUnrealized)
	if err != nil {
		return err
	}
	availableBalance, err := c.InitialCapital.Sub(totalInvested)
	if err != nil {
		return err
	}

	c.UnrealizedProfit = totalUnrealized
	c.RealizedPnL = decimal.Zero(decimal.ScaleUSD)
	c.NetPnL = totalUnrealized
	c.TotalAccountValue = totalAccountValue
	c.AvailableBalance = availableBalance
	c.UsedBalance = totalInvested
	c.ActiveSpotHoldings = len(active)
	c.OpenFuturesCount = 0
	c.ClosedFuturesCount = 0
	c.TotalFees = decimal.Zero(decimal.ScaleUSD)
	c.TotalFundingFees = decimal.Zero(decimal.ScaleUSD)
	c.AverageLeverage = decimal.Zero(decimal.ScalePercent)
	c.AverageConfidence = decimal.Zero(decimal.ScalePercent)
	c.BiggestWin = decimal.Zero(decimal.ScaleUSD)
	c.BiggestLoss = decimal.Zero(decimal.ScaleUSD)
	c.WinRate = decimal.Zero(decimal.ScalePercent)
	c.HoldTime = domain.HoldTimeSplit{
		LongPct:  decimal.Zero(decimal.ScalePercent),
		ShortPct: decimal.Zero(decimal.ScalePercent),
		FlatPct:  decimal.MustFromString("100", decimal.ScalePercent),
	}
	return nil
}

func (e *Engine) averageExecutedConfidence(councilID int64) (decimal.Money, error) {
	decisions, err := e.Decisions.ListByCouncil(councilID, "", confidenceWindow)
	if err != nil {
		return decimal.Money{}, err
	}
	var confidences []decimal.Money
	for _, d := range decisions {
		if d.WasExecuted {
			confidences = append(confidences, d.Confidence)
		}
	}
	return decimal.Mean(decimal.ScalePercent, confidences...)
}

// holdTimeSplit computes the long/short/flat hold-time percentage split.
func holdTimeSplit(positions []*domain.FuturesPosition) (domain.HoldTimeSplit, error) {
	zero := domain.HoldTimeSplit{
		LongPct:  decimal.Zero(decimal.ScalePercent),
		ShortPct: decimal.Zero(decimal.ScalePercent),
		FlatPct:  decimal.MustFromString("100", decimal.ScalePercent),
	}
	if len(positions) == 0 {
		return zero, nil
	}

	now := time.Now()
	earliest := positions[0].OpenedAt
	var longSeconds, shortSeconds int64
	for _, p := range positions {
		if p.OpenedAt.Before(earliest) {
			earliest = p.OpenedAt
		}
		end := now
		if p.ClosedAt != nil {
			end = *p.ClosedAt
		}
		duration := int64(end.Sub(p.OpenedAt).Seconds())
		if duration < 0 {
			duration = 0
		}
		switch p.PositionSide {
		case domain.PositionSideLong:
			longSeconds += duration
		case domain.PositionSideShort:
			shortSeconds += duration
		}
	}

	horizon := int64(now.Sub(earliest).Seconds())
	if horizon <= 0 {
		return zero, nil
	}

	horizonMoney := decimal.MustFromString(strconv.FormatInt(horizon, 10), decimal.ScalePercent)
	longPct, err := decimal.MustFromString(strconv.FormatInt(longSeconds*100, 10), decimal.ScalePercent).Div(horizonMoney)
	if err != nil {
		return domain.HoldTimeSplit{}, err
	}
	shortPct, err := decimal.MustFromString(strconv.FormatInt(shortSeconds*100, 10), decimal.ScalePercent).Div(horizonMoney)
	if err != nil {
		return domain.HoldTimeSplit{}, err
	}
	sum, err := longPct.Add(shortPct)
	if err != nil {
		return domain.HoldTimeSplit{}, err
	}
	flatPct, err := decimal.MustFromString("100", decimal.ScalePercent).Sub(sum)
	if err != nil {
		return domain.HoldTimeSplit{}, err
	}
	flatPct = decimal.Max(decimal.Zero(decimal.ScalePercent), flatPct)

	return domain.HoldTimeSplit{LongPct: longPct, ShortPct: shortPct, FlatPct: flatPct}, nil
}

// toScale reinterprets v's underlying decimal value at a different
// fixed scale, rounding as needed. Money's arithmetic carries no
// intrinsic unit, only a display/rounding scale, so this is exact
// apart from the rounding the target scale implies.
func toScale(v decimal.Money, scale decimal.Scale) (decimal.Money, error) {
	return decimal.Zero(scale).Add(v)
}

func collect[T any](items []T, f func(T) decimal.Money) []decimal.Money {
	out := make([]decimal.Money, len(items))
	for i, it := range items {
		out[i] = f(it)
	}
	return out
}
