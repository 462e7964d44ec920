package trading

import (
	"context"
	"fmt"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/common/errs"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/pantheonelite/gocouncil/exchanges/venue"
)

// maintenanceMarginRate is the paper-mode maintenance margin constant
// folded into the liquidation-price approximation; a production
// implementer may substitute the exact venue maintenance-margin
// formula.
var maintenanceMarginRate = decimal.MustFromString("0.004", decimal.ScalePercent)

// executeFutures implements the futures sub-executor.
func (e *Executor) executeFutures(ctx context.Context, c *domain.Council, d *domain.ConsensusDecision, client venue.Client) Outcome {
	side, positionSide := directionFor(d.Decision)

	markPrice, err := client.GetTicker(ctx, d.Symbol)
	if err != nil {
		return Outcome{Success: false, Reason: "venue_rejected", Err: fmt.Errorf("%w: %v", errs.ErrVenueRejection, err)}
	}

	sizeUSD, err := e.positionSizeUSD(d.Confidence, c.AvailableBalance)
	if err != nil {
		return Outcome{Success: false, Err: err}
	}
	quantity, err := sizeUSD.Div(markPrice)
	if err != nil {
		return Outcome{Success: false, Err: err}
	}

	open, err := e.FuturesRepo.FindOpen(c.ID, d.Symbol)
	if err != nil {
		return Outcome{Success: false, Err: err}
	}
	var existing *domain.FuturesPosition
	if len(open) > 0 {
		existing = open[0]
	}

	res, err := client.PlaceOrder(ctx, venue.OrderRequest{
		Symbol:       d.Symbol,
		Side:         side,
		Type:         domain.OrderTypeMarket,
		Quantity:     quantity,
		PositionSide: &positionSide,
		Leverage:     1,
	})
	if err != nil {
		return Outcome{Success: false, Reason: "venue_rejected", Err: fmt.Errorf("%w: %v", errs.ErrVenueRejection, err)}
	}

	var position *domain.FuturesPosition
	if existing != nil {
		position, err = mergeFuturesFill(existing, res, positionSide)
	} else {
		position, err = openFuturesPosition(c, d, res, positionSide, markPrice)
	}
	if err != nil {
		return Outcome{Success: false, Err: err}
	}

	if existing != nil {
		if position.Status == domain.PositionStatusClosed {
			if err := e.FuturesRepo.Close(position, domain.PositionStatusClosed); err != nil {
				return Outcome{Success: false, Err: err}
			}
		} else if err := e.FuturesRepo.Update(position); err != nil {
			return Outcome{Success: false, Err: err}
		}
	} else if err := e.FuturesRepo.Create(position); err != nil {
		return Outcome{Success: false, Err: err}
	}

	ord := &domain.Order{
		CouncilID:         c.ID,
		Symbol:            d.Symbol,
		Side:              side,
		Type:              domain.OrderTypeMarket,
		PositionSide:      &positionSide,
		OrigQty:           quantity,
		ExecutedQty:       res.ExecutedQty,
		AvgPrice:          &res.AvgPrice,
		Status:            res.Status,
		FuturesPositionID: &position.ID,
		Commission:        &res.Commission,
		CommissionAsset:   &res.CommissionAsset,
		Platform:          position.Platform,
		TradingMode:       c.TradingMode,
		TradingType:       domain.TradingTypeFutures,
	}
	if err := e.Orders.Create(ord); err != nil {
		return Outcome{Success: false, Err: err}
	}

	return Outcome{Success: true, WasExecuted: true, Reason: "executed", OrderID: &ord.ID}
}

func directionFor(d domain.Decision) (domain.OrderSide, domain.PositionSide) {
	if d == domain.DecisionSell {
		return domain.OrderSideSell, domain.PositionSideShort
	}
	return domain.OrderSideBuy, domain.PositionSideLong
}

// openFuturesPosition builds a new OPEN position.
func openFuturesPosition(c *domain.Council, d *domain.ConsensusDecision, res venue.OrderResult, side domain.PositionSide, markPrice decimal.Money) (*domain.FuturesPosition, error) {
	leverage := 1
	notional, err := res.ExecutedQty.Mul(res.AvgPrice)
	if err != nil {
		return nil, err
	}
	leverageMoney := decimal.FromInt64Scaled(int64(leverage), 0)
	isolatedMargin, err := notional.Div(leverageMoney)
	if err != nil {
		return nil, err
	}
	liquidation, err := liquidationPrice(res.AvgPrice, side, leverage)
	if err != nil {
		return nil, err
	}
	return &domain.FuturesPosition{
		CouncilID:        c.ID,
		Symbol:           d.Symbol,
		PositionSide:     side,
		PositionAmt:      res.ExecutedQty,
		EntryPrice:       res.AvgPrice,
		MarkPrice:        markPrice,
		LiquidationPrice: liquidation,
		Leverage:         leverage,
		MarginType:       domain.MarginTypeIsolated,
		IsolatedMargin:   isolatedMargin,
		Notional:         notional,
		UnrealizedProfit: decimal.Zero(decimal.ScaleUSD),
		RealizedPnL:      decimal.Zero(decimal.ScaleUSD),
		FeesPaid:         decimal.Zero(decimal.ScaleUSD),
		FundingFees:      decimal.Zero(decimal.ScaleUSD),
		Status:           domain.PositionStatusOpen,
		Platform:         "paper",
		TradingMode:      c.TradingMode,
	}, nil
}

// mergeFuturesFill merges a new fill into an existing OPEN position
//. fillSide same as existing.PositionSide is a
// same-direction add (weighted-average entry); otherwise the fill
// reduces the existing position by at most its size, closing it when
// position_amt reaches zero. A fill larger than the position opens no
// position in the other direction.
func mergeFuturesFill(existing *domain.FuturesPosition, res venue.OrderResult, fillSide domain.PositionSide) (*domain.FuturesPosition, error) {
	if fillSide == existing.PositionSide {
		notionalExisting, err := existing.PositionAmt.Mul(existing.EntryPrice)
		if err != nil {
			return nil, err
		}
		notionalFill, err := res.ExecutedQty.Mul(res.AvgPrice)
		if err != nil {
			return nil, err
		}
		newAmt, err := existing.PositionAmt.Add(res.ExecutedQty)
		if err != nil {
			return nil, err
		}
		combinedNotional, err := notionalExisting.Add(notionalFill)
		if err != nil {
			return nil, err
		}
		newEntry, err := combinedNotional.Div(newAmt)
		if err != nil {
			return nil, err
		}
		liquidation, err := liquidationPrice(newEntry, existing.PositionSide, existing.Leverage)
		if err != nil {
			return nil, err
		}
		leverageMoney := decimal.FromInt64Scaled(int64(existing.Leverage), 0)
		isolatedMargin, err := combinedNotional.Div(leverageMoney)
		if err != nil {
			return nil, err
		}
		existing.PositionAmt = newAmt
		existing.EntryPrice = newEntry
		existing.Notional = combinedNotional
		existing.IsolatedMargin = isolatedMargin
		existing.LiquidationPrice = liquidation
		return existing, nil
	}

	// Opposing side: reduce. realized_pnl accrues on the closed portion.
	reduceQty := decimal.Min(existing.PositionAmt, res.ExecutedQty)
	pnlPerUnit, err := res.AvgPrice.Sub(existing.EntryPrice)
	if err != nil {
		return nil, err
	}
	if existing.PositionSide == domain.PositionSideShort {
		pnlPerUnit = pnlPerUnit.Neg()
	}
	realized, err := pnlPerUnit.Mul(reduceQty)
	if err != nil {
		return nil, err
	}
	if realized, err = existing.RealizedPnL.Add(realized); err == nil {
		existing.RealizedPnL = realized
	} else {
		return nil, err
	}

	remaining, err := existing.PositionAmt.Sub(reduceQty)
	if err != nil {
		return nil, err
	}
	existing.PositionAmt = remaining

	if remaining.IsZero() {
		existing.Status = domain.PositionStatusClosed
		return existing, nil
	}
	notional, err := existing.PositionAmt.Mul(existing.EntryPrice)
	if err != nil {
		return nil, err
	}
	existing.Notional = notional
	leverageMoney := decimal.FromInt64Scaled(int64(existing.Leverage), 0)
	isolatedMargin, err := existing.Notional.Div(leverageMoney)
	if err != nil {
		return nil, err
	}
	existing.IsolatedMargin = isolatedMargin
	liquidation, err := liquidationPrice(existing.EntryPrice, existing.PositionSide, existing.Leverage)
	if err != nil {
		return nil, err
	}
	existing.LiquidationPrice = liquidation
	return existing, nil
}

// liquidationPrice approximates the venue-supplied formula:
// entry·(1 − 1/leverage) for LONG, entry·(1 + 1/leverage) for SHORT,
// adjusted for the maintenance margin constant.
func liquidationPrice(entry decimal.Money, side domain.PositionSide, leverage int) (decimal.Money, error) {
	if leverage <= 0 {
		leverage = 1
	}
	inverse, err := decimal.MustFromString("1", decimal.ScalePercent).Div(decimal.FromInt64Scaled(int64(leverage), 0))
	if err != nil {
		return decimal.Money{}, err
	}
	adjusted, err := inverse.Sub(maintenanceMarginRate)
	if err != nil {
		return decimal.Money{}, err
	}
	one := decimal.MustFromString("1", decimal.ScalePercent)
	var factor decimal.Money
	if side == domain.PositionSideShort {
		factor, err = one.Add(adjusted)
	} else {
		factor, err = one.Sub(adjusted)
	}
	if err != nil {
		return decimal.Money{}, err
	}
	return entry.Mul(factor)
}
