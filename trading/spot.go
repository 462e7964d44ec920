package trading

import (
	"context"
	"fmt"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/common/errs"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/pantheonelite/gocouncil/exchanges/venue"
)

// executeSpot implements the spot sub-executor.
func (e *Executor) executeSpot(ctx context.Context, c *domain.Council, d *domain.ConsensusDecision, client venue.Client) Outcome {
	price, err := client.GetTicker(ctx, d.Symbol)
	if err != nil {
		return Outcome{Success: false, Reason: "venue_rejected", Err: fmt.Errorf("%w: %v", errs.ErrVenueRejection, err)}
	}

	holding, err := e.SpotRepo.FindByKey(c.ID, d.Symbol, "paper", c.TradingMode)
	if err != nil && err != errs.ErrNotFound {
		return Outcome{Success: false, Err: err}
	}

	side := domain.OrderSideBuy
	if d.Decision == domain.DecisionSell {
		side = domain.OrderSideSell
	}

	var quantity decimal.Money
	if side == domain.OrderSideBuy {
		sizeUSD, err := e.positionSizeUSD(d.Confidence, c.AvailableBalance)
		if err != nil {
			return Outcome{Success: false, Err: err}
		}
		quantity, err = sizeUSD.Div(price)
		if err != nil {
			return Outcome{Success: false, Err: err}
		}
	} else {
		if holding == nil || holding.Total.IsZero() {
			return Outcome{Success: false, Reason: "insufficient_holdings",
				Err: fmt.Errorf("%w: no holding for %s", errs.ErrInsufficientHoldings, d.Symbol)}
		}
		sizeUSD, err := e.positionSizeUSD(d.Confidence, c.AvailableBalance)
		if err != nil {
			return Outcome{Success: false, Err: err}
		}
		quantity, err = sizeUSD.Div(price)
		if err != nil {
			return Outcome{Success: false, Err: err}
		}
		if quantity.GreaterThan(holding.Total) {
			return Outcome{Success: false, Reason: "insufficient_holdings",
				Err: fmt.Errorf("%w: requested %s, held %s", errs.ErrInsufficientHoldings, quantity, holding.Total)}
		}
	}

	res, err := client.PlaceOrder(ctx, venue.OrderRequest{
		Symbol:   d.Symbol,
		Side:     side,
		Type:     domain.OrderTypeMarket,
		Quantity: quantity,
	})
	if err != nil {
		return Outcome{Success: false, Reason: "venue_rejected", Err: fmt.Errorf("%w: %v", errs.ErrVenueRejection, err)}
	}

	isNew := holding == nil
	if isNew {
		holding = &domain.SpotHolding{
			CouncilID:   c.ID,
			Symbol:      d.Symbol,
			BaseAsset:   baseAsset(d.Symbol),
			QuoteAsset:  quoteAsset(d.Symbol),
			Free:        decimal.Zero(decimal.ScaleAsset),
			Locked:      decimal.Zero(decimal.ScaleAsset),
			Total:       decimal.Zero(decimal.ScaleAsset),
			AverageCost: decimal.Zero(decimal.ScaleAsset),
			TotalCost:   decimal.Zero(decimal.ScaleUSD),
			Status:      domain.HoldingStatusActive,
			Platform:    "paper",
			TradingMode: c.TradingMode,
		}
	}

	if side == domain.OrderSideBuy {
		if err := applyBuy(holding, res.ExecutedQty, res.AvgPrice); err != nil {
			return Outcome{Success: false, Err: err}
		}
	} else {
		if err := applySell(holding, res.ExecutedQty); err != nil {
			return Outcome{Success: false, Err: err}
		}
	}

	if isNew {
		if err := e.SpotRepo.Create(holding); err != nil {
			return Outcome{Success: false, Err: err}
		}
	} else if err := e.SpotRepo.Update(holding); err != nil {
		return Outcome{Success: false, Err: err}
	}

	ord := &domain.Order{
		CouncilID:       c.ID,
		Symbol:          d.Symbol,
		Side:            side,
		Type:            domain.OrderTypeMarket,
		OrigQty:         quantity,
		ExecutedQty:     res.ExecutedQty,
		AvgPrice:        &res.AvgPrice,
		Status:          res.Status,
		SpotHoldingID:   &holding.ID,
		Commission:      &res.Commission,
		CommissionAsset: &res.CommissionAsset,
		Platform:        "paper",
		TradingMode:     c.TradingMode,
		TradingType:     domain.TradingTypeSpot,
	}
	if err := e.Orders.Create(ord); err != nil {
		return Outcome{Success: false, Err: err}
	}

	return Outcome{Success: true, WasExecuted: true, Reason: "executed", OrderID: &ord.ID}
}

// applyBuy applies the weighted-average cost update:
// avg' = (total_cost + Δq·p)/(total + Δq).
func applyBuy(h *domain.SpotHolding, qty, price decimal.Money) error {
	deltaCost, err := qty.Mul(price)
	if err != nil {
		return err
	}
	newTotalCost, err := h.TotalCost.Add(deltaCost)
	if err != nil {
		return err
	}
	newTotal, err := h.Total.Add(qty)
	if err != nil {
		return err
	}
	newAvg, err := newTotalCost.Div(newTotal)
	if err != nil {
		return err
	}
	h.Total = newTotal
	h.Free, err = h.Free.Add(qty)
	if err != nil {
		return err
	}
	h.TotalCost = newTotalCost
	h.AverageCost = newAvg
	return nil
}

// applySell leaves average cost unchanged and closes the holding when
// total reaches zero.
func applySell(h *domain.SpotHolding, qty decimal.Money) error {
	newTotal, err := h.Total.Sub(qty)
	if err != nil {
		return err
	}
	h.Total = newTotal
	h.Free, err = h.Free.Sub(qty)
	if err != nil {
		return err
	}
	if newTotal.IsZero() {
		h.Status = domain.HoldingStatusClosed
	}
	return nil
}

func baseAsset(symbol string) string {
	if len(symbol) > 4 && symbol[len(symbol)-4:] == "USDT" {
		return symbol[:len(symbol)-4]
	}
	return symbol
}

func quoteAsset(symbol string) string {
	if len(symbol) > 4 && symbol[len(symbol)-4:] == "USDT" {
		return "USDT"
	}
	return ""
}
