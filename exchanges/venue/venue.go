// Package venue defines the external venue client contract
// and a paper-trading emulation used by councils in paper mode.
package venue

import (
	"context"
	"time"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/domain"
)

// Kline is one OHLCV bar.
type Kline struct {
	OpenTime  time.Time
	Open      decimal.Money
	High      decimal.Money
	Low       decimal.Money
	Close     decimal.Money
	Volume    decimal.Money
	CloseTime time.Time
}

// OrderRequest carries everything a venue needs to place an order.
// Price/StopPrice/PositionSide/Leverage/TimeInForce are optional;
// zero values mean "not supplied".
type OrderRequest struct {
	Symbol       string
	Side         domain.OrderSide
	Type         domain.OrderType
	Quantity     decimal.Money
	Price        *decimal.Money
	StopPrice    *decimal.Money
	PositionSide *domain.PositionSide
	Leverage     int
	TimeInForce  string
}

// OrderResult is the venue's report on a placed order.
type OrderResult struct {
	VenueOrderID    string
	Status          domain.OrderStatus
	ExecutedQty     decimal.Money
	AvgPrice        decimal.Money
	Commission      decimal.Money
	CommissionAsset string
}

// AccountSnapshot is a venue-reported account state used for
// reconciliation in real mode.
type AccountSnapshot struct {
	TotalBalance     decimal.Money
	AvailableBalance decimal.Money
}

// Client is the venue client contract. The orchestrator obtains one
// Client per council through its VenueFor hook; PaperClient is the only
// implementation in this module.
type Client interface {
	GetTicker(ctx context.Context, symbol string) (decimal.Money, error)
	GetKlines(ctx context.Context, symbol, timeframe string, limit int) ([]Kline, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	CancelOrder(ctx context.Context, symbol, venueOrderID string) error
	GetAccount(ctx context.Context) (AccountSnapshot, error)
}
