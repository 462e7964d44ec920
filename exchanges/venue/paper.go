package venue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/domain"
	"golang.org/x/time/rate"
)

// PaperClient emulates a venue for paper-mode councils: fills happen
// instantly at the last mark price seen via GetTicker/SetMarkPrice,
// with zero commission by default.
type PaperClient struct {
	limiter *rate.Limiter

	mu    sync.RWMutex
	marks map[string]decimal.Money

	orderSeq int64
}

// NewPaperClient builds a PaperClient. callsPerSecond bounds how often
// GetTicker/GetKlines/PlaceOrder may be invoked, mirroring the
// per-venue throttle a real client would enforce.
func NewPaperClient(callsPerSecond float64) *PaperClient {
	return &PaperClient{
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), 1),
		marks:   make(map[string]decimal.Money),
	}
}

// SetMarkPrice seeds or updates the mark price GetTicker returns for
// symbol. Tests and backfill tooling drive the paper book through
// this; the PaperClient itself never fetches live prices.
func (p *PaperClient) SetMarkPrice(symbol string, price decimal.Money) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.marks[symbol] = price
}

func (p *PaperClient) GetTicker(ctx context.Context, symbol string) (decimal.Money, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return decimal.Money{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	price, ok := p.marks[symbol]
	if !ok {
		return decimal.Money{}, fmt.Errorf("venue: no mark price seeded for %s", symbol)
	}
	return price, nil
}

// GetKlines returns a single synthetic bar at the current mark price.
// The paper book carries no history; agents needing real OHLCV series
// read them from an external market-data source, not the venue client.
func (p *PaperClient) GetKlines(ctx context.Context, symbol, timeframe string, limit int) ([]Kline, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	price, err := p.GetTicker(ctx, symbol)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return []Kline{{
		OpenTime:  now,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    decimal.Zero(decimal.ScaleAsset),
		CloseTime: now,
	}}, nil
}

func (p *PaperClient) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return OrderResult{}, err
	}
	price, err := p.GetTicker(ctx, req.Symbol)
	if err != nil {
		return OrderResult{}, err
	}
	p.mu.Lock()
	p.orderSeq++
	id := p.orderSeq
	p.mu.Unlock()
	return OrderResult{
		VenueOrderID:    fmt.Sprintf("paper-%d", id),
		Status:          domain.OrderStatusFilled,
		ExecutedQty:     req.Quantity,
		AvgPrice:        price,
		Commission:      decimal.Zero(decimal.ScaleUSD),
		CommissionAsset: "",
	}, nil
}

// CancelOrder is a no-op: PaperClient fills every order synchronously
// in PlaceOrder, so nothing is ever left open to cancel.
func (p *PaperClient) CancelOrder(ctx context.Context, symbol, venueOrderID string) error {
	return nil
}

// GetAccount returns a zero snapshot: paper-mode reconciliation is
// driven entirely by the local repository state, not venue polling.
func (p *PaperClient) GetAccount(ctx context.Context) (AccountSnapshot, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return AccountSnapshot{}, err
	}
	return AccountSnapshot{
		TotalBalance:     decimal.Zero(decimal.ScaleUSD),
		AvailableBalance: decimal.Zero(decimal.ScaleUSD),
	}, nil
}

var _ Client = (*PaperClient)(nil)
