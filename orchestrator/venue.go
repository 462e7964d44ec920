package orchestrator

import (
	"sync"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/domain"
	"github.com/pantheonelite/gocouncil/exchanges/venue"
)

// PaperVenues lazily builds and caches one PaperClient per council,
// seeded with seedPrices, for use as the default VenueFor when no
// live venue integration is configured; paper mode fills instantly
// at the current seeded mark price.
type PaperVenues struct {
	mu         sync.Mutex
	clients    map[int64]*venue.PaperClient
	callRate   float64
	seedPrices map[string]decimal.Money
}

// NewPaperVenues builds a PaperVenues registry. callsPerSecond bounds
// each council's paper client the same way a real venue would
// throttle it.
func NewPaperVenues(callsPerSecond float64, seedPrices map[string]decimal.Money) *PaperVenues {
	return &PaperVenues{
		clients:    make(map[int64]*venue.PaperClient),
		callRate:   callsPerSecond,
		seedPrices: seedPrices,
	}
}

// For returns c's paper client, creating and seeding it on first use.
func (p *PaperVenues) For(c *domain.Council) venue.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	cl, ok := p.clients[c.ID]
	if !ok {
		cl = venue.NewPaperClient(p.callRate)
		for sym, price := range p.seedPrices {
			cl.SetMarkPrice(sym, price)
		}
		p.clients[c.ID] = cl
	}
	return cl
}

// UpdatePrice seeds or refreshes the mark price every existing
// council's paper client uses for symbol, for callers that feed in
// live ticks from an external market-data source.
func (p *PaperVenues) UpdatePrice(symbol string, price decimal.Money) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seedPrices == nil {
		p.seedPrices = make(map[string]decimal.Money)
	}
	p.seedPrices[symbol] = price
	for _, cl := range p.clients {
		cl.SetMarkPrice(symbol, price)
	}
}
