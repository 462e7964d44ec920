// Package spotholding persists SpotHolding rows: unleveraged balances
// with a weighted-average cost.
package spotholding

import (
	"database/sql"
	"fmt"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/common/errs"
	"github.com/pantheonelite/gocouncil/database/repository"
	"github.com/pantheonelite/gocouncil/domain"
)

// Repository persists spot holdings within a single transactional
// session.
type Repository struct {
	repository.Base
}

// New binds a Repository to tx.
func New(tx *sql.Tx) *Repository {
	return &Repository{Base: repository.NewBase(tx)}
}

const columns = `id, council_id, symbol, base_asset, quote_asset, free, locked, total,
	average_cost, total_cost, status, platform, trading_mode, opened_at, closed_at`

// FindActive returns every ACTIVE holding for a council.
func (r *Repository) FindActive(councilID int64) ([]*domain.SpotHolding, error) {
	rows, err := r.Tx.Query(r.Rebind(`
		SELECT `+columns+` FROM spot_holdings WHERE council_id = ? AND status = 'ACTIVE'
		ORDER BY opened_at DESC`), councilID)
	if err != nil {
		return nil, fmt.Errorf("spotholding: find active: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// FindByKey returns the holding for (council, symbol, platform,
// trading_mode), or errs.ErrNotFound.
func (r *Repository) FindByKey(councilID int64, symbol, platform string, mode domain.TradingMode) (*domain.SpotHolding, error) {
	row := r.Tx.QueryRow(r.Rebind(`
		SELECT `+columns+` FROM spot_holdings
		WHERE council_id = ? AND symbol = ? AND platform = ? AND trading_mode = ?
		ORDER BY opened_at DESC LIMIT 1`), councilID, symbol, platform, string(mode))
	return scanOne(row)
}

// Create inserts h and sets its ID.
func (r *Repository) Create(h *domain.SpotHolding) error {
	row := r.Tx.QueryRow(r.Rebind(`
		INSERT INTO spot_holdings (council_id, symbol, base_asset, quote_asset, free, locked, total,
			average_cost, total_cost, status, platform, trading_mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, opened_at`),
		h.CouncilID, h.Symbol, h.BaseAsset, h.QuoteAsset, h.Free.String(), h.Locked.String(), h.Total.String(),
		h.AverageCost.String(), h.TotalCost.String(), string(h.Status), h.Platform, string(h.TradingMode),
	)
	if err := row.Scan(&h.ID, &h.OpenedAt); err != nil {
		return fmt.Errorf("spotholding: insert: %w", repository.TranslateConstraint(err))
	}
	return nil
}

// Update persists the mutable balance/cost fields of an existing
// holding, closing it when total reaches zero.
func (r *Repository) Update(h *domain.SpotHolding) error {
	if h.Total.IsZero() && h.Status != domain.HoldingStatusClosed {
		h.Status = domain.HoldingStatusClosed
	}
	row := r.Tx.QueryRow(r.Rebind(`
		UPDATE spot_holdings SET
			free = ?, locked = ?, total = ?, average_cost = ?, total_cost = ?, status = ?,
			closed_at = CASE WHEN ? = 'CLOSED' THEN CURRENT_TIMESTAMP ELSE closed_at END
		WHERE id = ? RETURNING closed_at`),
		h.Free.String(), h.Locked.String(), h.Total.String(), h.AverageCost.String(), h.TotalCost.String(), string(h.Status),
		string(h.Status), h.ID,
	)
	if err := row.Scan(&h.ClosedAt); err != nil {
		return fmt.Errorf("spotholding: update: %w", repository.TranslateConstraint(err))
	}
	return nil
}

func scanAll(rows *sql.Rows) ([]*domain.SpotHolding, error) {
	var out []*domain.SpotHolding
	for rows.Next() {
		h, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner) (*domain.SpotHolding, error) {
	h := &domain.SpotHolding{
		Free:        decimal.Zero(decimal.ScaleAsset),
		Locked:      decimal.Zero(decimal.ScaleAsset),
		Total:       decimal.Zero(decimal.ScaleAsset),
		AverageCost: decimal.Zero(decimal.ScaleAsset),
		TotalCost:   decimal.Zero(decimal.ScaleUSD),
	}
	var status string
	err := row.Scan(
		&h.ID, &h.CouncilID, &h.Symbol, &h.BaseAsset, &h.QuoteAsset, &h.Free, &h.Locked, &h.Total,
		&h.AverageCost, &h.TotalCost, &status, &h.Platform, &h.TradingMode, &h.OpenedAt, &h.ClosedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("spotholding: scan: %w", err)
	}
	h.Status = domain.HoldingStatus(status)
	return h, nil
}
