// Package futuresposition persists FuturesPosition rows and serves
// the council-scoped lookups the trading executor and portfolio
// context builder need.
package futuresposition

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/common/errs"
	"github.com/pantheonelite/gocouncil/database/repository"
	"github.com/pantheonelite/gocouncil/domain"
)

// Repository persists futures positions within a single transactional
// session. Reads are always scoped by council id.
type Repository struct {
	repository.Base
}

// New binds a Repository to tx.
func New(tx *sql.Tx) *Repository {
	return &Repository{Base: repository.NewBase(tx)}
}

const columns = `id, council_id, symbol, position_side, position_amt,
	entry_price, mark_price, liquidation_price, leverage, margin_type,
	isolated_margin, notional, unrealized_profit, realized_pnl, fees_paid, funding_fees,
	status, exit_plan, platform, trading_mode, opened_at, closed_at`

// FindOpen returns OPEN positions for a council, optionally filtered
// by symbol, newest first.
func (r *Repository) FindOpen(councilID int64, symbol string) ([]*domain.FuturesPosition, error) {
	query := `SELECT ` + columns + ` FROM futures_positions WHERE council_id = ? AND status = 'OPEN'`
	args := []any{councilID}
	if symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY opened_at DESC`
	rows, err := r.Tx.Query(r.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("futuresposition: find open: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// FindClosed returns the most recent CLOSED/LIQUIDATED positions for a
// council, bounded by limit.
func (r *Repository) FindClosed(councilID int64, limit int) ([]*domain.FuturesPosition, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.Tx.Query(r.Rebind(`
		SELECT `+columns+` FROM futures_positions
		WHERE council_id = ? AND status IN ('CLOSED','LIQUIDATED')
		ORDER BY closed_at DESC LIMIT ?`), councilID, limit)
	if err != nil {
		return nil, fmt.Errorf("futuresposition: find closed: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// FindAllClosed returns every CLOSED/LIQUIDATED position for a
// council, unbounded, for metrics recomputation over the full history.
func (r *Repository) FindAllClosed(councilID int64) ([]*domain.FuturesPosition, error) {
	rows, err := r.Tx.Query(r.Rebind(`
		SELECT `+columns+` FROM futures_positions
		WHERE council_id = ? AND status IN ('CLOSED','LIQUIDATED')
		ORDER BY closed_at ASC`), councilID)
	if err != nil {
		return nil, fmt.Errorf("futuresposition: find all closed: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// FindByKey returns the position for (council, symbol, side) with the
// given status, or errs.ErrNotFound.
func (r *Repository) FindByKey(councilID int64, symbol string, side domain.PositionSide, status domain.PositionStatus) (*domain.FuturesPosition, error) {
	row := r.Tx.QueryRow(r.Rebind(`
		SELECT `+columns+` FROM futures_positions
		WHERE council_id = ? AND symbol = ? AND position_side = ? AND status = ?
		ORDER BY opened_at DESC LIMIT 1`), councilID, symbol, string(side), string(status))
	return scanOne(row)
}

// Create inserts p and sets its ID.
func (r *Repository) Create(p *domain.FuturesPosition) error {
	var exitPlan []byte
	var err error
	if p.ExitPlan != nil {
		exitPlan, err = json.Marshal(p.ExitPlan)
		if err != nil {
			return fmt.Errorf("futuresposition: marshal exit plan: %w", err)
		}
	}
	row := r.Tx.QueryRow(r.Rebind(`
		INSERT INTO futures_positions (council_id, symbol, position_side, position_amt,
			entry_price, mark_price, liquidation_price, leverage, margin_type,
			isolated_margin, notional, unrealized_profit, realized_pnl, fees_paid, funding_fees,
			status, exit_plan, platform, trading_mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, opened_at`),
		p.CouncilID, p.Symbol, string(p.PositionSide), p.PositionAmt.String(),
		p.EntryPrice.String(), p.MarkPrice.String(), p.LiquidationPrice.String(), p.Leverage, string(p.MarginType),
		p.IsolatedMargin.String(), p.Notional.String(), p.UnrealizedProfit.String(), p.RealizedPnL.String(),
		p.FeesPaid.String(), p.FundingFees.String(),
		string(p.Status), nullableJSON(exitPlan), p.Platform, string(p.TradingMode),
	)
	if err := row.Scan(&p.ID, &p.OpenedAt); err != nil {
		return fmt.Errorf("futuresposition: insert: %w", repository.TranslateConstraint(err))
	}
	return nil
}

// Update persists the mutable fields of an existing position (mark
// price, PnL, margin, size) without touching its status.
func (r *Repository) Update(p *domain.FuturesPosition) error {
	var exitPlan []byte
	var err error
	if p.ExitPlan != nil {
		exitPlan, err = json.Marshal(p.ExitPlan)
		if err != nil {
			return fmt.Errorf("futuresposition: marshal exit plan: %w", err)
		}
	}
	_, err = r.Tx.Exec(r.Rebind(`
		UPDATE futures_positions SET
			position_amt = ?, entry_price = ?, mark_price = ?, liquidation_price = ?,
			isolated_margin = ?, notional = ?, unrealized_profit = ?, realized_pnl = ?,
			fees_paid = ?, funding_fees = ?, exit_plan = ?
		WHERE id = ?`),
		p.PositionAmt.String(), p.EntryPrice.String(), p.MarkPrice.String(), p.LiquidationPrice.String(),
		p.IsolatedMargin.String(), p.Notional.String(), p.UnrealizedProfit.String(), p.RealizedPnL.String(),
		p.FeesPaid.String(), p.FundingFees.String(), nullableJSON(exitPlan),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("futuresposition: update: %w", repository.TranslateConstraint(err))
	}
	return nil
}

// Close marks p CLOSED (or LIQUIDATED) with closed_at = now and
// persists final realized_pnl/fees.
func (r *Repository) Close(p *domain.FuturesPosition, status domain.PositionStatus) error {
	row := r.Tx.QueryRow(r.Rebind(`
		UPDATE futures_positions SET
			status = ?, realized_pnl = ?, fees_paid = ?, unrealized_profit = ?, position_amt = ?,
			closed_at = CURRENT_TIMESTAMP
		WHERE id = ? RETURNING closed_at`),
		string(status), p.RealizedPnL.String(), p.FeesPaid.String(), p.UnrealizedProfit.String(), p.PositionAmt.String(),
		p.ID,
	)
	if err := row.Scan(&p.ClosedAt); err != nil {
		return fmt.Errorf("futuresposition: close: %w", repository.TranslateConstraint(err))
	}
	p.Status = status
	return nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func scanAll(rows *sql.Rows) ([]*domain.FuturesPosition, error) {
	var out []*domain.FuturesPosition
	for rows.Next() {
		p, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner) (*domain.FuturesPosition, error) {
	p := &domain.FuturesPosition{
		PositionAmt:      decimal.Zero(decimal.ScaleAsset),
		EntryPrice:       decimal.Zero(decimal.ScaleAsset),
		MarkPrice:        decimal.Zero(decimal.ScaleAsset),
		LiquidationPrice: decimal.Zero(decimal.ScaleAsset),
		IsolatedMargin:   decimal.Zero(decimal.ScaleAsset),
		Notional:         decimal.Zero(decimal.ScaleAsset),
		UnrealizedProfit: decimal.Zero(decimal.ScaleUSD),
		RealizedPnL:      decimal.Zero(decimal.ScaleUSD),
		FeesPaid:         decimal.Zero(decimal.ScaleUSD),
		FundingFees:      decimal.Zero(decimal.ScaleUSD),
	}
	var side, marginType, status string
	var exitPlan sql.NullString
	err := row.Scan(
		&p.ID, &p.CouncilID, &p.Symbol, &side, &p.PositionAmt,
		&p.EntryPrice, &p.MarkPrice, &p.LiquidationPrice, &p.Leverage, &marginType,
		&p.IsolatedMargin, &p.Notional, &p.UnrealizedProfit, &p.RealizedPnL, &p.FeesPaid, &p.FundingFees,
		&status, &exitPlan, &p.Platform, &p.TradingMode, &p.OpenedAt, &p.ClosedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("futuresposition: scan: %w", err)
	}
	p.PositionSide = domain.PositionSide(side)
	p.MarginType = domain.MarginType(marginType)
	p.Status = domain.PositionStatus(status)
	if exitPlan.Valid && exitPlan.String != "" {
		var plan domain.ExitPlan
		if err := json.Unmarshal([]byte(exitPlan.String), &plan); err != nil {
			return nil, fmt.Errorf("futuresposition: unmarshal exit plan: %w", err)
		}
		p.ExitPlan = &plan
	}
	return p, nil
}
