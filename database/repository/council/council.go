// Package council persists the Council entity: configuration, capital
// book, and aggregate metrics.
package council

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/common/errs"
	"github.com/pantheonelite/gocouncil/database/repository"
	"github.com/pantheonelite/gocouncil/domain"
)

// Repository persists councils within a single transactional session.
type Repository struct {
	repository.Base
}

// New binds a Repository to tx.
func New(tx *sql.Tx) *Repository {
	return &Repository{Base: repository.NewBase(tx)}
}

const columns = `id, owner_id, name, config, provider, model, trading_mode, trading_type,
	initial_capital, available_balance, used_balance, total_account_value,
	realized_pnl, unrealized_profit, total_fees, total_funding_fees, net_pnl,
	average_leverage, average_confidence, biggest_win, biggest_loss, win_rate,
	open_futures_count, closed_futures_count, active_spot_holdings,
	long_hold_pct, short_hold_pct, flat_hold_pct,
	current_capital, total_pnl, total_pnl_percentage, legacy_win_rate, total_trades,
	is_system, is_public, is_template, wallet_id, forked_from_id,
	last_executed_at, created_at, updated_at`

// GetByID returns the council with the given id, or errs.ErrNotFound.
func (r *Repository) GetByID(id int64) (*domain.Council, error) {
	row := r.Tx.QueryRow(r.Rebind(`SELECT `+columns+` FROM councils WHERE id = ?`), id)
	return scanCouncil(row)
}

// ListSystem returns every council flagged is_system.
func (r *Repository) ListSystem() ([]*domain.Council, error) {
	rows, err := r.Tx.Query(`SELECT ` + columns + ` FROM councils WHERE is_system = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("council: list system: %w", err)
	}
	defer rows.Close()
	return scanCouncils(rows)
}

// ListByIDs returns the councils identified by ids, in no particular
// order; missing ids are silently skipped.
func (r *Repository) ListByIDs(ids []int64) ([]*domain.Council, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := ""
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args[i] = id
	}
	rows, err := r.Tx.Query(r.Rebind(`SELECT `+columns+` FROM councils WHERE id IN (`+placeholders+`)`), args...)
	if err != nil {
		return nil, fmt.Errorf("council: list by ids: %w", err)
	}
	defer rows.Close()
	return scanCouncils(rows)
}

// Create inserts c and sets its ID.
func (r *Repository) Create(c *domain.Council) error {
	cfg, err := json.Marshal(c.Config)
	if err != nil {
		return fmt.Errorf("council: marshal config: %w", err)
	}
	row := r.Tx.QueryRow(r.Rebind(`
		INSERT INTO councils (owner_id, name, config, provider, model, trading_mode, trading_type,
			initial_capital, available_balance, used_balance, total_account_value, is_system, is_public, is_template)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		c.OwnerID, c.Name, cfg, c.Provider, c.Model, string(c.TradingMode), string(c.TradingType),
		c.InitialCapital.String(), c.AvailableBalance.String(), c.UsedBalance.String(), c.TotalAccountValue.String(),
		c.IsSystem, c.IsPublic, c.IsTemplate,
	)
	if err := row.Scan(&c.ID); err != nil {
		return fmt.Errorf("council: insert: %w", translateConstraint(err))
	}
	return nil
}

// UpdateMetrics persists the aggregate fields the Metrics Engine
// recomputes every cycle.
func (r *Repository) UpdateMetrics(c *domain.Council) error {
	_, err := r.Tx.Exec(r.Rebind(`
		UPDATE councils SET
			available_balance = ?, used_balance = ?, total_account_value = ?,
			realized_pnl = ?, unrealized_profit = ?, total_fees = ?, total_funding_fees = ?, net_pnl = ?,
			average_leverage = ?, average_confidence = ?, biggest_win = ?, biggest_loss = ?, win_rate = ?,
			open_futures_count = ?, closed_futures_count = ?, active_spot_holdings = ?,
			long_hold_pct = ?, short_hold_pct = ?, flat_hold_pct = ?,
			current_capital = ?, total_pnl = ?, total_pnl_percentage = ?, legacy_win_rate = ?, total_trades = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`),
		c.AvailableBalance.String(), c.UsedBalance.String(), c.TotalAccountValue.String(),
		c.RealizedPnL.String(), c.UnrealizedProfit.String(), c.TotalFees.String(), c.TotalFundingFees.String(), c.NetPnL.String(),
		c.AverageLeverage.String(), c.AverageConfidence.String(), c.BiggestWin.String(), c.BiggestLoss.String(), c.WinRate.String(),
		c.OpenFuturesCount, c.ClosedFuturesCount, c.ActiveSpotHoldings,
		c.HoldTime.LongPct.String(), c.HoldTime.ShortPct.String(), c.HoldTime.FlatPct.String(),
		c.CurrentCapital.String(), c.TotalPnL.String(), c.TotalPnLPercentage.String(), c.LegacyWinRate.String(), c.TotalTrades,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("council: update metrics: %w", translateConstraint(err))
	}
	return nil
}

// SetLastExecuted stamps last_executed_at = now on the council.
func (r *Repository) SetLastExecuted(id int64) error {
	_, err := r.Tx.Exec(r.Rebind(`UPDATE councils SET last_executed_at = CURRENT_TIMESTAMP WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("council: set last executed: %w", err)
	}
	return nil
}

// SetWallet attaches walletID to the council.
func (r *Repository) SetWallet(councilID, walletID int64) error {
	_, err := r.Tx.Exec(r.Rebind(`UPDATE councils SET wallet_id = ? WHERE id = ?`), walletID, councilID)
	if err != nil {
		return fmt.Errorf("council: set wallet: %w", err)
	}
	return nil
}

func scanCouncils(rows *sql.Rows) ([]*domain.Council, error) {
	var out []*domain.Council
	for rows.Next() {
		c, err := scanCouncil(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCouncil(row scanner) (*domain.Council, error) {
	c := &domain.Council{
		InitialCapital:     decimal.Zero(decimal.ScaleUSD),
		AvailableBalance:   decimal.Zero(decimal.ScaleUSD),
		UsedBalance:        decimal.Zero(decimal.ScaleUSD),
		TotalAccountValue:  decimal.Zero(decimal.ScaleUSD),
		RealizedPnL:        decimal.Zero(decimal.ScaleUSD),
		UnrealizedProfit:   decimal.Zero(decimal.ScaleUSD),
		TotalFees:          decimal.Zero(decimal.ScaleUSD),
		TotalFundingFees:   decimal.Zero(decimal.ScaleUSD),
		NetPnL:             decimal.Zero(decimal.ScaleUSD),
		AverageLeverage:    decimal.Zero(decimal.ScalePercent),
		AverageConfidence:  decimal.Zero(decimal.ScalePercent),
		BiggestWin:         decimal.Zero(decimal.ScaleUSD),
		BiggestLoss:        decimal.Zero(decimal.ScaleUSD),
		WinRate:            decimal.Zero(decimal.ScalePercent),
		HoldTime: domain.HoldTimeSplit{
			LongPct:  decimal.Zero(decimal.ScalePercent),
			ShortPct: decimal.Zero(decimal.ScalePercent),
			FlatPct:  decimal.Zero(decimal.ScalePercent),
		},
		CurrentCapital:     decimal.Zero(decimal.ScaleUSD),
		TotalPnL:           decimal.Zero(decimal.ScaleUSD),
		TotalPnLPercentage: decimal.Zero(decimal.ScalePercent),
		LegacyWinRate:      decimal.Zero(decimal.ScalePercent),
	}
	var cfg []byte
	var tradingMode, tradingType string
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &cfg, &c.Provider, &c.Model, &tradingMode, &tradingType,
		&c.InitialCapital, &c.AvailableBalance, &c.UsedBalance, &c.TotalAccountValue,
		&c.RealizedPnL, &c.UnrealizedProfit, &c.TotalFees, &c.TotalFundingFees, &c.NetPnL,
		&c.AverageLeverage, &c.AverageConfidence, &c.BiggestWin, &c.BiggestLoss, &c.WinRate,
		&c.OpenFuturesCount, &c.ClosedFuturesCount, &c.ActiveSpotHoldings,
		&c.HoldTime.LongPct, &c.HoldTime.ShortPct, &c.HoldTime.FlatPct,
		&c.CurrentCapital, &c.TotalPnL, &c.TotalPnLPercentage, &c.LegacyWinRate, &c.TotalTrades,
		&c.IsSystem, &c.IsPublic, &c.IsTemplate, &c.WalletID, &c.ForkedFromID,
		&c.LastExecutedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("council: scan: %w", err)
	}
	c.TradingMode = domain.TradingMode(tradingMode)
	c.TradingType = domain.TradingType(tradingType)
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &c.Config); err != nil {
			return nil, fmt.Errorf("council: unmarshal config: %w", err)
		}
	}
	return c, nil
}

var translateConstraint = repository.TranslateConstraint
