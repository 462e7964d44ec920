// Package order persists the unified Order record linking to at most
// one FuturesPosition or SpotHolding.
package order

import (
	"database/sql"
	"fmt"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/common/errs"
	"github.com/pantheonelite/gocouncil/database/repository"
	"github.com/pantheonelite/gocouncil/domain"
)

// Repository persists orders within a single transactional session.
type Repository struct {
	repository.Base
}

// New binds a Repository to tx.
func New(tx *sql.Tx) *Repository {
	return &Repository{Base: repository.NewBase(tx)}
}

const columns = `id, council_id, symbol, side, type, position_side, orig_qty, executed_qty,
	price, stop_price, avg_price, status, futures_position_id, spot_holding_id,
	commission, commission_asset, platform, trading_mode, trading_type, created_at, updated_at`

// Create inserts o and sets its ID.
func (r *Repository) Create(o *domain.Order) error {
	var positionSide *string
	if o.PositionSide != nil {
		s := string(*o.PositionSide)
		positionSide = &s
	}
	row := r.Tx.QueryRow(r.Rebind(`
		INSERT INTO orders (council_id, symbol, side, type, position_side, orig_qty, executed_qty,
			price, stop_price, avg_price, status, futures_position_id, spot_holding_id,
			commission, commission_asset, platform, trading_mode, trading_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at`),
		o.CouncilID, o.Symbol, string(o.Side), string(o.Type), positionSide, o.OrigQty.String(), o.ExecutedQty.String(),
		moneyOrNil(o.Price), moneyOrNil(o.StopPrice), moneyOrNil(o.AvgPrice), string(o.Status),
		o.FuturesPositionID, o.SpotHoldingID, moneyOrNil(o.Commission), o.CommissionAsset,
		o.Platform, string(o.TradingMode), string(o.TradingType),
	)
	if err := row.Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return fmt.Errorf("order: insert: %w", repository.TranslateConstraint(err))
	}
	return nil
}

// GetByID returns the order with the given id, or errs.ErrNotFound.
func (r *Repository) GetByID(id int64) (*domain.Order, error) {
	row := r.Tx.QueryRow(r.Rebind(`SELECT `+columns+` FROM orders WHERE id = ?`), id)
	return scanOne(row)
}

// CountByCouncil returns the total number of orders ever placed for a
// council, used by the Metrics Engine for the legacy total_trades
// mirror.
func (r *Repository) CountByCouncil(councilID int64) (int, error) {
	var count int
	row := r.Tx.QueryRow(r.Rebind(`SELECT COUNT(*) FROM orders WHERE council_id = ?`), councilID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("order: count by council: %w", err)
	}
	return count, nil
}

func moneyOrNil(m *decimal.Money) any {
	if m == nil {
		return nil
	}
	return m.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner) (*domain.Order, error) {
	o := &domain.Order{
		OrigQty:     decimal.Zero(decimal.ScaleAsset),
		ExecutedQty: decimal.Zero(decimal.ScaleAsset),
	}
	var side, typ, status, tradingMode, tradingType string
	var positionSide sql.NullString
	var price, stopPrice, avgPrice, commission sql.NullString
	var commissionAsset sql.NullString
	err := row.Scan(
		&o.ID, &o.CouncilID, &o.Symbol, &side, &typ, &positionSide, &o.OrigQty, &o.ExecutedQty,
		&price, &stopPrice, &avgPrice, &status, &o.FuturesPositionID, &o.SpotHoldingID,
		&commission, &commissionAsset, &o.Platform, &tradingMode, &tradingType, &o.CreatedAt, &o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("order: scan: %w", err)
	}
	o.Side = domain.OrderSide(side)
	o.Type = domain.OrderType(typ)
	o.Status = domain.OrderStatus(status)
	o.TradingMode = domain.TradingMode(tradingMode)
	o.TradingType = domain.TradingType(tradingType)
	if positionSide.Valid {
		s := domain.PositionSide(positionSide.String)
		o.PositionSide = &s
	}
	if price.Valid {
		m, err := decimal.FromString(price.String, decimal.ScaleAsset)
		if err != nil {
			return nil, err
		}
		o.Price = &m
	}
	if stopPrice.Valid {
		m, err := decimal.FromString(stopPrice.String, decimal.ScaleAsset)
		if err != nil {
			return nil, err
		}
		o.StopPrice = &m
	}
	if avgPrice.Valid {
		m, err := decimal.FromString(avgPrice.String, decimal.ScaleAsset)
		if err != nil {
			return nil, err
		}
		o.AvgPrice = &m
	}
	if commission.Valid {
		m, err := decimal.FromString(commission.String, decimal.ScaleAsset)
		if err != nil {
			return nil, err
		}
		o.Commission = &m
	}
	if commissionAsset.Valid {
		o.CommissionAsset = &commissionAsset.String
	}
	return o, nil
}
