// Package pnlsnapshot persists the PnLSnapshot time series tying a
// position or holding to its mark-to-market state, and the
// council-level CouncilPerformanceSnapshot the Metrics Engine emits
// once per cycle.
package pnlsnapshot

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/database/repository"
	"github.com/pantheonelite/gocouncil/domain"
)

// Repository persists PnL snapshots within a single transactional
// session.
type Repository struct {
	repository.Base
}

// New binds a Repository to tx.
func New(tx *sql.Tx) *Repository {
	return &Repository{Base: repository.NewBase(tx)}
}

// Create inserts one PnLSnapshot row.
func (r *Repository) Create(s *domain.PnLSnapshot) error {
	row := r.Tx.QueryRow(r.Rebind(`
		INSERT INTO pnl_snapshots (council_id, futures_position_id, spot_holding_id, mark_price,
			notional_value, unrealized_pnl, pnl_percentage, liquidation_distance_pct, margin_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, snapshot_time`),
		s.CouncilID, s.FuturesPositionID, s.SpotHoldingID, s.MarkPrice.String(),
		s.NotionalValue.String(), s.UnrealizedPnL.String(), s.PnLPercentage.String(),
		moneyOrNil(s.LiquidationDistancePct), moneyOrNil(s.MarginRatio),
	)
	if err := row.Scan(&s.ID, &s.SnapshotTime); err != nil {
		return fmt.Errorf("pnlsnapshot: insert: %w", repository.TranslateConstraint(err))
	}
	return nil
}

// History returns a council's PnL snapshots in [since, now], oldest
// first.
func (r *Repository) History(councilID int64, since time.Time) ([]*domain.PnLSnapshot, error) {
	rows, err := r.Tx.Query(r.Rebind(`
		SELECT id, council_id, futures_position_id, spot_holding_id, snapshot_time, mark_price,
			notional_value, unrealized_pnl, pnl_percentage, liquidation_distance_pct, margin_ratio
		FROM pnl_snapshots WHERE council_id = ? AND snapshot_time >= ?
		ORDER BY snapshot_time ASC`), councilID, since)
	if err != nil {
		return nil, fmt.Errorf("pnlsnapshot: history: %w", err)
	}
	defer rows.Close()
	var out []*domain.PnLSnapshot
	for rows.Next() {
		s := &domain.PnLSnapshot{
			MarkPrice:     decimal.Zero(decimal.ScaleAsset),
			NotionalValue: decimal.Zero(decimal.ScaleAsset),
			UnrealizedPnL: decimal.Zero(decimal.ScaleUSD),
			PnLPercentage: decimal.Zero(decimal.ScalePercent),
		}
		var liqDist, marginRatio sql.NullString
		if err := rows.Scan(&s.ID, &s.CouncilID, &s.FuturesPositionID, &s.SpotHoldingID, &s.SnapshotTime,
			&s.MarkPrice, &s.NotionalValue, &s.UnrealizedPnL, &s.PnLPercentage, &liqDist, &marginRatio); err != nil {
			return nil, fmt.Errorf("pnlsnapshot: scan: %w", err)
		}
		if liqDist.Valid {
			m, err := decimal.FromString(liqDist.String, decimal.ScalePercent)
			if err != nil {
				return nil, err
			}
			s.LiquidationDistancePct = &m
		}
		if marginRatio.Valid {
			m, err := decimal.FromString(marginRatio.String, decimal.ScalePercent)
			if err != nil {
				return nil, err
			}
			s.MarginRatio = &m
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// HourlyAggregate returns, for each hour bucket in [since, now] across
// all councils, the average unrealized_pnl — used by cross-council
// monitoring surfaces outside the core pipeline.
func (r *Repository) HourlyAggregate(since time.Time) (map[time.Time]decimal.Money, error) {
	rows, err := r.Tx.Query(r.Rebind(`
		SELECT snapshot_time, unrealized_pnl FROM pnl_snapshots WHERE snapshot_time >= ?`), since)
	if err != nil {
		return nil, fmt.Errorf("pnlsnapshot: hourly aggregate: %w", err)
	}
	defer rows.Close()

	sums := map[time.Time]decimal.Money{}
	counts := map[time.Time]int{}
	for rows.Next() {
		var ts time.Time
		pnl := decimal.Zero(decimal.ScaleUSD)
		if err := rows.Scan(&ts, &pnl); err != nil {
			return nil, fmt.Errorf("pnlsnapshot: scan hourly: %w", err)
		}
		bucket := ts.Truncate(time.Hour)
		cur, ok := sums[bucket]
		if !ok {
			cur = decimal.Zero(decimal.ScaleUSD)
		}
		next, err := cur.Add(pnl)
		if err != nil {
			return nil, err
		}
		sums[bucket] = next
		counts[bucket]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make(map[time.Time]decimal.Money, len(sums))
	for bucket, sum := range sums {
		n := decimal.FromInt64Scaled(int64(counts[bucket]), 0)
		avg, err := sum.Div(n)
		if err != nil {
			return nil, err
		}
		out[bucket] = avg
	}
	return out, nil
}

// CreatePerformanceSnapshot inserts a CouncilPerformanceSnapshot row.
func (r *Repository) CreatePerformanceSnapshot(s *domain.CouncilPerformanceSnapshot) error {
	row := r.Tx.QueryRow(r.Rebind(`
		INSERT INTO council_performance_snapshots (council_id, total_value, pnl, pnl_percentage, win_rate, total_trades, open_positions)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, timestamp`),
		s.CouncilID, s.TotalValue.String(), s.PnL.String(), s.PnLPercentage.String(), s.WinRate.String(),
		s.TotalTrades, s.OpenPositions,
	)
	if err := row.Scan(&s.ID, &s.Timestamp); err != nil {
		return fmt.Errorf("pnlsnapshot: insert performance snapshot: %w", repository.TranslateConstraint(err))
	}
	return nil
}

func moneyOrNil(m *decimal.Money) any {
	if m == nil {
		return nil
	}
	return m.String()
}
