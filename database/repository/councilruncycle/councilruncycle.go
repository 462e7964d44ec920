// Package councilruncycle persists CouncilRunCycle: the sub-phase
// record capturing one cycle's intermediate artifacts and LLM/API
// call counters.
package councilruncycle

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/database/repository"
	"github.com/pantheonelite/gocouncil/domain"
)

// Repository persists run cycles within a single transactional
// session.
type Repository struct {
	repository.Base
}

// New binds a Repository to tx.
func New(tx *sql.Tx) *Repository {
	return &Repository{Base: repository.NewBase(tx)}
}

// Create inserts a new cycle row with status=IN_PROGRESS.
func (r *Repository) Create(c *domain.CouncilRunCycle) error {
	row := r.Tx.QueryRow(r.Rebind(`
		INSERT INTO council_run_cycles (council_id, run_id, status, trigger_reason)
		VALUES (?, ?, 'IN_PROGRESS', ?)
		RETURNING id, started_at`), c.CouncilID, c.RunID, c.TriggerReason)
	if err := row.Scan(&c.ID, &c.StartedAt); err != nil {
		return fmt.Errorf("councilruncycle: insert: %w", repository.TranslateConstraint(err))
	}
	c.Status = domain.CycleStatusInProgress
	return nil
}

// IncrementCounters adds llmCalls/apiCalls to the running totals and
// accumulates estimatedCost.
func (r *Repository) IncrementCounters(cycleID int64, llmCalls, apiCalls int, estimatedCost decimal.Money) error {
	_, err := r.Tx.Exec(r.Rebind(`
		UPDATE council_run_cycles SET
			llm_calls = llm_calls + ?, api_calls = api_calls + ?, estimated_cost = estimated_cost + ?
		WHERE id = ?`), llmCalls, apiCalls, estimatedCost.String(), cycleID)
	if err != nil {
		return fmt.Errorf("councilruncycle: increment counters: %w", err)
	}
	return nil
}

// Complete marks c COMPLETED with completed_at=now and stores its
// artifacts (analyst signals, trading decisions, executed trades,
// portfolio snapshot, performance metrics).
func (r *Repository) Complete(c *domain.CouncilRunCycle) error {
	blobs, err := marshalBlobs(c)
	if err != nil {
		return err
	}
	row := r.Tx.QueryRow(r.Rebind(`
		UPDATE council_run_cycles SET
			status = 'COMPLETED', completed_at = CURRENT_TIMESTAMP,
			analyst_signals = ?, trading_decisions = ?, executed_trades = ?,
			portfolio_snapshot = ?, performance_metrics = ?
		WHERE id = ? RETURNING completed_at`),
		blobs[0], blobs[1], blobs[2], blobs[3], blobs[4], c.ID,
	)
	if err := row.Scan(&c.CompletedAt); err != nil {
		return fmt.Errorf("councilruncycle: complete: %w", err)
	}
	c.Status = domain.CycleStatusCompleted
	return nil
}

// Fail marks c FAILED with completed_at=now.
func (r *Repository) Fail(c *domain.CouncilRunCycle) error {
	row := r.Tx.QueryRow(r.Rebind(`
		UPDATE council_run_cycles SET status = 'FAILED', completed_at = CURRENT_TIMESTAMP
		WHERE id = ? RETURNING completed_at`), c.ID)
	if err := row.Scan(&c.CompletedAt); err != nil {
		return fmt.Errorf("councilruncycle: fail: %w", err)
	}
	c.Status = domain.CycleStatusFailed
	return nil
}

func marshalBlobs(c *domain.CouncilRunCycle) ([5][]byte, error) {
	var out [5][]byte
	maps := []map[string]any{c.AnalystSignals, c.TradingDecisions, c.ExecutedTrades, c.PortfolioSnapshot, c.PerformanceMetrics}
	for i, m := range maps {
		b, err := json.Marshal(m)
		if err != nil {
			return out, fmt.Errorf("councilruncycle: marshal artifact %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}
