// Package consensusdecision persists ConsensusDecision: the
// per-symbol aggregation of agent signals into a directional decision.
package consensusdecision

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/common/errs"
	"github.com/pantheonelite/gocouncil/database/repository"
	"github.com/pantheonelite/gocouncil/domain"
)

// Repository persists consensus decisions within a single
// transactional session.
type Repository struct {
	repository.Base
}

// New binds a Repository to tx.
func New(tx *sql.Tx) *Repository {
	return &Repository{Base: repository.NewBase(tx)}
}

const columns = `id, council_id, run_id, cycle_id, symbol, decision, confidence,
	votes_buy, votes_sell, votes_hold, total_votes, agent_votes, market_price, market_conditions,
	was_executed, order_id, execution_reason, created_at`

// Create inserts d and sets its ID.
func (r *Repository) Create(d *domain.ConsensusDecision) error {
	agentVotes, err := json.Marshal(d.AgentVotes)
	if err != nil {
		return fmt.Errorf("consensusdecision: marshal agent votes: %w", err)
	}
	conditions, err := json.Marshal(d.MarketConditions)
	if err != nil {
		return fmt.Errorf("consensusdecision: marshal market conditions: %w", err)
	}
	row := r.Tx.QueryRow(r.Rebind(`
		INSERT INTO consensus_decisions (council_id, run_id, cycle_id, symbol, decision, confidence,
			votes_buy, votes_sell, votes_hold, total_votes, agent_votes, market_price, market_conditions,
			was_executed, execution_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at`),
		d.CouncilID, d.RunID, d.CycleID, d.Symbol, string(d.Decision), d.Confidence.String(),
		d.Votes.VotesBuy, d.Votes.VotesSell, d.Votes.VotesHold, d.Votes.TotalVotes,
		agentVotes, d.MarketPrice.String(), conditions, d.WasExecuted, d.ExecutionReason,
	)
	if err := row.Scan(&d.ID, &d.CreatedAt); err != nil {
		return fmt.Errorf("consensusdecision: insert: %w", repository.TranslateConstraint(err))
	}
	return nil
}

// MarkExecuted links d to the order produced by the trading executor
// and updates its execution_reason.
func (r *Repository) MarkExecuted(d *domain.ConsensusDecision, orderID int64, reason string) error {
	_, err := r.Tx.Exec(r.Rebind(`
		UPDATE consensus_decisions SET was_executed = TRUE, order_id = ?, execution_reason = ?
		WHERE id = ?`), orderID, reason, d.ID)
	if err != nil {
		return fmt.Errorf("consensusdecision: mark executed: %w", err)
	}
	d.WasExecuted = true
	d.OrderID = &orderID
	d.ExecutionReason = reason
	return nil
}

// MarkSkipped records why d was not executed.
func (r *Repository) MarkSkipped(d *domain.ConsensusDecision, reason string) error {
	_, err := r.Tx.Exec(r.Rebind(`UPDATE consensus_decisions SET execution_reason = ? WHERE id = ?`), reason, d.ID)
	if err != nil {
		return fmt.Errorf("consensusdecision: mark skipped: %w", err)
	}
	d.ExecutionReason = reason
	return nil
}

// ListByCouncil returns a council's decisions, optionally filtered by
// decision kind, newest first, bounded by limit.
func (r *Repository) ListByCouncil(councilID int64, decision domain.Decision, limit int) ([]*domain.ConsensusDecision, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + columns + ` FROM consensus_decisions WHERE council_id = ?`
	args := []any{councilID}
	if decision != "" {
		query += ` AND decision = ?`
		args = append(args, string(decision))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.Tx.Query(r.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("consensusdecision: list by council: %w", err)
	}
	defer rows.Close()

	var out []*domain.ConsensusDecision
	for rows.Next() {
		d, err := scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner) (*domain.ConsensusDecision, error) {
	d := &domain.ConsensusDecision{
		Confidence:  decimal.Zero(decimal.ScalePercent),
		MarketPrice: decimal.Zero(decimal.ScaleAsset),
	}
	var decision string
	var agentVotes, conditions []byte
	err := row.Scan(
		&d.ID, &d.CouncilID, &d.RunID, &d.CycleID, &d.Symbol, &decision, &d.Confidence,
		&d.Votes.VotesBuy, &d.Votes.VotesSell, &d.Votes.VotesHold, &d.Votes.TotalVotes,
		&agentVotes, &d.MarketPrice, &conditions, &d.WasExecuted, &d.OrderID, &d.ExecutionReason, &d.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consensusdecision: scan: %w", err)
	}
	d.Decision = domain.Decision(decision)
	if len(agentVotes) > 0 {
		if err := json.Unmarshal(agentVotes, &d.AgentVotes); err != nil {
			return nil, fmt.Errorf("consensusdecision: unmarshal agent votes: %w", err)
		}
	}
	if len(conditions) > 0 {
		_ = json.Unmarshal(conditions, &d.MarketConditions)
	}
	return d, nil
}
