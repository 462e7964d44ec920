// Package councilrun persists CouncilRun: one record per
// orchestrator-invoked cycle.
package councilrun

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pantheonelite/gocouncil/common/errs"
	"github.com/pantheonelite/gocouncil/database/repository"
	"github.com/pantheonelite/gocouncil/domain"
)

// Repository persists council runs within a single transactional
// session.
type Repository struct {
	repository.Base
}

// New binds a Repository to tx.
func New(tx *sql.Tx) *Repository {
	return &Repository{Base: repository.NewBase(tx)}
}

// Create inserts a new run with status=IN_PROGRESS and started_at=now,
// assigning the next run_number for the council.
func (r *Repository) Create(run *domain.CouncilRun) error {
	symbols, err := json.Marshal(run.Symbols)
	if err != nil {
		return fmt.Errorf("councilrun: marshal symbols: %w", err)
	}
	req, err := json.Marshal(run.RequestBlob)
	if err != nil {
		return fmt.Errorf("councilrun: marshal request: %w", err)
	}
	row := r.Tx.QueryRow(r.Rebind(`
		INSERT INTO council_runs (council_id, user_id, trading_mode, symbols, status, run_number, request_blob)
		VALUES (?, ?, ?, ?, 'IN_PROGRESS',
			COALESCE((SELECT MAX(run_number) FROM council_runs WHERE council_id = ?), 0) + 1,
			?)
		RETURNING id, run_number, started_at`),
		run.CouncilID, run.UserID, string(run.TradingMode), symbols, run.CouncilID, req,
	)
	if err := row.Scan(&run.ID, &run.RunNumber, &run.StartedAt); err != nil {
		return fmt.Errorf("councilrun: insert: %w", repository.TranslateConstraint(err))
	}
	run.Status = domain.RunStatusInProgress
	return nil
}

// Complete marks run COMPLETED with completed_at=now and the given
// result blob.
func (r *Repository) Complete(run *domain.CouncilRun) error {
	result, err := json.Marshal(run.ResultBlob)
	if err != nil {
		return fmt.Errorf("councilrun: marshal result: %w", err)
	}
	row := r.Tx.QueryRow(r.Rebind(`
		UPDATE council_runs SET status = 'COMPLETED', completed_at = CURRENT_TIMESTAMP, result_blob = ?
		WHERE id = ? RETURNING completed_at`), result, run.ID)
	if err := row.Scan(&run.CompletedAt); err != nil {
		return fmt.Errorf("councilrun: complete: %w", err)
	}
	run.Status = domain.RunStatusCompleted
	return nil
}

// Fail marks run FAILED with completed_at=now and a truncated error
// message.
func (r *Repository) Fail(run *domain.CouncilRun, cause error) error {
	const maxLen = 2000
	msg := cause.Error()
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	row := r.Tx.QueryRow(r.Rebind(`
		UPDATE council_runs SET status = 'FAILED', completed_at = CURRENT_TIMESTAMP, error_message = ?
		WHERE id = ? RETURNING completed_at`), msg, run.ID)
	if err := row.Scan(&run.CompletedAt); err != nil {
		return fmt.Errorf("councilrun: fail: %w", err)
	}
	run.Status = domain.RunStatusFailed
	run.ErrorMessage = msg
	return nil
}

// FindInProgress returns the in-progress run for a council, if any. It
// only reads; it does not prevent several IN_PROGRESS runs from existing.
func (r *Repository) FindInProgress(councilID int64) (*domain.CouncilRun, error) {
	row := r.Tx.QueryRow(r.Rebind(`
		SELECT id, council_id, user_id, trading_mode, symbols, status, started_at, completed_at,
			run_number, request_blob, result_blob, error_message
		FROM council_runs WHERE council_id = ? AND status = 'IN_PROGRESS' LIMIT 1`), councilID)
	run, err := scanOne(row)
	if err != nil {
		return nil, err
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner) (*domain.CouncilRun, error) {
	run := &domain.CouncilRun{}
	var tradingMode, status string
	var symbols, reqBlob, resultBlob []byte
	err := row.Scan(&run.ID, &run.CouncilID, &run.UserID, &tradingMode, &symbols, &status,
		&run.StartedAt, &run.CompletedAt, &run.RunNumber, &reqBlob, &resultBlob, &run.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("councilrun: scan: %w", err)
	}
	run.TradingMode = domain.TradingMode(tradingMode)
	run.Status = domain.RunStatus(status)
	if len(symbols) > 0 {
		if err := json.Unmarshal(symbols, &run.Symbols); err != nil {
			return nil, fmt.Errorf("councilrun: unmarshal symbols: %w", err)
		}
	}
	if len(reqBlob) > 0 {
		_ = json.Unmarshal(reqBlob, &run.RequestBlob)
	}
	if len(resultBlob) > 0 {
		_ = json.Unmarshal(resultBlob, &run.ResultBlob)
	}
	return run, nil
}
