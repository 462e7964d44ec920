// Package wallet persists venue credentials for a council's live-mode
// trading. At most one row exists per council.
package wallet

import (
	"database/sql"
	"fmt"

	"github.com/pantheonelite/gocouncil/common/errs"
	"github.com/pantheonelite/gocouncil/database/repository"
	"github.com/pantheonelite/gocouncil/domain"
)

// Repository persists wallets within a single transactional session.
type Repository struct {
	repository.Base
}

// New binds a Repository to tx.
func New(tx *sql.Tx) *Repository {
	return &Repository{Base: repository.NewBase(tx)}
}

const columns = `id, council_id, exchange, api_key, secret_key, contract_address, created_at`

// GetByCouncil returns the council's wallet, or errs.ErrNotFound if it
// has none.
func (r *Repository) GetByCouncil(councilID int64) (*domain.Wallet, error) {
	row := r.Tx.QueryRow(r.Rebind(`SELECT `+columns+` FROM wallets WHERE council_id = ?`), councilID)
	w := &domain.Wallet{}
	err := row.Scan(&w.ID, &w.CouncilID, &w.Exchange, &w.APIKey, &w.SecretKey, &w.ContractAddress, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("wallet: get by council: %w", err)
	}
	return w, nil
}

// Create inserts w, scoped to one council by the unique index on
// council_id, and sets its ID.
func (r *Repository) Create(w *domain.Wallet) error {
	row := r.Tx.QueryRow(r.Rebind(`
		INSERT INTO wallets (council_id, exchange, api_key, secret_key, contract_address)
		VALUES (?, ?, ?, ?, ?) RETURNING id`),
		w.CouncilID, w.Exchange, w.APIKey, w.SecretKey, w.ContractAddress,
	)
	if err := row.Scan(&w.ID); err != nil {
		return fmt.Errorf("wallet: insert: %w", repository.TranslateConstraint(err))
	}
	return nil
}

// Delete removes the wallet and nulls the owning council's wallet_id,
// per the Council entity's deletion lifecycle.
func (r *Repository) Delete(councilID, walletID int64) error {
	if _, err := r.Tx.Exec(r.Rebind(`UPDATE councils SET wallet_id = NULL WHERE id = ?`), councilID); err != nil {
		return fmt.Errorf("wallet: clear council reference: %w", err)
	}
	if _, err := r.Tx.Exec(r.Rebind(`DELETE FROM wallets WHERE id = ?`), walletID); err != nil {
		return fmt.Errorf("wallet: delete: %w", err)
	}
	return nil
}
