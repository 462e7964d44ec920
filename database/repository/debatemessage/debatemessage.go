// Package debatemessage persists AgentDebateMessage: the append-only
// per-council debate stream.
package debatemessage

import (
	"database/sql"
	"fmt"

	"github.com/pantheonelite/gocouncil/common/decimal"
	"github.com/pantheonelite/gocouncil/database/repository"
	"github.com/pantheonelite/gocouncil/domain"
)

// Repository persists debate messages within a single transactional
// session.
type Repository struct {
	repository.Base
}

// New binds a Repository to tx.
func New(tx *sql.Tx) *Repository {
	return &Repository{Base: repository.NewBase(tx)}
}

// Append inserts one debate message and sets its ID; the stream is
// append-only, there is no Update.
func (r *Repository) Append(m *domain.AgentDebateMessage) error {
	row := r.Tx.QueryRow(r.Rebind(`
		INSERT INTO agent_debate_messages (council_id, agent_name, message_type, sentiment,
			market_symbol, confidence, message, debate_round)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at`),
		m.CouncilID, m.AgentName, string(m.MessageType), string(m.Sentiment),
		m.MarketSymbol, m.Confidence.String(), m.Message, m.DebateRound,
	)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("debatemessage: insert: %w", repository.TranslateConstraint(err))
	}
	return nil
}

// Recent returns a council's most recent messages, newest first,
// bounded by limit.
func (r *Repository) Recent(councilID int64, limit int) ([]*domain.AgentDebateMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.Tx.Query(r.Rebind(`
		SELECT id, council_id, agent_name, message_type, sentiment, market_symbol, confidence, message, debate_round, created_at
		FROM agent_debate_messages WHERE council_id = ? ORDER BY created_at DESC LIMIT ?`), councilID, limit)
	if err != nil {
		return nil, fmt.Errorf("debatemessage: recent: %w", err)
	}
	defer rows.Close()

	var out []*domain.AgentDebateMessage
	for rows.Next() {
		m := &domain.AgentDebateMessage{Confidence: decimal.Zero(decimal.ScalePercent)}
		var messageType, sentiment string
		if err := rows.Scan(&m.ID, &m.CouncilID, &m.AgentName, &messageType, &sentiment,
			&m.MarketSymbol, &m.Confidence, &m.Message, &m.DebateRound, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("debatemessage: scan: %w", err)
		}
		m.MessageType = domain.MessageType(messageType)
		m.Sentiment = domain.Sentiment(sentiment)
		out = append(out, m)
	}
	return out, rows.Err()
}
