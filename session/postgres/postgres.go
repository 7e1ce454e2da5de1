// Package postgres keeps session history in a postgres table. Apply the
// repository migrations before use.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/parsa-hm/lectern/session"
)

// Store is a postgres-backed session.Store.
type Store struct {
	db         *sql.DB
	maxHistory int
}

// NewStore opens a connection pool and verifies connectivity.
func NewStore(ctx context.Context, dsn string, maxHistory int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &Store{db: db, maxHistory: maxHistory}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// History returns the flattened recent history for a session, "" when the
// session has no exchanges.
func (s *Store) History(ctx context.Context, id string) (string, error) {
	limit := s.maxHistory
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT query, answer, created_at
        FROM session_exchanges
        WHERE session_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2`, id, limit)
	if err != nil {
		return "", fmt.Errorf("failed to read session %s: %w", id, err)
	}
	defer rows.Close()

	var exchanges []session.Exchange
	for rows.Next() {
		var e session.Exchange
		if err := rows.Scan(&e.Query, &e.Answer, &e.CreatedAt); err != nil {
			return "", fmt.Errorf("failed to scan exchange: %w", err)
		}
		exchanges = append(exchanges, e)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read session %s: %w", id, err)
	}
	// Rows come newest first; history reads oldest first.
	for i, j := 0, len(exchanges)-1; i < j; i, j = i+1, j-1 {
		exchanges[i], exchanges[j] = exchanges[j], exchanges[i]
	}
	return session.FormatHistory(exchanges), nil
}

// AddExchange appends one query/answer pair to a session.
func (s *Store) AddExchange(ctx context.Context, id, query, answer string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO session_exchanges (session_id, query, answer)
        VALUES ($1, $2, $3)`, id, query, answer)
	if err != nil {
		return fmt.Errorf("failed to append to session %s: %w", id, err)
	}
	return nil
}
