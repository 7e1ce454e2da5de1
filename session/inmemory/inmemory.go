// Package inmemory keeps session history in process memory. Suitable for a
// single instance; history is lost on restart.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/parsa-hm/lectern/session"
)

// Store is an in-memory session.Store.
type Store struct {
	maxHistory int
	mu         sync.RWMutex
	exchanges  map[string][]session.Exchange
}

// NewStore creates an in-memory store keeping the last maxHistory exchanges
// per session.
func NewStore(maxHistory int) *Store {
	return &Store{
		maxHistory: maxHistory,
		exchanges:  make(map[string][]session.Exchange),
	}
}

// History returns the flattened recent history for a session, "" when the
// session is unknown.
func (s *Store) History(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return session.FormatHistory(session.Tail(s.exchanges[id], s.maxHistory)), nil
}

// AddExchange appends one query/answer pair to a session.
func (s *Store) AddExchange(ctx context.Context, id, query, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.exchanges[id], session.Exchange{
		Query:     query,
		Answer:    answer,
		CreatedAt: time.Now(),
	})
	// Keep a little slack beyond the formatting window so the map does not
	// grow unbounded for chatty sessions.
	if s.maxHistory > 0 && len(list) > s.maxHistory*2 {
		list = list[len(list)-s.maxHistory*2:]
	}
	s.exchanges[id] = list
	return nil
}
