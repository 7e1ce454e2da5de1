// Package redis keeps session history in a redis list per session, trimmed
// to the recent window and expired with the session TTL.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parsa-hm/lectern/session"
)

// Store is a redis-backed session.Store.
type Store struct {
	client     *redis.Client
	maxHistory int
	ttl        time.Duration
}

// NewStore creates a redis-backed store.
func NewStore(addr, password string, db, maxHistory int, ttl time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: rdb, maxHistory: maxHistory, ttl: ttl}
}

func historyKey(id string) string {
	return fmt.Sprintf("session:%s:history", id)
}

// History returns the flattened recent history for a session, "" when the
// session is unknown or expired.
func (s *Store) History(ctx context.Context, id string) (string, error) {
	vals, err := s.client.LRange(ctx, historyKey(id), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return "", fmt.Errorf("failed to read session %s: %w", id, err)
	}
	exchanges := make([]session.Exchange, 0, len(vals))
	for _, v := range vals {
		var e session.Exchange
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			continue
		}
		exchanges = append(exchanges, e)
	}
	return session.FormatHistory(session.Tail(exchanges, s.maxHistory)), nil
}

// AddExchange appends one query/answer pair and refreshes the session TTL.
func (s *Store) AddExchange(ctx context.Context, id, query, answer string) error {
	data, err := json.Marshal(session.Exchange{
		Query:     query,
		Answer:    answer,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}
	key := historyKey(id)
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to append to session %s: %w", id, err)
	}
	if s.maxHistory > 0 {
		_ = s.client.LTrim(ctx, key, int64(-s.maxHistory*2), -1).Err()
	}
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, key, s.ttl).Err()
	}
	return nil
}
