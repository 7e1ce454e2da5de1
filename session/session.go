// Package session defines conversation-history storage. History is
// append-only from the caller's view: exchanges are added, never edited.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Exchange is one completed query/answer pair.
type Exchange struct {
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists per-session conversation history. History returns ""
// for an unknown session id, never an error.
type Store interface {
	History(ctx context.Context, id string) (string, error)
	AddExchange(ctx context.Context, id, query, answer string) error
}

// FormatHistory flattens exchanges into the text handed to the model.
func FormatHistory(exchanges []Exchange) string {
	if len(exchanges) == 0 {
		return ""
	}
	parts := make([]string, 0, len(exchanges))
	for _, e := range exchanges {
		parts = append(parts, fmt.Sprintf("User: %s\nAssistant: %s", e.Query, e.Answer))
	}
	return strings.Join(parts, "\n")
}

// Tail returns the last n exchanges (all of them when n <= 0).
func Tail(exchanges []Exchange, n int) []Exchange {
	if n <= 0 || len(exchanges) <= n {
		return exchanges
	}
	return exchanges[len(exchanges)-n:]
}
