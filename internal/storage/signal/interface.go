// Package signal keeps a log of the signals that were routed to notifiers.
package signal

import (
	"context"
	"time"

	"github.com/newthinker/twquant/internal/core"
)

// Store defines the interface for signal persistence.
type Store interface {
	// Save persists a signal and assigns an ID when it has none.
	Save(ctx context.Context, signal core.Signal) error

	// List retrieves signals matching the filter, oldest first.
	List(ctx context.Context, filter ListFilter) ([]core.Signal, error)
}

// ListFilter defines criteria for listing signals.
type ListFilter struct {
	Symbol   string
	Strategy string
	Action   core.Action
	From     time.Time
	To       time.Time
	Limit    int
}

// Matches reports whether sig satisfies every set field of the filter.
func (f ListFilter) Matches(sig core.Signal) bool {
	if f.Symbol != "" && sig.Symbol != f.Symbol {
		return false
	}
	if f.Strategy != "" && sig.Strategy != f.Strategy {
		return false
	}
	if f.Action != "" && sig.Action != f.Action {
		return false
	}
	if !f.From.IsZero() && sig.GeneratedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && sig.GeneratedAt.After(f.To) {
		return false
	}
	return true
}

func apply(signals []core.Signal, f ListFilter) []core.Signal {
	result := []core.Signal{}
	for _, sig := range signals {
		if f.Matches(sig) {
			result = append(result, sig)
		}
	}
	// Limit keeps the most recent entries.
	if f.Limit > 0 && f.Limit < len(result) {
		result = result[len(result)-f.Limit:]
	}
	return result
}
