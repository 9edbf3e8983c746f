// internal/core/suggestion-query/models.go
package suggestionquery

import (
	"context"

	"shopping-assistant/internal/models"
)

// Fetcher returns suggestions for a query. *catalogclient.Client satisfies it.
type Fetcher interface {
	GetSuggestions(ctx context.Context, query string) ([]models.ProductSummary, error)
}

type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateFetching
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateFetching:
		return "fetching"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Snapshot is the visible state of the controller. Suggestions keep showing
// the last settled results while a newer query is debouncing or fetching.
type Snapshot struct {
	State       State
	Text        string
	Seq         uint64
	Suggestions []models.ProductSummary
}

// Visible reports whether the suggestion list should be shown.
func (s Snapshot) Visible() bool {
	return s.State != StateIdle && len(s.Suggestions) > 0
}
