package store

import (
	"context"

	"github.com/nhle/rentwatch/internal/model"
)

// State is the full persisted snapshot of the notification store:
// the live notification list (most-recent-first), the append-only
// interaction ledger, and the unread counter.
type State struct {
	Notifications []model.Notification `json:"notifications"`
	Interactions  model.Ledger         `json:"interactions"`
	UnreadCount   int                  `json:"unread_count"`
}

// Repository persists store snapshots across sessions. It is a
// cross-session cache, not a source of truth; the realtime sync
// service reconciles against the server after rehydration.
type Repository interface {
	// Load returns the last saved snapshot. A repository with no
	// saved state returns an empty State and no error.
	Load(ctx context.Context) (State, error)

	// Save replaces the persisted snapshot with the given state.
	Save(ctx context.Context, state State) error
}
