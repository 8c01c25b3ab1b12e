package model

import "time"

// InteractionKind identifies how the user acted on a notification.
type InteractionKind string

const (
	InteractionClick   InteractionKind = "click"
	InteractionDismiss InteractionKind = "dismiss"
	InteractionArchive InteractionKind = "archive"
)

// Interaction is a single append-only record of a user acting on a
// notification. Records are never mutated or deleted; they feed the
// priority engine as a sliding-window input.
type Interaction struct {
	// ID is the unique identifier for this record.
	ID string `json:"id"`

	// NotificationID links the record to the notification acted on.
	NotificationID string `json:"notification_id"`

	// Kind is the action taken (click, dismiss, archive).
	Kind InteractionKind `json:"kind"`

	// Category is the acted-on notification's category, denormalized
	// so priority computation never needs the notification itself.
	Category Category `json:"category"`

	// CreatedAt is when the interaction happened.
	CreatedAt time.Time `json:"created_at"`
}

// Ledger is the append-only interaction history, oldest first.
type Ledger []Interaction

// Recent returns the most recent n interactions for the given
// category, oldest first. Returns fewer than n if the ledger does not
// hold that many.
func (l Ledger) Recent(c Category, n int) []Interaction {
	var matched []Interaction
	for i := len(l) - 1; i >= 0 && len(matched) < n; i-- {
		if l[i].Category == c {
			matched = append(matched, l[i])
		}
	}

	// Reverse back into chronological order.
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	return matched
}
