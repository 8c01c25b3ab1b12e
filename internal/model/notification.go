package model

import "time"

// Category identifies the kind of domain event a notification was
// generated from.
type Category string

const (
	CategoryVisit       Category = "visit"
	CategoryPayment     Category = "payment"
	CategoryLease       Category = "lease"
	CategoryMarketplace Category = "marketplace"
)

// Priority is the display priority assigned to a notification at
// admission time.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Domain status constants shared by visit and payment payloads.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
)

// Payload holds the category-specific data carried by a notification.
// Only the fields relevant to the notification's category are set;
// ID is always present and is the stable identifier used for
// deduplication and targeted removal.
type Payload struct {
	// ID is the domain object's identifier within the server
	// (visit ID, payment ID, lease ID, listing ID).
	ID string `json:"id"`

	// Tenant is the display name of the tenant involved, if any.
	Tenant string `json:"tenant,omitempty"`

	// Property is the display name of the property involved, if any.
	Property string `json:"property,omitempty"`

	// Amount is the payment amount for payment payloads.
	Amount float64 `json:"amount,omitempty"`

	// Datetime is the scheduled time for visit payloads.
	Datetime time.Time `json:"datetime,omitzero"`

	// DueDate is the expiration date for lease payloads.
	DueDate time.Time `json:"due_date,omitzero"`

	// Status is the domain object's current status
	// (e.g., "pending", "confirmed", "completed").
	Status string `json:"status,omitempty"`

	// Archived reports whether the domain object is already archived
	// server-side. Archived objects are never admitted.
	Archived bool `json:"archived,omitempty"`
}

// Candidate is a notification admission request. Notifications are
// only ever created by the store's Admit operation, never constructed
// directly.
type Candidate struct {
	// Category identifies the kind of domain event.
	Category Category `json:"category"`

	// Title is the short display heading.
	Title string `json:"title"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Payload is the category-specific data backing the notification.
	Payload Payload `json:"payload"`
}

// Notification represents a single alert surfaced to the user about
// activity on their rental portfolio.
type Notification struct {
	// ID is the unique identifier assigned at admission.
	ID string `json:"id"`

	// Category identifies which kind of domain event produced this
	// notification.
	Category Category `json:"category"`

	// Title is the short display heading.
	Title string `json:"title"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Payload is the category-specific data backing the notification.
	Payload Payload `json:"payload"`

	// TargetID is a denormalized copy of Payload.ID, kept at the top
	// level so dedup and removal matching never reach into Payload.
	TargetID string `json:"target_id"`

	// Priority is computed once at admission from the interaction
	// ledger and never recomputed afterward.
	Priority Priority `json:"priority"`

	// IsRead reports whether the user has read this notification.
	// Transitions false→true only.
	IsRead bool `json:"is_read"`

	// HasBeenSeen reports whether the notification has ever been
	// displayed. Transitions false→true only.
	HasBeenSeen bool `json:"has_been_seen"`

	// IsArchived reports whether the user archived this notification.
	// Archived notifications are excluded from the default view but
	// are not removed.
	IsArchived bool `json:"is_archived"`

	// CreatedAt is the admission time.
	CreatedAt time.Time `json:"created_at"`
}
