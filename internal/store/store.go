// Package store implements the notification store: the state machine
// that owns the live notification set. It enforces the admission and
// deduplication rules, assigns priorities from the interaction ledger,
// and persists its full state through an injected Repository after
// every mutation.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/rentwatch/internal/model"
	"github.com/nhle/rentwatch/internal/priority"
)

// NotificationStore holds the current notification set and the
// interaction ledger. All operations are atomic: each one completes
// its read-modify-write under a single lock acquisition, so callers
// on different goroutines (push handler, timers, UI) can never
// observe or create a half-applied mutation.
type NotificationStore struct {
	mu            sync.Mutex
	repo          Repository
	log           zerolog.Logger
	notifications []model.Notification
	ledger        model.Ledger
	unread        int
}

// New creates a NotificationStore rehydrated from the repository's
// last saved snapshot. A repository with no saved state yields an
// empty store.
func New(repo Repository, logger zerolog.Logger) (*NotificationStore, error) {
	state, err := repo.Load(context.Background())
	if err != nil {
		return nil, err
	}

	return &NotificationStore{
		repo:          repo,
		log:           logger,
		notifications: state.Notifications,
		ledger:        state.Interactions,
		unread:        state.UnreadCount,
	}, nil
}

// Admit validates a candidate and, if it passes, creates a
// notification from it. Admission fails silently (returns false,
// store unchanged) when:
//   - the payload has no stable ID,
//   - the payload is already archived at the domain level,
//   - a live notification with the same (category, target ID)
//     already exists, or
//   - the category gate rejects it (visits and payments only admit
//     while their status is "pending").
//
// An admitted notification is prepended (most-recent-first order),
// starts unread, and gets its priority from the interaction ledger
// as of this moment; the priority is never recomputed afterward.
func (s *NotificationStore) Admit(cand model.Candidate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	targetID := cand.Payload.ID
	if targetID == "" {
		return false
	}
	if cand.Payload.Archived {
		return false
	}

	switch cand.Category {
	case model.CategoryVisit, model.CategoryPayment:
		if cand.Payload.Status != model.StatusPending {
			return false
		}
	}

	for _, n := range s.notifications {
		if n.Category == cand.Category && n.TargetID == targetID {
			return false
		}
	}

	n := model.Notification{
		ID:        uuid.New().String(),
		Category:  cand.Category,
		Title:     cand.Title,
		Message:   cand.Message,
		Payload:   cand.Payload,
		TargetID:  targetID,
		Priority:  priority.For(cand.Category, s.ledger),
		CreatedAt: time.Now(),
	}

	s.notifications = append([]model.Notification{n}, s.notifications...)
	s.unread++
	s.persistLocked()

	return true
}

// MarkAsRead marks the notification as read and seen, and decrements
// the unread counter if it was unread. No-op if the ID is not found.
func (s *NotificationStore) MarkAsRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return
	}

	if !s.notifications[i].IsRead {
		s.notifications[i].IsRead = true
		if s.unread > 0 {
			s.unread--
		}
	}
	s.notifications[i].HasBeenSeen = true
	s.persistLocked()
}

// MarkAllAsRead marks every notification as read and seen and resets
// the unread counter.
func (s *NotificationStore) MarkAllAsRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		s.notifications[i].IsRead = true
		s.notifications[i].HasBeenSeen = true
	}
	s.unread = 0
	s.persistLocked()
}

// Remove dismisses a notification: it records a dismiss interaction
// for the notification's category, removes the notification, and
// decrements the unread counter if it was unread. Removal is
// terminal. No-op if the ID is not found.
func (s *NotificationStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return
	}

	s.appendInteractionLocked(s.notifications[i], model.InteractionDismiss)
	s.removeAtLocked(i)
	s.persistLocked()
}

// RemoveByTarget removes the live notification matching the given
// category and target ID. This is a system-driven removal (the server
// confirmed the underlying domain event resolved), so no interaction
// is recorded. No-op if nothing matches.
func (s *NotificationStore) RemoveByTarget(category model.Category, targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.Category == category && n.TargetID == targetID {
			s.removeAtLocked(i)
			s.persistLocked()
			return
		}
	}
}

// SweepExpired removes notifications whose underlying domain event
// has become stale as of now: visit notifications whose scheduled
// time has passed and whose status is no longer "pending", and lease
// notifications whose due date has passed. Everything else is
// retained. Returns the number of notifications removed.
func (s *NotificationStore) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if expired(n, now) {
			if !n.IsRead && s.unread > 0 {
				s.unread--
			}
			removed++
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept

	if removed > 0 {
		s.persistLocked()
	}
	return removed
}

// expired reports whether a notification's underlying domain event is
// stale at the given time.
func expired(n model.Notification, now time.Time) bool {
	switch n.Category {
	case model.CategoryVisit:
		return !n.Payload.Datetime.IsZero() &&
			n.Payload.Datetime.Before(now) &&
			n.Payload.Status != model.StatusPending
	case model.CategoryLease:
		return !n.Payload.DueDate.IsZero() && n.Payload.DueDate.Before(now)
	default:
		return false
	}
}

// RecordInteraction appends an interaction of the given kind for the
// notification's category to the ledger. The notification itself is
// not modified; callers pair this with MarkAsRead or Remove as
// appropriate. No-op if the ID is not found.
func (s *NotificationStore) RecordInteraction(id string, kind model.InteractionKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return
	}

	s.appendInteractionLocked(s.notifications[i], kind)
	s.persistLocked()
}

// Archive marks a notification as archived and records an archive
// interaction. Archived notifications are excluded from the default
// view but stay in the store. No-op if the ID is not found or the
// notification is already archived.
func (s *NotificationStore) Archive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 || s.notifications[i].IsArchived {
		return
	}

	s.notifications[i].IsArchived = true
	s.appendInteractionLocked(s.notifications[i], model.InteractionArchive)
	s.persistLocked()
}

// Clear empties the notification list and resets the unread counter.
// The interaction ledger is preserved so priority learning survives
// a full clear.
func (s *NotificationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = nil
	s.unread = 0
	s.persistLocked()
}

// Notifications returns a copy of the notification list in
// most-recent-first order, including archived entries.
func (s *NotificationStore) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// ActiveNotifications returns a copy of the non-archived
// notifications in most-recent-first order.
func (s *NotificationStore) ActiveNotifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Notification
	for _, n := range s.notifications {
		if !n.IsArchived {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationStore) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Interactions returns a copy of the interaction ledger, oldest first.
func (s *NotificationStore) Interactions() model.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(model.Ledger, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// indexOfLocked returns the position of the notification with the
// given ID, or -1.
func (s *NotificationStore) indexOfLocked(id string) int {
	for i, n := range s.notifications {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// removeAtLocked deletes the notification at index i and decrements
// the unread counter if it was unread.
func (s *NotificationStore) removeAtLocked(i int) {
	if !s.notifications[i].IsRead && s.unread > 0 {
		s.unread--
	}
	s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
}

// appendInteractionLocked records an interaction against the given
// notification's category.
func (s *NotificationStore) appendInteractionLocked(n model.Notification, kind model.InteractionKind) {
	s.ledger = append(s.ledger, model.Interaction{
		ID:             uuid.New().String(),
		NotificationID: n.ID,
		Kind:           kind,
		Category:       n.Category,
		CreatedAt:      time.Now(),
	})
}

// persistLocked saves the current state through the repository.
// Persistence is best-effort: a failed save is logged and never undoes
// or blocks the in-memory mutation.
func (s *NotificationStore) persistLocked() {
	state := State{
		Notifications: make([]model.Notification, len(s.notifications)),
		Interactions:  make(model.Ledger, len(s.ledger)),
		UnreadCount:   s.unread,
	}
	copy(state.Notifications, s.notifications)
	copy(state.Interactions, s.ledger)

	if err := s.repo.Save(context.Background(), state); err != nil {
		s.log.Warn().Err(err).Msg("saving notification state failed")
	}
}
