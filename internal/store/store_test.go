package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/rentwatch/internal/model"
	"github.com/nhle/rentwatch/internal/store"
	"github.com/nhle/rentwatch/tests/testutil"
)

// mustNewStore creates a NotificationStore over the given repository,
// failing the test on error.
func mustNewStore(t *testing.T, repo store.Repository) *store.NotificationStore {
	t.Helper()

	s, err := store.New(repo, zerolog.Nop())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return s
}

// paymentCandidate returns a pending payment admission candidate.
func paymentCandidate(id string) model.Candidate {
	return model.Candidate{
		Category: model.CategoryPayment,
		Title:    "Rent payment pending",
		Message:  "Alice has a pending payment of 500.00 for Elm St 4",
		Payload: model.Payload{
			ID:       id,
			Tenant:   "Alice",
			Property: "Elm St 4",
			Amount:   500,
			Status:   model.StatusPending,
		},
	}
}

// visitCandidate returns a visit admission candidate with the given
// status and scheduled time.
func visitCandidate(id, status string, at time.Time) model.Candidate {
	return model.Candidate{
		Category: model.CategoryVisit,
		Title:    "Visit due today",
		Message:  "Visit with Bob at Oak Ave 12",
		Payload: model.Payload{
			ID:       id,
			Tenant:   "Bob",
			Property: "Oak Ave 12",
			Datetime: at,
			Status:   status,
		},
	}
}

// leaseCandidate returns a lease admission candidate due at the given
// time.
func leaseCandidate(id string, due time.Time) model.Candidate {
	return model.Candidate{
		Category: model.CategoryLease,
		Title:    "Lease expiring",
		Message:  "Lease for Oak Ave 12 is expiring",
		Payload: model.Payload{
			ID:      id,
			DueDate: due,
		},
	}
}

func TestAdmitDedupInvariant(t *testing.T) {
	s := testutil.NewTestStore(t)

	if !s.Admit(paymentCandidate("42")) {
		t.Fatal("first admission rejected")
	}
	if s.Admit(paymentCandidate("42")) {
		t.Error("duplicate (category, target) admitted")
	}

	if got := len(s.Notifications()); got != 1 {
		t.Errorf("notification count = %d, want 1", got)
	}

	// Same target ID under a different category is a different pair.
	if !s.Admit(model.Candidate{
		Category: model.CategoryMarketplace,
		Title:    "New listing inquiry",
		Payload:  model.Payload{ID: "42"},
	}) {
		t.Error("same target under different category rejected")
	}
}

func TestAdmitGates(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		cand model.Candidate
		want bool
	}{
		{"pending visit", visitCandidate("1", model.StatusPending, now), true},
		{"confirmed visit", visitCandidate("2", model.StatusConfirmed, now), false},
		{"pending payment", paymentCandidate("3"), true},
		{"completed payment", func() model.Candidate {
			c := paymentCandidate("4")
			c.Payload.Status = model.StatusCompleted
			return c
		}(), false},
		{"lease", leaseCandidate("5", now.Add(24*time.Hour)), true},
		{"marketplace", model.Candidate{
			Category: model.CategoryMarketplace,
			Payload:  model.Payload{ID: "6"},
		}, true},
		{"archived at source", func() model.Candidate {
			c := paymentCandidate("7")
			c.Payload.Archived = true
			return c
		}(), false},
		{"missing target id", model.Candidate{
			Category: model.CategoryLease,
			Payload:  model.Payload{},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testutil.NewTestStore(t)
			before := len(s.Notifications())

			if got := s.Admit(tt.cand); got != tt.want {
				t.Errorf("Admit = %v, want %v", got, tt.want)
			}
			if !tt.want && len(s.Notifications()) != before {
				t.Error("rejected admission changed the store")
			}
		})
	}
}

func TestAdmitOrdersMostRecentFirst(t *testing.T) {
	s := testutil.NewTestStore(t)

	s.Admit(paymentCandidate("1"))
	s.Admit(paymentCandidate("2"))
	s.Admit(paymentCandidate("3"))

	got := s.Notifications()
	if len(got) != 3 {
		t.Fatalf("notification count = %d, want 3", len(got))
	}
	for i, want := range []string{"3", "2", "1"} {
		if got[i].TargetID != want {
			t.Errorf("position %d target = %s, want %s", i, got[i].TargetID, want)
		}
	}
}

func TestUnreadCountMatchesUnreadNotifications(t *testing.T) {
	s := testutil.NewTestStore(t)

	check := func(step string) {
		t.Helper()
		unread := 0
		for _, n := range s.Notifications() {
			if !n.IsRead {
				unread++
			}
		}
		if got := s.UnreadCount(); got != unread {
			t.Errorf("%s: UnreadCount = %d, actual unread = %d", step, got, unread)
		}
	}

	s.Admit(paymentCandidate("1"))
	s.Admit(paymentCandidate("2"))
	s.Admit(paymentCandidate("3"))
	check("after admits")

	first := s.Notifications()[0]
	s.MarkAsRead(first.ID)
	check("after mark read")
	s.MarkAsRead(first.ID)
	check("after repeated mark read")
	s.MarkAsRead("no-such-id")
	check("after mark read of missing id")

	s.Remove(first.ID)
	check("after removing a read notification")

	s.Remove(s.Notifications()[0].ID)
	check("after removing an unread notification")

	s.MarkAllAsRead()
	check("after mark all read")
	if got := s.UnreadCount(); got != 0 {
		t.Errorf("UnreadCount after MarkAllAsRead = %d, want 0", got)
	}
}

func TestMarkAsReadSetsSeen(t *testing.T) {
	s := testutil.NewTestStore(t)
	s.Admit(paymentCandidate("1"))

	id := s.Notifications()[0].ID
	s.MarkAsRead(id)

	n := s.Notifications()[0]
	if !n.IsRead || !n.HasBeenSeen {
		t.Errorf("after MarkAsRead: IsRead=%v HasBeenSeen=%v, want both true", n.IsRead, n.HasBeenSeen)
	}
}

func TestRemoveRecordsDismiss(t *testing.T) {
	s := testutil.NewTestStore(t)
	s.Admit(paymentCandidate("1"))

	id := s.Notifications()[0].ID
	s.Remove(id)

	if got := len(s.Notifications()); got != 0 {
		t.Fatalf("notification count after Remove = %d, want 0", got)
	}

	ledger := s.Interactions()
	if len(ledger) != 1 {
		t.Fatalf("ledger length = %d, want 1", len(ledger))
	}
	rec := ledger[0]
	if rec.Kind != model.InteractionDismiss {
		t.Errorf("interaction kind = %s, want dismiss", rec.Kind)
	}
	if rec.Category != model.CategoryPayment {
		t.Errorf("interaction category = %s, want payment", rec.Category)
	}
	if rec.NotificationID != id {
		t.Errorf("interaction notification = %s, want %s", rec.NotificationID, id)
	}
}

func TestRemoveByTargetRecordsNoInteraction(t *testing.T) {
	s := testutil.NewTestStore(t)
	s.Admit(paymentCandidate("42"))

	s.RemoveByTarget(model.CategoryPayment, "42")

	if got := len(s.Notifications()); got != 0 {
		t.Errorf("notification count = %d, want 0", got)
	}
	if got := len(s.Interactions()); got != 0 {
		t.Errorf("ledger length = %d, want 0 (system removal records nothing)", got)
	}

	// Unknown targets are silently ignored.
	s.RemoveByTarget(model.CategoryVisit, "42")
}

func TestSweepExpired(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 30, 0, time.UTC)
	past := now.Add(-2 * time.Hour)
	future := now.Add(2 * time.Hour)

	s := testutil.NewTestStore(t)
	s.Admit(visitCandidate("past-pending", model.StatusPending, past))
	s.Admit(paymentCandidate("pay"))
	s.Admit(leaseCandidate("lease-past", past))
	s.Admit(leaseCandidate("lease-future", future))
	s.Admit(visitCandidate("future-pending", model.StatusPending, future))

	removed := s.SweepExpired(now)
	if removed != 1 {
		t.Errorf("SweepExpired removed %d, want 1 (the past lease)", removed)
	}

	remaining := map[string]bool{}
	for _, n := range s.Notifications() {
		remaining[n.TargetID] = true
	}

	for _, want := range []string{"past-pending", "pay", "lease-future", "future-pending"} {
		if !remaining[want] {
			t.Errorf("notification %s was swept, want retained", want)
		}
	}
	if remaining["lease-past"] {
		t.Error("past-due lease retained, want swept")
	}

	if got := s.UnreadCount(); got != len(s.Notifications()) {
		t.Errorf("UnreadCount after sweep = %d, want %d", got, len(s.Notifications()))
	}
}

func TestSweepExpiredVisitMatrix(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-3 * time.Hour)
	future := now.Add(3 * time.Hour)

	// Visits only pass the admission gate while pending; their payload
	// status goes stale once the server resolves them. Seed that
	// post-resolution shape through the repository, the same way a
	// restart would rehydrate it.
	seed := func(id, status string, at time.Time) model.Notification {
		return model.Notification{
			ID:       "ntf-" + id,
			Category: model.CategoryVisit,
			Title:    "Visit due today",
			Payload: model.Payload{
				ID:       id,
				Datetime: at,
				Status:   status,
			},
			TargetID:  id,
			Priority:  model.PriorityLow,
			CreatedAt: past,
		}
	}

	repo := store.NewMemoryRepository()
	state := store.State{
		Notifications: []model.Notification{
			seed("past-completed", model.StatusCompleted, past),
			seed("past-pending", model.StatusPending, past),
			seed("future-completed", model.StatusCompleted, future),
		},
		UnreadCount: 3,
	}
	if err := repo.Save(context.Background(), state); err != nil {
		t.Fatalf("seeding repository: %v", err)
	}

	s, err := store.New(repo, zerolog.Nop())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	if removed := s.SweepExpired(now); removed != 1 {
		t.Fatalf("sweep removed %d, want 1", removed)
	}

	remaining := map[string]bool{}
	for _, n := range s.Notifications() {
		remaining[n.TargetID] = true
	}
	if remaining["past-completed"] {
		t.Error("past completed visit retained, want swept")
	}
	if !remaining["past-pending"] {
		t.Error("past pending visit swept, want retained")
	}
	if !remaining["future-completed"] {
		t.Error("future visit swept, want retained regardless of status")
	}
}

func TestClearPreservesLedger(t *testing.T) {
	s := testutil.NewTestStore(t)
	s.Admit(paymentCandidate("1"))
	s.Admit(paymentCandidate("2"))
	s.Remove(s.Notifications()[0].ID)

	s.Clear()

	if got := len(s.Notifications()); got != 0 {
		t.Errorf("notification count after Clear = %d, want 0", got)
	}
	if got := s.UnreadCount(); got != 0 {
		t.Errorf("UnreadCount after Clear = %d, want 0", got)
	}
	if got := len(s.Interactions()); got != 1 {
		t.Errorf("ledger length after Clear = %d, want 1 (ledger survives)", got)
	}
}

func TestArchive(t *testing.T) {
	s := testutil.NewTestStore(t)
	s.Admit(paymentCandidate("1"))
	s.Admit(paymentCandidate("2"))

	id := s.Notifications()[1].ID
	s.Archive(id)
	s.Archive(id) // repeat is a no-op

	all := s.Notifications()
	if len(all) != 2 {
		t.Fatalf("archived notification was removed, count = %d", len(all))
	}

	active := s.ActiveNotifications()
	if len(active) != 1 {
		t.Fatalf("active count = %d, want 1", len(active))
	}
	if active[0].ID == id {
		t.Error("archived notification still in active view")
	}

	ledger := s.Interactions()
	if len(ledger) != 1 || ledger[0].Kind != model.InteractionArchive {
		t.Errorf("ledger = %+v, want a single archive interaction", ledger)
	}
}

func TestInteractionsAdaptPriority(t *testing.T) {
	s := testutil.NewTestStore(t)

	// A fresh payment defaults to high priority.
	s.Admit(paymentCandidate("1"))
	if got := s.Notifications()[0].Priority; got != model.PriorityHigh {
		t.Fatalf("default payment priority = %s, want high", got)
	}

	// A dismiss-heavy window demotes the category.
	id := s.Notifications()[0].ID
	for i := 0; i < 7; i++ {
		s.RecordInteraction(id, model.InteractionDismiss)
	}
	for i := 0; i < 3; i++ {
		s.RecordInteraction(id, model.InteractionClick)
	}

	s.Admit(paymentCandidate("2"))
	if got := s.Notifications()[0].Priority; got != model.PriorityLow {
		t.Errorf("payment priority after 7 dismisses / 3 clicks = %s, want low", got)
	}

	// Existing notifications keep their admission-time priority.
	var first model.Notification
	for _, n := range s.Notifications() {
		if n.TargetID == "1" {
			first = n
		}
	}
	if first.Priority != model.PriorityHigh {
		t.Errorf("existing notification priority = %s, want unchanged high", first.Priority)
	}
}

func TestPendingPaymentLifecycle(t *testing.T) {
	s := testutil.NewTestStore(t)

	if !s.Admit(paymentCandidate("42")) {
		t.Fatal("pending payment rejected")
	}
	if got := len(s.Notifications()); got != 1 {
		t.Fatalf("notification count = %d, want 1", got)
	}
	if got := s.UnreadCount(); got != 1 {
		t.Errorf("UnreadCount = %d, want 1", got)
	}
	if got := s.Notifications()[0].Priority; got != model.PriorityHigh {
		t.Errorf("priority = %s, want high (payment default, empty ledger)", got)
	}

	s.RemoveByTarget(model.CategoryPayment, "42")

	if got := len(s.Notifications()); got != 0 {
		t.Errorf("notification count = %d, want 0", got)
	}
	if got := s.UnreadCount(); got != 0 {
		t.Errorf("UnreadCount = %d, want 0", got)
	}
}

// failingRepository accepts loads and rejects every save.
type failingRepository struct{}

func (failingRepository) Load(ctx context.Context) (store.State, error) {
	return store.State{}, nil
}

func (failingRepository) Save(ctx context.Context, state store.State) error {
	return errors.New("disk full")
}

func TestPersistenceFailureDoesNotBlockMutations(t *testing.T) {
	s, err := store.New(failingRepository{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	if !s.Admit(paymentCandidate("1")) {
		t.Fatal("admission blocked by failing repository")
	}
	if got := len(s.Notifications()); got != 1 {
		t.Errorf("notification count = %d, want 1", got)
	}

	s.MarkAllAsRead()
	if got := s.UnreadCount(); got != 0 {
		t.Errorf("UnreadCount = %d, want 0", got)
	}
}

func TestRehydration(t *testing.T) {
	repo := store.NewMemoryRepository()

	s, err := store.New(repo, zerolog.Nop())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	s.Admit(paymentCandidate("1"))
	s.Admit(visitCandidate("2", model.StatusPending, time.Now().Add(time.Hour)))
	s.MarkAsRead(s.Notifications()[0].ID)
	s.RecordInteraction(s.Notifications()[1].ID, model.InteractionClick)

	reloaded, err := store.New(repo, zerolog.Nop())
	if err != nil {
		t.Fatalf("rehydrating store: %v", err)
	}

	if got, want := len(reloaded.Notifications()), 2; got != want {
		t.Errorf("rehydrated notification count = %d, want %d", got, want)
	}
	if got, want := reloaded.UnreadCount(), s.UnreadCount(); got != want {
		t.Errorf("rehydrated UnreadCount = %d, want %d", got, want)
	}
	if got, want := len(reloaded.Interactions()), 1; got != want {
		t.Errorf("rehydrated ledger length = %d, want %d", got, want)
	}
}
