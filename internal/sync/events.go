package sync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nhle/rentwatch/internal/model"
)

// Inbound event names pushed by the server.
const (
	eventVisit            = "visit"
	eventPayment          = "payment"
	eventPaymentCompleted = "payment_completed"
	eventVisitArchived    = "visit_archived"
)

// Outbound event names sent to the server.
const (
	eventCheckTodayVisits     = "checkTodayVisits"
	eventCheckPendingPayments = "checkPendingPayments"
	eventPaymentStatusChanged = "paymentStatusChanged"
	eventVisitStatusChanged   = "visitStatusChanged"
)

// eventID is the identifier field of inbound payloads. The id is
// opaque; servers emit it as either a JSON number or a string, so both
// decode into the same canonical string form.
type eventID string

// UnmarshalJSON accepts a JSON number or string.
func (id *eventID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = eventID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = eventID(n.String())
	return nil
}

// visitEvent is the payload of an inbound visit push.
type visitEvent struct {
	ID       eventID   `json:"id"`
	Tenant   string    `json:"tenant"`
	Property string    `json:"property"`
	Datetime time.Time `json:"datetime"`
	Status   string    `json:"status"`
}

// paymentEvent is the payload of an inbound payment push.
type paymentEvent struct {
	ID       eventID `json:"id"`
	Tenant   string  `json:"tenant"`
	Property string  `json:"property"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
}

// targetEvent is the payload of the removal pushes
// (payment_completed, visit_archived).
type targetEvent struct {
	ID eventID `json:"id"`
}

// paymentStatusChange is the outbound paymentStatusChanged payload.
type paymentStatusChange struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// visitStatusChange is the outbound visitStatusChanged payload.
type visitStatusChange struct {
	ID       string `json:"id"`
	Archived bool   `json:"archived"`
}

// handleMessage translates one inbound frame into a store mutation.
// Malformed payloads (undecodable JSON, missing id, missing status
// where the event defines one) are logged and dropped; the store is
// never touched for them.
func (s *Service) handleMessage(msg Message) {
	switch msg.Event {
	case eventVisit:
		s.handleVisit(msg.Data)
	case eventPayment:
		s.handlePayment(msg.Data)
	case eventPaymentCompleted:
		s.handleRemoval(msg.Event, model.CategoryPayment, msg.Data)
	case eventVisitArchived:
		s.handleRemoval(msg.Event, model.CategoryVisit, msg.Data)
	default:
		s.log.Debug().Str("event", msg.Event).Msg("dropping unknown event")
	}
}

// handleVisit admits a notification for a visit scheduled today.
func (s *Service) handleVisit(data json.RawMessage) {
	var ev visitEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		s.log.Debug().Err(err).Str("event", eventVisit).Msg("dropping malformed payload")
		return
	}
	if ev.ID == "" || ev.Status == "" {
		s.log.Debug().Str("event", eventVisit).Msg("dropping payload without id or status")
		return
	}

	s.store.Admit(model.Candidate{
		Category: model.CategoryVisit,
		Title:    "Visit due today",
		Message:  fmt.Sprintf("Visit with %s at %s", ev.Tenant, ev.Property),
		Payload: model.Payload{
			ID:       string(ev.ID),
			Tenant:   ev.Tenant,
			Property: ev.Property,
			Datetime: ev.Datetime,
			Status:   ev.Status,
		},
	})
}

// handlePayment admits a notification for a pending rent payment.
func (s *Service) handlePayment(data json.RawMessage) {
	var ev paymentEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		s.log.Debug().Err(err).Str("event", eventPayment).Msg("dropping malformed payload")
		return
	}
	if ev.ID == "" || ev.Status == "" {
		s.log.Debug().Str("event", eventPayment).Msg("dropping payload without id or status")
		return
	}
	if ev.Status != model.StatusPending {
		return
	}

	s.store.Admit(model.Candidate{
		Category: model.CategoryPayment,
		Title:    "Rent payment pending",
		Message:  fmt.Sprintf("%s has a pending payment of %.2f for %s", ev.Tenant, ev.Amount, ev.Property),
		Payload: model.Payload{
			ID:       string(ev.ID),
			Tenant:   ev.Tenant,
			Property: ev.Property,
			Amount:   ev.Amount,
			Status:   ev.Status,
		},
	})
}

// handleRemoval removes the notification for a domain event the
// server confirmed as resolved.
func (s *Service) handleRemoval(event string, category model.Category, data json.RawMessage) {
	var ev targetEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		s.log.Debug().Err(err).Str("event", event).Msg("dropping malformed payload")
		return
	}
	if ev.ID == "" {
		s.log.Debug().Str("event", event).Msg("dropping payload without id")
		return
	}

	s.store.RemoveByTarget(category, string(ev.ID))
}
