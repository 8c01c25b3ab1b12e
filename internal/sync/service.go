// Package sync owns the realtime channel to the notification server.
// It translates inbound push events into notification store
// mutations, periodically re-requests server state to cover missed
// pushes, runs the daily expiration sweep, and forwards user-driven
// status changes back to the server.
package sync

import (
	"encoding/json"
	"fmt"
	gosync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/rentwatch/internal/store"
)

// State is the connection state of the sync service.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Config holds the timing knobs of the sync service.
type Config struct {
	// ReconcileInterval is the period of the reconciliation loop.
	// Defaults to 60 seconds.
	ReconcileInterval time.Duration

	// SweepCheckInterval is how often the service checks whether the
	// calendar date rolled over and the expiration sweep is due.
	// Defaults to 60 seconds.
	SweepCheckInterval time.Duration
}

// Service drives two-way synchronization between the notification
// store and the server. It holds no notification state itself; every
// inbound event becomes a store call. Instances are independent:
// each owns its transport and its timers, so tests can run several
// side by side without leakage.
type Service struct {
	store     *store.NotificationStore
	transport Transport
	log       zerolog.Logger

	reconcileInterval  time.Duration
	sweepCheckInterval time.Duration

	// now is the clock; swapped in tests to drive the midnight sweep.
	now func() time.Time

	mu            gosync.Mutex
	state         State
	initialized   bool
	loopStop      chan struct{}
	lastSweepDate string
	wg            gosync.WaitGroup
}

// New creates a sync service bound to the given store and transport.
func New(st *store.NotificationStore, tr Transport, cfg Config, logger zerolog.Logger) *Service {
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = 60 * time.Second
	}
	if cfg.SweepCheckInterval <= 0 {
		cfg.SweepCheckInterval = 60 * time.Second
	}

	return &Service{
		store:              st,
		transport:          tr,
		log:                logger,
		reconcileInterval:  cfg.ReconcileInterval,
		sweepCheckInterval: cfg.SweepCheckInterval,
		now:                time.Now,
		state:              StateDisconnected,
	}
}

// Init registers the transport handlers and starts connecting.
// Calling Init again before Disconnect is a no-op: no duplicate
// connections or timers are created.
func (s *Service) Init() error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.state = StateConnecting
	// The sweep baseline starts at the current date and is only ever
	// advanced by a completed sweep. A reconnect must not touch it, or
	// a disconnect window spanning midnight would mark the new day as
	// already swept.
	s.lastSweepDate = s.now().Format(time.DateOnly)
	s.mu.Unlock()

	s.transport.OnConnect(s.handleConnect)
	s.transport.OnDisconnect(s.handleDisconnect)
	s.transport.OnMessage(s.handleMessage)

	if err := s.transport.Connect(); err != nil {
		s.mu.Lock()
		s.initialized = false
		s.state = StateDisconnected
		s.mu.Unlock()
		return fmt.Errorf("connecting transport: %w", err)
	}
	return nil
}

// Disconnect stops both loops, then tears down the transport. The
// timers are fully stopped before the transport handle is closed so
// no tick can fire against a disposed connection. Idempotent.
func (s *Service) Disconnect() {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = false
	s.state = StateDisconnected
	stop := s.loopStop
	s.loopStop = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	s.wg.Wait()

	if err := s.transport.Close(); err != nil {
		s.log.Warn().Err(err).Msg("closing transport failed")
	}
}

// State returns the current connection state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NotifyPaymentStatusChanged informs the server that the user changed
// a payment's status locally.
func (s *Service) NotifyPaymentStatusChanged(id, status string) error {
	return s.send(eventPaymentStatusChanged, paymentStatusChange{ID: id, Status: status})
}

// NotifyVisitStatusChanged informs the server that the user toggled a
// visit's archived flag locally.
func (s *Service) NotifyVisitStatusChanged(id string, archived bool) error {
	return s.send(eventVisitStatusChanged, visitStatusChange{ID: id, Archived: archived})
}

// handleConnect fires on every (re)connect: it restarts both loops
// from scratch and immediately reconciles to cover any events missed
// while disconnected.
func (s *Service) handleConnect() {
	s.mu.Lock()
	s.state = StateConnected
	s.stopLoopsLocked()
	s.loopStop = make(chan struct{})

	s.wg.Add(2)
	go s.reconcileLoop(s.loopStop)
	go s.sweepLoop(s.loopStop)
	s.mu.Unlock()

	s.log.Info().Msg("realtime channel connected")
	s.reconcile()
}

// handleDisconnect fires on connection loss: both loops stop so no
// timer outlives the connection. Reconnection is the transport's
// responsibility; handleConnect re-primes everything when it succeeds.
func (s *Service) handleDisconnect() {
	s.mu.Lock()
	if s.initialized {
		s.state = StateDisconnected
	}
	s.stopLoopsLocked()
	s.mu.Unlock()

	s.log.Info().Msg("realtime channel disconnected")
}

// stopLoopsLocked signals both loops to exit. Callers hold s.mu.
func (s *Service) stopLoopsLocked() {
	if s.loopStop != nil {
		close(s.loopStop)
		s.loopStop = nil
	}
}

// reconcileLoop re-requests server state at a fixed period.
func (s *Service) reconcileLoop(stop chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.reconcile()
		}
	}
}

// sweepLoop periodically checks whether the expiration sweep is due.
func (s *Service) sweepLoop(stop chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.checkSweep()
		}
	}
}

// reconcile asks the server to re-push today's visits and pending
// payments. This compensates for push events missed during
// disconnect windows.
func (s *Service) reconcile() {
	for _, event := range []string{eventCheckTodayVisits, eventCheckPendingPayments} {
		if err := s.send(event, nil); err != nil {
			s.log.Warn().Err(err).Str("event", event).Msg("reconciliation request failed")
		}
	}
}

// checkSweep runs the expiration sweep when the calendar date has
// rolled over since the last sweep. Comparing dates instead of
// watching for the 00:00 tick keeps the sweep correct even when the
// process was suspended across midnight.
func (s *Service) checkSweep() {
	now := s.now()
	today := now.Format(time.DateOnly)

	s.mu.Lock()
	if s.lastSweepDate == today {
		s.mu.Unlock()
		return
	}
	s.lastSweepDate = today
	s.mu.Unlock()

	removed := s.store.SweepExpired(now)
	s.log.Info().Int("removed", removed).Msg("daily expiration sweep")
	s.reconcile()
}

// send marshals data and writes one outbound frame.
func (s *Service) send(event string, data any) error {
	msg := Message{Event: event}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshaling %s payload: %w", event, err)
		}
		msg.Data = raw
	}

	if err := s.transport.Send(msg); err != nil {
		return fmt.Errorf("sending %s: %w", event, err)
	}
	return nil
}
