package misauth

import (
	"context"
	"log"
	"sync"

	"github.com/talha-007/mis-dashboard-sub000/internal/audit"
	"github.com/talha-007/mis-dashboard-sub000/realtime"
	"github.com/talha-007/mis-dashboard-sub000/session"
)

// Machine defines a public type used by misauth APIs.
//
// Machine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// A Machine owns the console session: it restores it at bootstrap, runs
// login and logout transitions, keeps the persisted copy in sync, and
// drives the realtime channel binding. All observable state is exposed
// through immutable [Snapshot] copies.
type Machine struct {
	cfg     Config
	store   session.Store
	backend Backend
	binder  *realtime.Binder
	audit   *audit.Dispatcher
	metrics *Metrics

	mu           sync.Mutex
	state        Snapshot
	attempt      uint64
	bootstrapped bool
	closed       bool
	subscribers  map[uint64]func(Snapshot)
	nextSubID    uint64
}

// Current returns a copy of the present session state.
//
// Current does not mutate shared global state and can be used concurrently.
func (m *Machine) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn to be called after every committed transition
// and returns an unsubscribe function. The callback receives the
// committed snapshot; under concurrent transitions callbacks for
// distinct generations may interleave, and Generation orders them.
func (m *Machine) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	if m.subscribers == nil {
		m.subscribers = make(map[uint64]func(Snapshot))
	}
	m.subscribers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// Metrics returns the engine's metrics registry.
func (m *Machine) Metrics() *Metrics {
	return m.metrics
}

// MetricsSnapshot returns a point-in-time copy of all counters and
// histograms, for exporters.
func (m *Machine) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (m *Machine) AuditDropped() uint64 {
	return m.audit.Dropped()
}

// RecordDenial notes a route guard denial in the metrics and the audit
// trail. Guard middleware calls it when a request is turned away; the
// guards themselves stay pure.
func (m *Machine) RecordDenial(route, target string) {
	m.metrics.Inc(MetricGuardDenied)
	if m.audit == nil {
		return
	}
	m.audit.Emit(context.Background(), audit.Event{
		EventType:   eventGuardDenied,
		PrincipalID: m.Current().PrincipalID(),
		Metadata:    map[string]string{"route": route, "redirect": target},
	})
}

// Close releases the channel binding and flushes the audit trail. The
// Machine must not be used after Close.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	if m.binder != nil {
		m.binder.Close()
	}
	m.audit.Close()
}

// commit applies mutate to the state under the lock, derives the
// authenticated flag, bumps the generation, and then reconciles the
// channel binding and notifies subscribers outside the lock.
//
// Authenticated is never set directly: it is true exactly when both a
// principal and a token are present, so a half-committed pair cannot be
// observed.
func (m *Machine) commit(ctx context.Context, mutate func(*Snapshot)) Snapshot {
	m.mu.Lock()
	mutate(&m.state)
	m.state.Authenticated = m.state.Principal != nil && !m.state.Token.Empty()
	m.state.Generation++
	snap := m.state

	subs := make([]func(Snapshot), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if m.binder != nil {
		_ = m.binder.Apply(ctx, realtime.AuthState{
			Authenticated: snap.Authenticated,
			Initialized:   snap.Initialized,
			Token:         string(snap.Token),
			PrincipalID:   snap.PrincipalID(),
			Generation:    snap.Generation,
		})
	}

	for _, fn := range subs {
		fn(snap)
	}

	return snap
}

// beginAttempt invalidates any in-flight backend call and returns the
// id of the new attempt.
func (m *Machine) beginAttempt() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempt++
	return m.attempt
}

// stillCurrent reports whether the given attempt is the latest one. A
// completion whose attempt was superseded must discard its result.
func (m *Machine) stillCurrent(attempt uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempt == attempt
}

// Logout ends the session unconditionally. Local state is cleared
// first, then the persisted copy, and only then is the backend told;
// a failing or unreachable backend cannot keep the console signed in.
func (m *Machine) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.attempt++ // supersede any in-flight login or refresh
	token := m.state.Token
	principalID := m.state.PrincipalID()
	m.mu.Unlock()

	m.commit(ctx, func(s *Snapshot) {
		s.Principal = nil
		s.Token = ""
		s.Loading = false
		s.LoggingIn = false
		s.Err = ""
	})

	if err := m.store.Clear(ctx); err != nil {
		m.metrics.Inc(MetricStoreWriteFailure)
		log.Print("misauth: session store clear failed during logout")
	}

	if !token.Empty() {
		// Best effort: the server-side session may outlive a network
		// failure here, but the local session is already gone.
		if err := m.backend.Logout(ctx, token); err != nil {
			log.Print("misauth: backend logout failed")
		}
	}

	m.metrics.Inc(MetricLogout)
	m.emitAudit(ctx, eventLogout, principalID, "", true, nil)
	return nil
}
