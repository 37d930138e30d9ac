package misauth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/talha-007/mis-dashboard-sub000/session"
)

// Login runs an interactive login attempt against the backend surface
// selected by kind and commits the resulting session atomically.
//
// A newer attempt, a logout, or a concurrent bootstrap supersedes an
// in-flight one: the stale completion is discarded wholesale and
// reported as [ErrAttemptSuperseded]. A failed attempt records a
// user-facing message and leaves any existing session untouched.
func (m *Machine) Login(ctx context.Context, kind LoginKind, creds Credentials) (Snapshot, error) {
	if !kind.Valid() {
		return m.Current(), ErrLoginKindInvalid
	}

	attempt := m.beginAttempt()

	m.commit(ctx, func(s *Snapshot) {
		s.Loading = true
		s.LoggingIn = true
		s.Err = ""
	})

	started := time.Now()
	result, err := m.backend.Login(ctx, kind, creds)
	m.metrics.Observe(MetricLoginLatency, time.Since(started))

	if !m.stillCurrent(attempt) {
		m.metrics.Inc(MetricLoginStaleDiscarded)
		m.emitAudit(ctx, eventLoginSuperseded, "", kind.String(), false, nil)
		return m.Current(), ErrAttemptSuperseded
	}

	if err != nil {
		snap := m.commit(ctx, func(s *Snapshot) {
			s.Loading = false
			s.LoggingIn = false
			s.Err = normalizeError(err)
		})
		m.metrics.Inc(MetricLoginFailure)
		m.emitAudit(ctx, eventLoginFailure, "", kind.String(), false, err)
		return snap, err
	}

	if result.Principal == nil || result.Token.Empty() {
		err := errors.New("misauth: backend returned incomplete login result")
		snap := m.commit(ctx, func(s *Snapshot) {
			s.Loading = false
			s.LoggingIn = false
			s.Err = normalizeError(err)
		})
		m.metrics.Inc(MetricLoginFailure)
		m.emitAudit(ctx, eventLoginFailure, "", kind.String(), false, err)
		return snap, err
	}

	snap := m.commit(ctx, func(s *Snapshot) {
		s.Principal = result.Principal
		s.Token = result.Token
		s.Loading = false
		s.LoggingIn = false
		s.Err = ""
	})

	// Persistence is best effort: a failing store degrades restore on
	// the next visit, not the session in hand.
	if saveErr := m.store.Save(ctx, session.Record{Token: string(result.Token), Principal: result.Principal}); saveErr != nil {
		m.metrics.Inc(MetricStoreWriteFailure)
		log.Print("misauth: session persist failed after login")
	}

	m.metrics.Inc(MetricLoginSuccess)
	m.emitAudit(ctx, eventLoginSuccess, snap.PrincipalID(), kind.String(), true, nil)
	return snap, nil
}

// normalizeError maps engine and backend failures to the message shown
// to the operator. Transport failures and rejections read differently;
// anything else falls through verbatim.
func normalizeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrUnauthorized):
		return "Your session is no longer valid. Please sign in again."
	case IsTransient(err):
		return "The service is unreachable. Please try again."
	default:
		return err.Error()
	}
}
