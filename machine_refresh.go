package misauth

import (
	"context"
	"log"

	"github.com/talha-007/mis-dashboard-sub000/session"
)

// RefreshPrincipal re-fetches the authenticated principal so that role,
// permission, or subscription changes made elsewhere become visible.
//
// Refresh is advisory: any failure, including an explicit rejection,
// leaves the principal and credential exactly as they were and surfaces
// the failure through [Snapshot.Err]. Use [Machine.Verify] when a
// rejection should end the session.
func (m *Machine) RefreshPrincipal(ctx context.Context) (Snapshot, error) {
	current := m.Current()
	if !current.Authenticated {
		return current, ErrNotAuthenticated
	}

	attempt := m.beginAttempt()

	m.commit(ctx, func(s *Snapshot) {
		s.Loading = true
		s.Err = ""
	})

	principal, err := m.backend.CurrentPrincipal(ctx, current.Token)

	if !m.stillCurrent(attempt) {
		return m.Current(), ErrAttemptSuperseded
	}

	if err != nil {
		snap := m.commit(ctx, func(s *Snapshot) {
			s.Loading = false
			s.Err = normalizeError(err)
		})
		m.metrics.Inc(MetricRefreshFailure)
		m.emitAudit(ctx, eventRefreshFailure, current.PrincipalID(), "", false, err)
		return snap, err
	}

	snap := m.commit(ctx, func(s *Snapshot) {
		s.Principal = principal
		s.Loading = false
	})
	if saveErr := m.store.Save(ctx, session.Record{Token: string(snap.Token), Principal: principal}); saveErr != nil {
		m.metrics.Inc(MetricStoreWriteFailure)
		log.Print("misauth: session persist failed after principal refresh")
	}

	m.metrics.Inc(MetricRefreshSuccess)
	m.emitAudit(ctx, eventRefreshSuccess, snap.PrincipalID(), "", true, nil)
	return snap, nil
}

// Verify proves the held credential against the backend. An explicit
// rejection revokes the session: the persisted copy is cleared and the
// machine transitions to signed out. Transport failures change nothing.
func (m *Machine) Verify(ctx context.Context) (Snapshot, error) {
	current := m.Current()
	if !current.Authenticated {
		return current, ErrNotAuthenticated
	}

	attempt := m.beginAttempt()

	principal, err := m.backend.CurrentPrincipal(ctx, current.Token)

	if !m.stillCurrent(attempt) {
		return m.Current(), ErrAttemptSuperseded
	}

	switch {
	case err == nil:
		snap := m.commit(ctx, func(s *Snapshot) {
			s.Principal = principal
		})
		m.metrics.Inc(MetricRefreshSuccess)
		return snap, nil

	case IsRejection(err):
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			m.metrics.Inc(MetricStoreWriteFailure)
			log.Print("misauth: session store clear failed after revocation")
		}
		snap := m.commit(ctx, func(s *Snapshot) {
			s.Principal = nil
			s.Token = ""
			s.Err = normalizeError(err)
		})
		m.metrics.Inc(MetricSessionRevoked)
		m.emitAudit(ctx, eventSessionRevoked, current.PrincipalID(), "", false, err)
		return snap, err

	default:
		m.metrics.Inc(MetricRefreshFailure)
		return m.Current(), err
	}
}

// RotateToken swaps the bearer credential in place. The realtime
// channel hot-swaps its auth without a disconnect, and the persisted
// copy is updated alongside.
func (m *Machine) RotateToken(ctx context.Context, token Credential) (Snapshot, error) {
	if token.Empty() {
		return m.Current(), ErrInvalidCredentials
	}

	current := m.Current()
	if !current.Authenticated {
		return current, ErrNotAuthenticated
	}

	snap := m.commit(ctx, func(s *Snapshot) {
		s.Token = token
	})
	if saveErr := m.store.Save(ctx, session.Record{Token: string(token), Principal: snap.Principal}); saveErr != nil {
		m.metrics.Inc(MetricStoreWriteFailure)
		log.Print("misauth: session persist failed after token rotation")
	}

	m.metrics.Inc(MetricTokenRotated)
	m.emitAudit(ctx, eventTokenRotated, snap.PrincipalID(), "", true, nil)
	return snap, nil
}
