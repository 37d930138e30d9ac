package misauth

import (
	"context"
	"log"
	"time"

	"github.com/talha-007/mis-dashboard-sub000/session"
)

// Bootstrap restores the persisted session, if any, and marks the
// machine initialized. It runs at most once per Machine; later calls
// are no-ops. Guards report Pending until it settles.
//
// A cached credential/principal pair is trusted without a network call
// unless the credential is a JWT that is already expired. A credential
// without a principal, or an expired one, is resolved against the
// backend: explicit rejection evicts the cached session, while a
// transport failure never does.
func (m *Machine) Bootstrap(ctx context.Context) error {
	m.mu.Lock()
	if m.bootstrapped {
		m.mu.Unlock()
		return nil
	}
	m.bootstrapped = true
	m.mu.Unlock()

	attempt := m.beginAttempt()

	rec, err := m.store.Load(ctx)
	if err != nil {
		// The store being down reads as a first visit. The session, if
		// one exists, resurfaces on the next bootstrap.
		log.Print("misauth: session store load failed at bootstrap")
		m.commit(ctx, func(s *Snapshot) {
			s.Initialized = true
		})
		m.metrics.Inc(MetricBootstrapEmpty)
		m.emitAudit(ctx, eventBootstrapEmpty, "", "", false, err)
		return nil
	}

	if rec.Corrupt {
		m.metrics.Inc(MetricStoreCorruptEntry)
		m.emitAudit(ctx, eventBootstrapCorrupt, "", "", false, nil)
	}

	if rec.Empty() {
		m.commit(ctx, func(s *Snapshot) {
			s.Initialized = true
		})
		m.metrics.Inc(MetricBootstrapEmpty)
		m.emitAudit(ctx, eventBootstrapEmpty, "", "", true, nil)
		return nil
	}

	token := Credential(rec.Token)

	if rec.Principal != nil && !token.Empty() && !token.Stale(time.Now()) {
		// Full pair, locally plausible: trust it without touching the
		// network. The first authorized API call re-proves it anyway.
		snap := m.commit(ctx, func(s *Snapshot) {
			s.Principal = rec.Principal
			s.Token = token
			s.Initialized = true
		})
		m.metrics.Inc(MetricBootstrapRestored)
		m.emitAudit(ctx, eventBootstrapRestored, snap.PrincipalID(), "", true, nil)
		return nil
	}

	return m.revalidate(ctx, attempt, rec, token)
}

// revalidate resolves a partial or expired cached session against the
// backend before the machine is declared initialized.
func (m *Machine) revalidate(ctx context.Context, attempt uint64, rec session.Record, token Credential) error {
	principal, err := m.backend.CurrentPrincipal(ctx, token)

	if !m.stillCurrent(attempt) {
		// A login raced ahead of bootstrap and owns the session now.
		m.commit(ctx, func(s *Snapshot) {
			s.Initialized = true
		})
		return nil
	}

	switch {
	case err == nil:
		snap := m.commit(ctx, func(s *Snapshot) {
			s.Principal = principal
			s.Token = token
			s.Initialized = true
			s.Err = ""
		})
		if saveErr := m.store.Save(ctx, session.Record{Token: string(token), Principal: principal}); saveErr != nil {
			m.metrics.Inc(MetricStoreWriteFailure)
			log.Print("misauth: session persist failed after revalidation")
		}
		m.metrics.Inc(MetricBootstrapRevalidated)
		m.emitAudit(ctx, eventBootstrapRevalidated, snap.PrincipalID(), "", true, nil)
		return nil

	case IsRejection(err):
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			m.metrics.Inc(MetricStoreWriteFailure)
			log.Print("misauth: session store clear failed after rejection")
		}
		m.commit(ctx, func(s *Snapshot) {
			s.Principal = nil
			s.Token = ""
			s.Initialized = true
		})
		m.metrics.Inc(MetricBootstrapRejected)
		m.emitAudit(ctx, eventBootstrapRejected, "", "", false, err)
		return nil

	default:
		// Transport failure: never evict. A cached pair is restored as
		// is; a credential with no principal stays signed out with the
		// failure noted.
		m.commit(ctx, func(s *Snapshot) {
			if rec.Principal != nil {
				s.Principal = rec.Principal
				s.Token = token
			}
			s.Initialized = true
			s.Err = normalizeError(err)
		})
		m.metrics.Inc(MetricBootstrapEmpty)
		m.emitAudit(ctx, eventBootstrapEmpty, "", "", false, err)
		return err
	}
}
