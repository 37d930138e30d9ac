package guard

import (
	"context"
	"net/http"
	"net/url"

	misauth "github.com/talha-007/mis-dashboard-sub000"
)

// SnapshotSource yields the session snapshot a request is evaluated
// against. *misauth.Machine satisfies it.
type SnapshotSource interface {
	Current() misauth.Snapshot
}

// DenialRecorder is optionally implemented by snapshot sources that
// want redirect decisions reported. *misauth.Machine satisfies it and
// feeds the denials into its metrics and audit trail.
type DenialRecorder interface {
	RecordDenial(route, target string)
}

type snapshotContextKey struct{}

// SnapshotFromContext returns the snapshot an admitted request was
// evaluated against.
func SnapshotFromContext(ctx context.Context) (misauth.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotContextKey{}).(misauth.Snapshot)
	return snap, ok
}

// Middleware adapts a guard function to net/http. Pending answers 503
// with a Retry-After so clients poll instead of caching a redirect;
// Redirect answers 302, carrying the attempted route as a from query
// parameter when the decision preserves one; Allow injects the snapshot
// into the request context and forwards.
func Middleware(src SnapshotSource, decide func(misauth.Snapshot, string) Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := src.Current()
			d := decide(snap, r.URL.Path)

			switch d.Kind {
			case Pending:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session initializing", http.StatusServiceUnavailable)
			case Redirect:
				if rec, ok := src.(DenialRecorder); ok {
					rec.RecordDenial(r.URL.Path, d.Target)
				}
				target := d.Target
				if d.From != "" {
					target += "?from=" + url.QueryEscape(d.From)
				}
				http.Redirect(w, r, target, http.StatusFound)
			default:
				ctx := context.WithValue(r.Context(), snapshotContextKey{}, snap)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

// Protected returns middleware admitting any authenticated principal.
func Protected(src SnapshotSource, routes Routes) func(http.Handler) http.Handler {
	g := NewGuards(routes)
	return Middleware(src, g.Protected)
}

// Subscription returns middleware applying the subscription gate on top
// of Protected.
func Subscription(src SnapshotSource, routes Routes) func(http.Handler) http.Handler {
	g := NewGuards(routes)
	return Middleware(src, g.Subscription)
}

// RoleOnly returns middleware admitting principals that satisfy req's
// conjunctive role and permission requirement.
func RoleOnly(src SnapshotSource, routes Routes, req Requirement) func(http.Handler) http.Handler {
	g := NewGuards(routes)
	return Middleware(src, func(snap misauth.Snapshot, from string) Decision {
		return g.RoleOnly(snap, from, req)
	})
}

// Role returns middleware applying the no-pending role check. A non-nil
// fallback handler is served in place of the unauthorized redirect, for
// fragments that degrade rather than navigate away.
func Role(src SnapshotSource, routes Routes, req Requirement, fallback http.Handler) func(http.Handler) http.Handler {
	g := NewGuards(routes)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := src.Current()
			d := g.Role(snap, req)
			if d.Kind != Allow {
				if rec, ok := src.(DenialRecorder); ok {
					rec.RecordDenial(r.URL.Path, d.Target)
				}
				if fallback != nil {
					fallback.ServeHTTP(w, r)
					return
				}
				http.Redirect(w, r, d.Target, http.StatusFound)
				return
			}
			ctx := context.WithValue(r.Context(), snapshotContextKey{}, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MultiRole returns middleware admitting principals matching any of
// req's roles or permissions.
func MultiRole(src SnapshotSource, routes Routes, req Requirement) func(http.Handler) http.Handler {
	g := NewGuards(routes)
	return Middleware(src, func(snap misauth.Snapshot, from string) Decision {
		return g.MultiRole(snap, from, req)
	})
}
