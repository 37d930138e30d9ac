// Package misauth provides the session and authorization engine for the
// banking-operations console: persisted session restore, multi-surface
// login, role and subscription gated route guards, and a realtime
// channel whose lifecycle is bound to authentication state.
//
// The package is designed for concurrent workloads: Machine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// misauth is the public surface. It exposes [Machine], [Builder],
// [Config], and value types (Snapshot, Credentials, MetricsSnapshot,
// etc.). Session persistence lives in the session package, realtime
// transport and binding in realtime, role and permission rules in
// policy, and HTTP route gating in guard. Audit dispatch lives under
// internal/ and is never exported directly.
//
// # What this package must NOT do
//
//   - Verify or mint credentials. The credential is an opaque bearer
//     token; the backend is the sole authority on its validity.
//   - Expose store clients, channel transports, or encoding details in
//     its public API.
//   - Import any sub-package that re-imports misauth (no import cycles).
//
// # Consistency contract
//
// Every observable transition is committed atomically: a [Snapshot]
// never carries a token without its principal, Authenticated is derived
// from that pair rather than stored, and Initialized transitions to
// true exactly once. Transport failures never evict a session; only
// explicit backend rejections do.
package misauth
