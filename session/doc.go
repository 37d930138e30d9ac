// Package session persists the authenticated session tuple — opaque
// credential plus JSON-serialized principal — across process restarts.
//
// # Storage layout
//
// Every [Store] keeps two independent string-keyed entries, "auth.credential"
// and "auth.principal". They are read once at bootstrap, written through on
// every successful login or principal refresh, and cleared on logout. A
// corrupt or unparseable entry is treated as absent, never as an error:
// nothing throws past the storage boundary.
//
// # Implementations
//
//   - [MemoryStore] — process-local, used in tests and ephemeral setups.
//   - [FileStore] — two files under a directory, for desktop/kiosk installs.
//   - [RedisStore] — namespaced keys with optional TTL, for shared deployments.
//   - [PostgresStore] — a two-row upsert table, for installs that already
//     carry a relational database and no Redis.
//
// # What this package must NOT do
//
//   - Decide whether a stored tuple is trustworthy; that is the machine's
//     bootstrap policy.
//   - Import the engine root package.
package session
