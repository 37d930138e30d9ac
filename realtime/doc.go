// Package realtime binds the push-notification channel to the session
// lifecycle.
//
// # Design
//
// [Channel] is the transport abstraction: one logical bidirectional
// connection with connect/disconnect/updateAuth/emit and named event
// handlers. [MemoryChannel] is an in-process implementation used in
// tests and single-binary deployments; [RedisChannel] carries events
// over Redis pub/sub for deployments with a separate notification
// service.
//
// [Binder] is the reactive glue: it observes session transitions (as
// [AuthState] values pushed by the engine) and drives the channel so
// that the connection is open if and only if the session is
// authenticated and initialized. Reconnects re-emit the
// subscribe-to-notifications signal, which the server treats as
// idempotent; token rotation hot-swaps credentials without a
// disconnect/connect cycle.
//
// # What this package must NOT do
//
//   - Mutate session state; it only reads AuthState values.
//   - Import the engine root package.
//   - Keep handlers registered across logout; every binding releases all
//     of its registrations on teardown.
package realtime
