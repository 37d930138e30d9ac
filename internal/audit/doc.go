// Package audit provides the canonical audit event model, sink
// implementations, and the buffered background dispatcher used by the
// session engine.
//
// # Architecture boundaries
//
// This package owns audit delivery mechanics. Event naming and emission
// policy live in the engine root; sinks receive fully-formed events and
// must never call back into the engine.
//
// # What this package must NOT do
//
//   - Block an engine operation: delivery is asynchronous and, when
//     configured, lossy under backpressure.
//   - Import the engine root or any sibling package.
package audit
