// Package guard evaluates route access against a session snapshot and
// adapts the result to net/http middleware.
//
// Guard decisions are pure: given a snapshot and the route being
// visited they yield Allow, Pending, or a Redirect, with no I/O and no
// reference to the engine. The middleware adapters in this package map
// those decisions onto HTTP responses.
package guard
