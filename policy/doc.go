// Package policy provides the closed role union, permission set, and pure
// authorization evaluators for the session engine.
//
// # Design
//
// Roles are a tagged union rather than free-form strings: every principal
// carries exactly one [Role] from a closed set, and evaluators take the
// typed union as input. Permission membership is a set test over
// [PermissionSet]. The subscription-standing gate is role-scoped and
// returns false for every role other than [RoleBankAdmin], regardless of
// the standing field's value.
//
// # Architecture boundaries
//
// This package owns authorization semantics only. It performs no I/O,
// holds no state, and never imports the engine root or any sibling
// package.
//
// # What this package must NOT do
//
//   - Accept or compare raw role strings outside of JSON (de)serialization.
//   - Consult session lifecycle flags; evaluators see principals, not
//     sessions.
//   - Make redirect decisions; that is the guard layer's job.
package policy
