package misauth

import (
	"context"
	"io"

	internalaudit "github.com/talha-007/mis-dashboard-sub000/internal/audit"
	"github.com/talha-007/mis-dashboard-sub000/policy"
)

// LoginKind selects which of the three backend login surfaces a login
// attempt is sent to. Each principal type authenticates against a
// distinct endpoint with a distinct request shape.
type LoginKind uint8

const (
	// LoginSuperAdmin authenticates against the platform-operator surface.
	LoginSuperAdmin LoginKind = iota
	// LoginBankAdmin authenticates against the per-bank administrator surface.
	LoginBankAdmin
	// LoginCustomer authenticates against the borrower-facing surface.
	LoginCustomer

	loginKindCount
)

// String describes the string operation and its observable behavior.
//
// String does not mutate shared global state and can be used concurrently.
func (k LoginKind) String() string {
	switch k {
	case LoginSuperAdmin:
		return "super-administrator"
	case LoginBankAdmin:
		return "bank-administrator"
	case LoginCustomer:
		return "customer"
	default:
		return "unknown"
	}
}

// Valid reports whether k names one of the three login surfaces.
func (k LoginKind) Valid() bool {
	return k < loginKindCount
}

// Credentials is the interactive login input. BankCode is consumed only
// by the bank-administrator surface.
type Credentials struct {
	Email    string
	Password string
	BankCode string
}

// LoginResult is returned by [Backend.Login]. Success responses always
// carry both fields.
type LoginResult struct {
	Token     Credential
	Principal *policy.Principal
}

// Backend is the boundary to the REST auth endpoints. Implementations
// must distinguish transport failure (wrap [ErrBackendUnavailable]) from
// explicit rejection (wrap [ErrInvalidCredentials] or [ErrUnauthorized]).
type Backend interface {
	Login(ctx context.Context, kind LoginKind, creds Credentials) (LoginResult, error)
	CurrentPrincipal(ctx context.Context, token Credential) (*policy.Principal, error)
	Logout(ctx context.Context, token Credential) error
}

// Snapshot is an immutable copy of the session state as observed by
// guards and subscribers. All fields of one transition are committed
// together; an observer never sees a token without its principal.
type Snapshot struct {
	Principal *policy.Principal
	Token     Credential

	// Authenticated is derived: true iff both Principal and Token are set.
	Authenticated bool
	// Initialized becomes true exactly once, when bootstrap settles, and
	// never reverts.
	Initialized bool
	// Loading is true while any login or refresh operation is in flight.
	Loading bool
	// LoggingIn is true specifically during an interactive login
	// submission, so a UI can disable only the submit control.
	LoggingIn bool
	// Err is the last operation's user-facing failure message, cleared
	// on the next attempt.
	Err string

	// Generation increments on every committed transition.
	Generation uint64
}

// PrincipalID returns the principal id or "" when unauthenticated.
func (s Snapshot) PrincipalID() string {
	if s.Principal == nil {
		return ""
	}
	return s.Principal.ID
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
