package misauth

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the session engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is an exported constant or variable used by the session engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBackendUnavailable is an exported constant or variable used by the session engine.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNotAuthenticated is an exported constant or variable used by the session engine.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAttemptSuperseded is an exported constant or variable used by the session engine.
	ErrAttemptSuperseded = errors.New("attempt superseded")
	// ErrLoginKindInvalid is an exported constant or variable used by the session engine.
	ErrLoginKindInvalid = errors.New("invalid login kind")
	// ErrMachineNotReady is an exported constant or variable used by the session engine.
	ErrMachineNotReady = errors.New("machine not initialized")
)

// IsTransient reports whether err is a transport-level failure that must
// never evict an existing session, as opposed to an explicit rejection.
func IsTransient(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// IsRejection reports whether err is an explicit authentication or
// authorization rejection from the backend.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUnauthorized)
}
