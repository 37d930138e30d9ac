package misauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the opaque bearer credential issued by the backend. The
// engine never verifies it; verification is the backend's job. The one
// local inspection performed is an unverified expiry read, used by the
// bootstrap staleness check.
type Credential string

// Empty reports whether no credential is held.
func (c Credential) Empty() bool {
	return c == ""
}

// ExpiresAt returns the exp claim when the credential happens to be a
// parseable JWT. Opaque credentials return ok=false and are treated as
// never-expiring by local checks.
func (c Credential) ExpiresAt() (time.Time, bool) {
	if c.Empty() {
		return time.Time{}, false
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(string(c), &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Stale reports whether the credential is a JWT whose expiry is already
// past. Opaque credentials are never stale.
func (c Credential) Stale(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	return ok && exp.Before(now)
}
