package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/talha-007/mis-dashboard-sub000/policy"
)

// ErrStoreUnavailable is returned when the storage backend cannot be
// reached. Corrupt or missing entries never produce it.
var ErrStoreUnavailable = errors.New("session store unavailable")

const (
	// KeyCredential is the storage key holding the opaque bearer credential.
	KeyCredential = "auth.credential"
	// KeyPrincipal is the storage key holding the JSON-serialized principal.
	KeyPrincipal = "auth.principal"
)

// Record is the persisted session tuple. Either field may be absent; a
// token without a principal is a valid, partially-populated record that
// the machine resolves at bootstrap.
type Record struct {
	Token     string
	Principal *policy.Principal

	// Corrupt reports that at least one stored entry existed but could
	// not be decoded and was treated as absent.
	Corrupt bool
}

// Empty reports whether the record carries neither credential nor
// principal.
func (r Record) Empty() bool {
	return r.Token == "" && r.Principal == nil
}

// Store persists and retrieves the session tuple. Implementations must
// treat unparseable entries as absent and reserve errors for backend
// unavailability.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}

// decodeRecord assembles a Record from the two raw entries. A nil slice
// means the entry is absent. Decode failures mark the record corrupt and
// drop the offending entry.
func decodeRecord(credential, principal []byte) Record {
	rec := Record{Token: string(credential)}

	if len(principal) == 0 {
		return rec
	}

	var p policy.Principal
	if err := json.Unmarshal(principal, &p); err != nil || p.ID == "" {
		rec.Corrupt = true
		return rec
	}

	rec.Principal = &p
	return rec
}

func encodePrincipal(p *policy.Principal) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}
