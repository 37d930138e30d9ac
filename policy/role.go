package policy

import (
	"encoding/json"
	"fmt"
)

// Role identifies one of the closed set of principal kinds known to the
// console. The zero value is RoleUnknown and satisfies no requirement.
type Role uint8

const (
	// RoleUnknown is the zero Role. It never satisfies a role requirement.
	RoleUnknown Role = iota
	// RoleSuperAdmin is the platform operator role.
	RoleSuperAdmin
	// RoleBankAdmin is the per-bank administrator role. It is the only
	// role subject to subscription-standing gating.
	RoleBankAdmin
	// RoleCustomer is the borrower-facing customer role.
	RoleCustomer
)

const (
	roleStringSuperAdmin = "super-administrator"
	roleStringBankAdmin  = "bank-administrator"
	roleStringCustomer   = "customer"
)

// String describes the string operation and its observable behavior.
//
// String does not mutate shared global state and can be used concurrently.
func (r Role) String() string {
	switch r {
	case RoleSuperAdmin:
		return roleStringSuperAdmin
	case RoleBankAdmin:
		return roleStringBankAdmin
	case RoleCustomer:
		return roleStringCustomer
	default:
		return "unknown"
	}
}

// ParseRole maps a wire-format role string onto the closed union. The
// second return value reports whether the string named a known role.
func ParseRole(s string) (Role, bool) {
	switch s {
	case roleStringSuperAdmin:
		return RoleSuperAdmin, true
	case roleStringBankAdmin:
		return RoleBankAdmin, true
	case roleStringCustomer:
		return RoleCustomer, true
	default:
		return RoleUnknown, false
	}
}

// MarshalJSON encodes the role in its wire-format string form.
func (r Role) MarshalJSON() ([]byte, error) {
	if r == RoleUnknown {
		return nil, fmt.Errorf("policy: cannot marshal unknown role")
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a wire-format role string. Unknown role strings
// are an error so that corrupt persisted principals are rejected at the
// storage boundary instead of producing a principal with no role.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseRole(s)
	if !ok {
		return fmt.Errorf("policy: unknown role %q", s)
	}
	*r = parsed
	return nil
}

// SubscriptionStatus is the billing standing attached to a principal.
// It is meaningful only for RoleBankAdmin; other roles carry whatever
// the backend sent (usually the zero value) and are never gated on it.
type SubscriptionStatus uint8

const (
	// SubscriptionNone means no subscription record exists.
	SubscriptionNone SubscriptionStatus = iota
	// SubscriptionActive means the subscription is in good standing.
	SubscriptionActive
	// SubscriptionRequired means a subscription must be established or
	// renewed before the dashboard unlocks.
	SubscriptionRequired
)

const (
	subscriptionStringNone     = "none"
	subscriptionStringActive   = "active"
	subscriptionStringRequired = "required"
)

// String describes the string operation and its observable behavior.
//
// String does not mutate shared global state and can be used concurrently.
func (s SubscriptionStatus) String() string {
	switch s {
	case SubscriptionActive:
		return subscriptionStringActive
	case SubscriptionRequired:
		return subscriptionStringRequired
	default:
		return subscriptionStringNone
	}
}

// ParseSubscriptionStatus maps a wire-format standing string onto the
// enum. Unknown strings map to SubscriptionNone rather than failing:
// standing is advisory for every role except bank administrators, and a
// bank administrator with an unreadable standing must still be able to
// reach the subscription page.
func ParseSubscriptionStatus(s string) SubscriptionStatus {
	switch s {
	case subscriptionStringActive:
		return SubscriptionActive
	case subscriptionStringRequired:
		return SubscriptionRequired
	default:
		return SubscriptionNone
	}
}

// MarshalJSON encodes the standing in its wire-format string form.
func (s SubscriptionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a wire-format standing string.
func (s *SubscriptionStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseSubscriptionStatus(raw)
	return nil
}
