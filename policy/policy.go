package policy

// SatisfiesRole reports whether the principal holds exactly the given
// role. A nil principal or RoleUnknown requirement satisfies nothing.
func SatisfiesRole(p *Principal, role Role) bool {
	if p == nil || role == RoleUnknown {
		return false
	}
	return p.Role == role
}

// SatisfiesAnyRole reports whether the principal's role is a member of
// the given list (OR semantics within the list).
func SatisfiesAnyRole(p *Principal, roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if role != RoleUnknown && p.Role == role {
			return true
		}
	}
	return false
}

// SatisfiesPermission reports whether the principal carries the given
// permission.
func SatisfiesPermission(p *Principal, perm Permission) bool {
	if p == nil || perm == "" {
		return false
	}
	return p.Permissions.Has(perm)
}

// SatisfiesAnyPermission reports whether the principal carries at least
// one of the given permissions (OR semantics within the list).
func SatisfiesAnyPermission(p *Principal, perms ...Permission) bool {
	if p == nil {
		return false
	}
	for _, perm := range perms {
		if perm != "" && p.Permissions.Has(perm) {
			return true
		}
	}
	return false
}

// NeedsSubscriptionGate reports whether the principal must be redirected
// to the subscription-required page before reaching any dashboard route.
//
// The gate is role-scoped: it fires only for bank administrators whose
// standing is not active. Every other role passes unconditionally, even
// when its standing field is absent or carries a default value.
func NeedsSubscriptionGate(p *Principal) bool {
	if p == nil || p.Role != RoleBankAdmin {
		return false
	}
	return p.Subscription != SubscriptionActive
}
