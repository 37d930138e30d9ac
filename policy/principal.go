package policy

// Principal is the authenticated identity: who the session belongs to,
// which single role they hold, which permissions they carry, and their
// billing standing.
//
// Principal values are treated as immutable once constructed. The engine
// shares pointers to them across snapshots; nothing may mutate a
// Principal after it has been handed to the session machine.
type Principal struct {
	ID           string             `json:"id"`
	Role         Role               `json:"role"`
	Permissions  PermissionSet      `json:"permissions,omitempty"`
	Subscription SubscriptionStatus `json:"subscription_status"`
}
