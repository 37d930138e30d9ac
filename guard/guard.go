package guard

import (
	misauth "github.com/talha-007/mis-dashboard-sub000"
	"github.com/talha-007/mis-dashboard-sub000/policy"
)

// DecisionKind defines a public type used by misauth APIs.
//
// DecisionKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DecisionKind uint8

const (
	// Allow is an exported constant or variable used by the session engine.
	Allow DecisionKind = iota
	// Pending is an exported constant or variable used by the session engine.
	Pending
	// Redirect is an exported constant or variable used by the session engine.
	Redirect
)

// Decision is the outcome of evaluating a guard for one navigation.
// Redirect decisions carry the target route and, for sign-in targets,
// the route the visitor was trying to reach.
type Decision struct {
	Kind   DecisionKind
	Target string
	From   string
}

func allow() Decision {
	return Decision{Kind: Allow}
}

func pending() Decision {
	return Decision{Kind: Pending}
}

func redirect(target, from string) Decision {
	return Decision{Kind: Redirect, Target: target, From: from}
}

// Routes names the destinations guards redirect to.
type Routes struct {
	SignIn               string
	Unauthorized         string
	SubscriptionRequired string
}

// Requirement describes what a role-gated route demands of the
// principal. Role and Permission, when both set, are conjunctive: the
// principal must match the role and hold the permission. The Roles and
// Permissions lists are disjunctive: any single match grants access.
type Requirement struct {
	Role       policy.Role
	Permission policy.Permission

	Roles       []policy.Role
	Permissions []policy.Permission
}

// Guards defines a public type used by misauth APIs.
//
// Guards instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Guards struct {
	routes Routes
}

// NewGuards creates a guard evaluator over the given redirect routes.
func NewGuards(routes Routes) Guards {
	return Guards{routes: routes}
}

// RoutesFromConfig builds guard routes from the engine configuration.
func RoutesFromConfig(cfg misauth.Config) Routes {
	return Routes{
		SignIn:               cfg.Routes.SignIn,
		Unauthorized:         cfg.Routes.Unauthorized,
		SubscriptionRequired: cfg.Routes.SubscriptionRequired,
	}
}

// Protected admits any authenticated principal. Until bootstrap has
// settled, and while a login attempt is in flight, the decision is
// Pending so no redirect fires off transient state; an unauthenticated
// visitor is redirected to sign-in with the attempted route preserved.
func (g Guards) Protected(snap misauth.Snapshot, from string) Decision {
	if !snap.Initialized || snap.Loading {
		return pending()
	}
	if !snap.Authenticated || snap.Principal == nil {
		return redirect(g.routes.SignIn, from)
	}
	return allow()
}

// Subscription layers the subscription gate over Protected: a bank
// administrator whose subscription is not active is routed to the
// subscription-required page, carrying the route they came from. The
// gate never fires on the subscription page itself, so the operator can
// reach the screen that resolves their standing. Other roles pass
// untouched.
func (g Guards) Subscription(snap misauth.Snapshot, from string) Decision {
	if d := g.Protected(snap, from); d.Kind != Allow {
		return d
	}
	if policy.NeedsSubscriptionGate(snap.Principal) && from != g.routes.SubscriptionRequired {
		return redirect(g.routes.SubscriptionRequired, from)
	}
	return allow()
}

// RoleOnly admits a principal matching req.Role and, when set, holding
// req.Permission. The subscription gate applies before the role check.
func (g Guards) RoleOnly(snap misauth.Snapshot, from string, req Requirement) Decision {
	if d := g.Subscription(snap, from); d.Kind != Allow {
		return d
	}

	p := snap.Principal
	if !policy.SatisfiesRole(p, req.Role) {
		return redirect(g.routes.Unauthorized, "")
	}
	if req.Permission != "" && !policy.SatisfiesPermission(p, req.Permission) {
		return redirect(g.routes.Unauthorized, "")
	}
	return allow()
}

// Role evaluates req against the present snapshot with no
// initialization dance: no Pending state and no sign-in redirect, just
// admitted or not. It suits fragments rendered inside an already
// Protected layout, where unauthenticated and uninitialized states were
// handled one level up.
func (g Guards) Role(snap misauth.Snapshot, req Requirement) Decision {
	p := snap.Principal
	if p == nil {
		return redirect(g.routes.Unauthorized, "")
	}
	if !policy.SatisfiesRole(p, req.Role) {
		return redirect(g.routes.Unauthorized, "")
	}
	if req.Permission != "" && !policy.SatisfiesPermission(p, req.Permission) {
		return redirect(g.routes.Unauthorized, "")
	}
	return allow()
}

// MultiRole admits a principal matching any of req.Roles or holding any
// of req.Permissions. An empty requirement admits nobody.
func (g Guards) MultiRole(snap misauth.Snapshot, from string, req Requirement) Decision {
	if d := g.Subscription(snap, from); d.Kind != Allow {
		return d
	}

	p := snap.Principal
	if policy.SatisfiesAnyRole(p, req.Roles...) {
		return allow()
	}
	if policy.SatisfiesAnyPermission(p, req.Permissions...) {
		return allow()
	}
	return redirect(g.routes.Unauthorized, "")
}
