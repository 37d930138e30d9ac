package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	misauth "github.com/talha-007/mis-dashboard-sub000"
	"github.com/talha-007/mis-dashboard-sub000/policy"
)

var testRoutes = Routes{
	SignIn:               "/sign-in",
	Unauthorized:         "/unauthorized",
	SubscriptionRequired: "/subscription-required",
}

func authedSnapshot(role policy.Role, sub policy.SubscriptionStatus, perms ...policy.Permission) misauth.Snapshot {
	return misauth.Snapshot{
		Principal: &policy.Principal{
			ID:           "p1",
			Role:         role,
			Permissions:  policy.NewPermissionSet(perms...),
			Subscription: sub,
		},
		Token:         "t1",
		Authenticated: true,
		Initialized:   true,
	}
}

func TestProtectedPendingBeforeInitialized(t *testing.T) {
	g := NewGuards(testRoutes)

	d := g.Protected(misauth.Snapshot{}, "/dashboard")
	if d.Kind != Pending {
		t.Fatalf("expected Pending before bootstrap, got %v", d.Kind)
	}
}

func TestProtectedPendingWhileLoginInFlight(t *testing.T) {
	g := NewGuards(testRoutes)

	snap := misauth.Snapshot{Initialized: true, Loading: true, LoggingIn: true}
	d := g.Protected(snap, "/dashboard")
	if d.Kind != Pending {
		t.Fatalf("expected Pending during an in-flight login, got %v", d.Kind)
	}
}

func TestProtectedRedirectsWithFrom(t *testing.T) {
	g := NewGuards(testRoutes)

	snap := misauth.Snapshot{Initialized: true}
	d := g.Protected(snap, "/bank/loans/42")
	if d.Kind != Redirect {
		t.Fatalf("expected Redirect, got %v", d.Kind)
	}
	if d.Target != "/sign-in" {
		t.Fatalf("unexpected target %q", d.Target)
	}
	if d.From != "/bank/loans/42" {
		t.Fatalf("expected attempted route to be preserved, got %q", d.From)
	}
}

func TestProtectedAllowsAuthenticated(t *testing.T) {
	g := NewGuards(testRoutes)

	d := g.Protected(authedSnapshot(policy.RoleCustomer, policy.SubscriptionNone), "/portal")
	if d.Kind != Allow {
		t.Fatalf("expected Allow, got %v", d.Kind)
	}
}

func TestSubscriptionGateAppliesOnlyToBankAdmins(t *testing.T) {
	g := NewGuards(testRoutes)

	cases := []struct {
		name string
		snap misauth.Snapshot
		want DecisionKind
	}{
		{"bank admin without subscription", authedSnapshot(policy.RoleBankAdmin, policy.SubscriptionNone), Redirect},
		{"bank admin subscription required", authedSnapshot(policy.RoleBankAdmin, policy.SubscriptionRequired), Redirect},
		{"bank admin active", authedSnapshot(policy.RoleBankAdmin, policy.SubscriptionActive), Allow},
		{"super admin without subscription", authedSnapshot(policy.RoleSuperAdmin, policy.SubscriptionNone), Allow},
		{"customer without subscription", authedSnapshot(policy.RoleCustomer, policy.SubscriptionNone), Allow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := g.Subscription(tc.snap, "/dashboard")
			if d.Kind != tc.want {
				t.Fatalf("got %v, want %v", d.Kind, tc.want)
			}
			if tc.want == Redirect && d.Target != "/subscription-required" {
				t.Fatalf("unexpected redirect target %q", d.Target)
			}
		})
	}
}

func TestSubscriptionGateSkipsOwnPage(t *testing.T) {
	g := NewGuards(testRoutes)
	lapsed := authedSnapshot(policy.RoleBankAdmin, policy.SubscriptionRequired)

	if d := g.Subscription(lapsed, "/subscription-required"); d.Kind != Allow {
		t.Fatalf("the subscription page itself must stay reachable, got %+v", d)
	}

	d := g.Subscription(lapsed, "/bank/dashboard")
	if d.Kind != Redirect || d.From != "/bank/dashboard" {
		t.Fatalf("expected redirect preserving origin, got %+v", d)
	}
}

func TestRoleVariantSkipsPendingDance(t *testing.T) {
	g := NewGuards(testRoutes)
	req := Requirement{Role: policy.RoleSuperAdmin}

	// Even an uninitialized snapshot gets a definite answer.
	if d := g.Role(misauth.Snapshot{}, req); d.Kind != Redirect || d.Target != "/unauthorized" {
		t.Fatalf("expected unauthorized redirect, got %+v", d)
	}

	super := authedSnapshot(policy.RoleSuperAdmin, policy.SubscriptionNone)
	if d := g.Role(super, req); d.Kind != Allow {
		t.Fatalf("expected Allow, got %v", d.Kind)
	}
}

func TestRoleMiddlewareFallback(t *testing.T) {
	src := staticSource{snap: authedSnapshot(policy.RoleCustomer, policy.SubscriptionNone)}
	fallback := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mw := Role(src, testRoutes, Requirement{Role: policy.RoleSuperAdmin}, fallback)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/widget", nil)
	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run for the wrong role")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected fallback response, got %d", rec.Code)
	}
}

func TestRoleOnlyConjunctive(t *testing.T) {
	g := NewGuards(testRoutes)
	req := Requirement{Role: policy.RoleBankAdmin, Permission: "loans.approve"}

	approver := authedSnapshot(policy.RoleBankAdmin, policy.SubscriptionActive, "loans.approve")
	if d := g.RoleOnly(approver, "/bank/loans", req); d.Kind != Allow {
		t.Fatalf("expected Allow for matching role and permission, got %v", d.Kind)
	}

	viewer := authedSnapshot(policy.RoleBankAdmin, policy.SubscriptionActive, "loans.view")
	if d := g.RoleOnly(viewer, "/bank/loans", req); d.Kind != Redirect || d.Target != "/unauthorized" {
		t.Fatalf("expected unauthorized redirect for missing permission, got %+v", d)
	}

	super := authedSnapshot(policy.RoleSuperAdmin, policy.SubscriptionNone, "loans.approve")
	if d := g.RoleOnly(super, "/bank/loans", req); d.Kind != Redirect || d.Target != "/unauthorized" {
		t.Fatalf("expected unauthorized redirect for wrong role, got %+v", d)
	}
}

func TestRoleOnlySubscriptionBeatsRole(t *testing.T) {
	g := NewGuards(testRoutes)
	req := Requirement{Role: policy.RoleBankAdmin}

	lapsed := authedSnapshot(policy.RoleBankAdmin, policy.SubscriptionRequired)
	d := g.RoleOnly(lapsed, "/bank/loans", req)
	if d.Kind != Redirect || d.Target != "/subscription-required" {
		t.Fatalf("subscription gate must run before the role check, got %+v", d)
	}
}

func TestMultiRoleDisjunctive(t *testing.T) {
	g := NewGuards(testRoutes)
	req := Requirement{
		Roles:       []policy.Role{policy.RoleSuperAdmin},
		Permissions: []policy.Permission{"reports.view"},
	}

	super := authedSnapshot(policy.RoleSuperAdmin, policy.SubscriptionNone)
	if d := g.MultiRole(super, "/reports", req); d.Kind != Allow {
		t.Fatalf("role match must suffice, got %v", d.Kind)
	}

	reporter := authedSnapshot(policy.RoleCustomer, policy.SubscriptionNone, "reports.view")
	if d := g.MultiRole(reporter, "/reports", req); d.Kind != Allow {
		t.Fatalf("permission match must suffice, got %v", d.Kind)
	}

	neither := authedSnapshot(policy.RoleCustomer, policy.SubscriptionNone)
	if d := g.MultiRole(neither, "/reports", req); d.Kind != Redirect || d.Target != "/unauthorized" {
		t.Fatalf("expected unauthorized redirect, got %+v", d)
	}

	empty := Requirement{}
	if d := g.MultiRole(super, "/reports", empty); d.Kind != Redirect {
		t.Fatalf("empty requirement must admit nobody, got %v", d.Kind)
	}
}

type staticSource struct {
	snap misauth.Snapshot
}

func (s staticSource) Current() misauth.Snapshot { return s.snap }

func TestMiddlewareRedirectCarriesFromParam(t *testing.T) {
	src := staticSource{snap: misauth.Snapshot{Initialized: true}}
	mw := Protected(src, testRoutes)

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run on redirect")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/bank/loans/42", nil)
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/sign-in?from=%2Fbank%2Floans%2F42" {
		t.Fatalf("unexpected location %q", loc)
	}
}

type recordingSource struct {
	staticSource
	routes  []string
	targets []string
}

func (s *recordingSource) RecordDenial(route, target string) {
	s.routes = append(s.routes, route)
	s.targets = append(s.targets, target)
}

func TestMiddlewareReportsDenials(t *testing.T) {
	src := &recordingSource{staticSource: staticSource{snap: misauth.Snapshot{Initialized: true}}}
	mw := Protected(src, testRoutes)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/bank/loans", nil)
	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)

	if len(src.routes) != 1 || src.routes[0] != "/bank/loans" {
		t.Fatalf("unexpected recorded routes %v", src.routes)
	}
	if src.targets[0] != testRoutes.SignIn {
		t.Fatalf("unexpected recorded target %q", src.targets[0])
	}

	// Pending is not a denial.
	src.routes = nil
	src.snap = misauth.Snapshot{}
	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(httptest.NewRecorder(), req)
	if len(src.routes) != 0 {
		t.Fatalf("pending recorded as denial: %v", src.routes)
	}
}

func TestMiddlewarePendingAnswers503(t *testing.T) {
	src := staticSource{snap: misauth.Snapshot{}}
	mw := Protected(src, testRoutes)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run while pending")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestMiddlewareAllowInjectsSnapshot(t *testing.T) {
	snap := authedSnapshot(policy.RoleSuperAdmin, policy.SubscriptionNone)
	mw := Protected(staticSource{snap: snap}, testRoutes)

	var seen misauth.Snapshot
	var ok bool
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, ok = SnapshotFromContext(r.Context())
	})).ServeHTTP(rec, req)

	if !ok {
		t.Fatal("snapshot missing from request context")
	}
	if seen.PrincipalID() != "p1" {
		t.Fatalf("unexpected principal %q", seen.PrincipalID())
	}
}
