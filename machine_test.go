package misauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/talha-007/mis-dashboard-sub000/policy"
	"github.com/talha-007/mis-dashboard-sub000/realtime"
	"github.com/talha-007/mis-dashboard-sub000/session"
)

type mockBackend struct {
	mu sync.Mutex

	loginFn func(kind LoginKind, creds Credentials) (LoginResult, error)
	meFn    func(token Credential) (*policy.Principal, error)

	loginCalls  int
	meCalls     int
	logoutCalls int
}

func (b *mockBackend) Login(_ context.Context, kind LoginKind, creds Credentials) (LoginResult, error) {
	b.mu.Lock()
	b.loginCalls++
	fn := b.loginFn
	b.mu.Unlock()
	if fn == nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	return fn(kind, creds)
}

func (b *mockBackend) CurrentPrincipal(_ context.Context, token Credential) (*policy.Principal, error) {
	b.mu.Lock()
	b.meCalls++
	fn := b.meFn
	b.mu.Unlock()
	if fn == nil {
		return nil, ErrUnauthorized
	}
	return fn(token)
}

func (b *mockBackend) Logout(context.Context, Credential) error {
	b.mu.Lock()
	b.logoutCalls++
	b.mu.Unlock()
	return nil
}

func (b *mockBackend) calls() (login, me, logout int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loginCalls, b.meCalls, b.logoutCalls
}

func testPrincipal(id string) *policy.Principal {
	return &policy.Principal{
		ID:           id,
		Role:         policy.RoleBankAdmin,
		Permissions:  policy.NewPermissionSet("loans.view"),
		Subscription: policy.SubscriptionActive,
	}
}

func seedStore(t *testing.T, store *session.MemoryStore, token string, p *policy.Principal) {
	t.Helper()
	store.SeedEntry(session.KeyCredential, []byte(token))
	if p != nil {
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("marshal principal: %v", err)
		}
		store.SeedEntry(session.KeyPrincipal, data)
	}
}

func buildMachine(t *testing.T, store session.Store, backend Backend, channel realtime.Channel) *Machine {
	t.Helper()
	b := New().
		WithStore(store).
		WithBackend(backend).
		WithMetricsEnabled(true)
	if channel != nil {
		b = b.WithChannel(channel)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func TestBootstrapRestoresCachedSessionWithoutNetwork(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", testPrincipal("p1"))
	backend := &mockBackend{}
	channel := realtime.NewMemoryChannel()

	m := buildMachine(t, store, backend, channel)
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	snap := m.Current()
	if !snap.Authenticated || !snap.Initialized {
		t.Fatalf("expected restored session, got %+v", snap)
	}
	if snap.Token != "t1" || snap.PrincipalID() != "p1" {
		t.Fatalf("unexpected restore %q %q", snap.Token, snap.PrincipalID())
	}

	login, me, logout := backend.calls()
	if login+me+logout != 0 {
		t.Fatalf("restore must not touch the network, got login=%d me=%d logout=%d", login, me, logout)
	}

	if channel.ConnectCalls() != 1 {
		t.Fatalf("expected one channel connect, got %d", channel.ConnectCalls())
	}
	if n := channel.SentCount(realtime.EventSubscribeNotifications); n != 1 {
		t.Fatalf("expected one subscribe payload, got %d", n)
	}
	if got := m.Metrics().Value(MetricBootstrapRestored); got != 1 {
		t.Fatalf("expected restored metric 1, got %d", got)
	}
}

func TestBootstrapEmptyStoreSettlesSignedOut(t *testing.T) {
	m := buildMachine(t, session.NewMemoryStore(), &mockBackend{}, nil)
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	snap := m.Current()
	if snap.Authenticated {
		t.Fatal("empty store must not authenticate")
	}
	if !snap.Initialized {
		t.Fatal("bootstrap must settle even when empty")
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", testPrincipal("p1"))
	m := buildMachine(t, store, &mockBackend{}, nil)

	_ = m.Bootstrap(context.Background())
	gen := m.Current().Generation
	_ = m.Bootstrap(context.Background())

	if m.Current().Generation != gen {
		t.Fatal("second bootstrap must be a no-op")
	}
}

func TestBootstrapTokenOnlyRevalidates(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", nil)
	backend := &mockBackend{
		meFn: func(token Credential) (*policy.Principal, error) {
			if token != "t1" {
				return nil, ErrUnauthorized
			}
			return testPrincipal("p1"), nil
		},
	}

	m := buildMachine(t, store, backend, nil)
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	snap := m.Current()
	if !snap.Authenticated || snap.PrincipalID() != "p1" {
		t.Fatalf("expected revalidated session, got %+v", snap)
	}

	// The recovered principal must be persisted for the next visit.
	rec, err := store.Load(context.Background())
	if err != nil || rec.Principal == nil || rec.Principal.ID != "p1" {
		t.Fatalf("expected persisted principal, got %+v err=%v", rec, err)
	}
}

func TestBootstrapRejectionEvictsCachedSession(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", nil)
	backend := &mockBackend{
		meFn: func(Credential) (*policy.Principal, error) {
			return nil, ErrUnauthorized
		},
	}

	m := buildMachine(t, store, backend, nil)
	_ = m.Bootstrap(context.Background())

	snap := m.Current()
	if snap.Authenticated || !snap.Initialized {
		t.Fatalf("rejection must settle signed out, got %+v", snap)
	}

	rec, _ := store.Load(context.Background())
	if !rec.Empty() {
		t.Fatalf("rejected session must be cleared from the store, got %+v", rec)
	}
}

func TestBootstrapTransportFailureDoesNotEvict(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", nil)
	backend := &mockBackend{
		meFn: func(Credential) (*policy.Principal, error) {
			return nil, fmt.Errorf("%w: connection refused", ErrBackendUnavailable)
		},
	}

	m := buildMachine(t, store, backend, nil)
	err := m.Bootstrap(context.Background())
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}

	snap := m.Current()
	if !snap.Initialized {
		t.Fatal("bootstrap must settle despite the failure")
	}
	if snap.Err == "" {
		t.Fatal("expected the failure to be surfaced")
	}

	rec, _ := store.Load(context.Background())
	if rec.Token != "t1" {
		t.Fatalf("transport failure must not clear the store, got %+v", rec)
	}
}

func TestLoginSuccessCommitsAtomically(t *testing.T) {
	store := session.NewMemoryStore()
	backend := &mockBackend{
		loginFn: func(kind LoginKind, creds Credentials) (LoginResult, error) {
			if kind != LoginBankAdmin || creds.BankCode != "BK-7" {
				return LoginResult{}, ErrInvalidCredentials
			}
			return LoginResult{Token: "t2", Principal: testPrincipal("p2")}, nil
		},
	}
	channel := realtime.NewMemoryChannel()
	m := buildMachine(t, store, backend, channel)
	_ = m.Bootstrap(context.Background())

	var observed []Snapshot
	unsub := m.Subscribe(func(s Snapshot) { observed = append(observed, s) })
	defer unsub()

	snap, err := m.Login(context.Background(), LoginBankAdmin, Credentials{
		Email:    "ops@example.test",
		Password: "secret",
		BankCode: "BK-7",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !snap.Authenticated || snap.Token != "t2" || snap.PrincipalID() != "p2" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Loading || snap.LoggingIn || snap.Err != "" {
		t.Fatalf("flags must clear on success, got %+v", snap)
	}

	// No observer may ever see a token without its principal.
	for _, s := range observed {
		if s.Authenticated != (s.Principal != nil && s.Token != "") {
			t.Fatalf("derived invariant violated in %+v", s)
		}
	}

	rec, _ := store.Load(context.Background())
	if rec.Token != "t2" || rec.Principal == nil || rec.Principal.ID != "p2" {
		t.Fatalf("session not persisted, got %+v", rec)
	}

	if channel.ConnectCalls() != 1 {
		t.Fatalf("expected channel bind after login, got %d connects", channel.ConnectCalls())
	}
}

func TestLoginFailureLeavesExistingSessionIntact(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", testPrincipal("p1"))
	backend := &mockBackend{
		loginFn: func(LoginKind, Credentials) (LoginResult, error) {
			return LoginResult{}, ErrInvalidCredentials
		},
	}
	m := buildMachine(t, store, backend, nil)
	_ = m.Bootstrap(context.Background())

	snap, err := m.Login(context.Background(), LoginCustomer, Credentials{})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if !snap.Authenticated || snap.Token != "t1" {
		t.Fatalf("failed login must leave the previous session, got %+v", snap)
	}
	if snap.Err == "" {
		t.Fatal("expected a user-facing failure message")
	}
	if snap.Loading || snap.LoggingIn {
		t.Fatal("flags must clear on failure")
	}
}

func TestLoginInvalidKindRejected(t *testing.T) {
	m := buildMachine(t, session.NewMemoryStore(), &mockBackend{}, nil)
	_ = m.Bootstrap(context.Background())

	if _, err := m.Login(context.Background(), LoginKind(42), Credentials{}); !errors.Is(err, ErrLoginKindInvalid) {
		t.Fatalf("expected ErrLoginKindInvalid, got %v", err)
	}
}

func TestStaleLoginCompletionDiscardedAfterLogout(t *testing.T) {
	store := session.NewMemoryStore()
	started := make(chan struct{})
	release := make(chan struct{})
	backend := &mockBackend{
		loginFn: func(LoginKind, Credentials) (LoginResult, error) {
			close(started)
			<-release
			return LoginResult{Token: "t-stale", Principal: testPrincipal("p-stale")}, nil
		},
	}
	m := buildMachine(t, store, backend, nil)
	_ = m.Bootstrap(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := m.Login(context.Background(), LoginCustomer, Credentials{})
		done <- err
	}()
	<-started

	// Logout while the login is still in flight, then let it complete.
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	close(release)

	if err := <-done; !errors.Is(err, ErrAttemptSuperseded) {
		t.Fatalf("expected ErrAttemptSuperseded, got %v", err)
	}

	snap := m.Current()
	if snap.Authenticated || snap.Token != "" {
		t.Fatalf("stale completion must not resurrect the session, got %+v", snap)
	}
	rec, _ := store.Load(context.Background())
	if !rec.Empty() {
		t.Fatalf("stale completion must not repopulate the store, got %+v", rec)
	}
	if got := m.Metrics().Value(MetricLoginStaleDiscarded); got != 1 {
		t.Fatalf("expected stale discard metric 1, got %d", got)
	}
}

func TestSecondLoginSupersedesFirst(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	var once sync.Once
	backend := &mockBackend{}
	backend.loginFn = func(_ LoginKind, creds Credentials) (LoginResult, error) {
		if creds.Email == "first@example.test" {
			once.Do(func() { close(firstStarted) })
			<-releaseFirst
			return LoginResult{Token: "t-first", Principal: testPrincipal("p-first")}, nil
		}
		return LoginResult{Token: "t-second", Principal: testPrincipal("p-second")}, nil
	}

	m := buildMachine(t, session.NewMemoryStore(), backend, nil)
	_ = m.Bootstrap(context.Background())

	firstDone := make(chan error, 1)
	go func() {
		_, err := m.Login(context.Background(), LoginCustomer, Credentials{Email: "first@example.test"})
		firstDone <- err
	}()
	<-firstStarted

	if _, err := m.Login(context.Background(), LoginCustomer, Credentials{Email: "second@example.test"}); err != nil {
		t.Fatalf("second login: %v", err)
	}
	close(releaseFirst)

	if err := <-firstDone; !errors.Is(err, ErrAttemptSuperseded) {
		t.Fatalf("expected first completion superseded, got %v", err)
	}

	snap := m.Current()
	if snap.Token != "t-second" || snap.PrincipalID() != "p-second" {
		t.Fatalf("second login must win, got %+v", snap)
	}
}

func TestLogoutClearsEverythingAndSurvivesBackendFailure(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", testPrincipal("p1"))
	backend := &mockBackend{}
	channel := realtime.NewMemoryChannel()
	m := buildMachine(t, store, backend, channel)
	_ = m.Bootstrap(context.Background())

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	snap := m.Current()
	if snap.Authenticated || snap.Token != "" || snap.Principal != nil {
		t.Fatalf("logout must clear the session, got %+v", snap)
	}
	if !snap.Initialized {
		t.Fatal("logout must not reset Initialized")
	}

	rec, _ := store.Load(context.Background())
	if !rec.Empty() {
		t.Fatalf("logout must clear the store, got %+v", rec)
	}

	if channel.DisconnectCalls() != 1 {
		t.Fatalf("expected channel release on logout, got %d", channel.DisconnectCalls())
	}
	if _, _, logouts := backend.calls(); logouts != 1 {
		t.Fatalf("expected backend logout call, got %d", logouts)
	}
}

func TestLogoutThenBootstrapComesUpSignedOut(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", testPrincipal("p1"))
	backend := &mockBackend{}

	m1 := buildMachine(t, store, backend, nil)
	_ = m1.Bootstrap(context.Background())
	_ = m1.Logout(context.Background())

	// A fresh machine over the same store models the next visit.
	m2 := buildMachine(t, store, backend, nil)
	_ = m2.Bootstrap(context.Background())

	snap := m2.Current()
	if snap.Authenticated {
		t.Fatalf("session must not survive logout across visits, got %+v", snap)
	}
}

func TestRefreshPrincipalNeverDeauthenticates(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", testPrincipal("p1"))
	backend := &mockBackend{
		meFn: func(Credential) (*policy.Principal, error) {
			return nil, ErrUnauthorized
		},
	}
	m := buildMachine(t, store, backend, nil)
	_ = m.Bootstrap(context.Background())

	snap, err := m.RefreshPrincipal(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected rejection surfaced, got %v", err)
	}
	if !snap.Authenticated || snap.Token != "t1" {
		t.Fatalf("refresh failure must not deauthenticate, got %+v", snap)
	}
	if snap.Err == "" {
		t.Fatal("refresh failure must surface through the snapshot error")
	}
	if snap.Loading {
		t.Fatal("loading flag must clear after refresh settles")
	}
}

func TestRefreshFailureErrorClearsOnNextAttempt(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", testPrincipal("p1"))
	fail := true
	backend := &mockBackend{
		meFn: func(Credential) (*policy.Principal, error) {
			if fail {
				return nil, ErrBackendUnavailable
			}
			return testPrincipal("p1"), nil
		},
	}
	m := buildMachine(t, store, backend, nil)
	_ = m.Bootstrap(context.Background())

	snap, _ := m.RefreshPrincipal(context.Background())
	if snap.Err == "" {
		t.Fatal("transport failure must set the snapshot error")
	}

	fail = false
	snap, err := m.RefreshPrincipal(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if snap.Err != "" {
		t.Fatalf("stale error must clear on the next attempt, got %q", snap.Err)
	}
}

func TestRefreshPrincipalPicksUpChanges(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", testPrincipal("p1"))
	updated := testPrincipal("p1")
	updated.Subscription = policy.SubscriptionRequired
	backend := &mockBackend{
		meFn: func(Credential) (*policy.Principal, error) {
			return updated, nil
		},
	}
	m := buildMachine(t, store, backend, nil)
	_ = m.Bootstrap(context.Background())

	snap, err := m.RefreshPrincipal(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if snap.Principal.Subscription != policy.SubscriptionRequired {
		t.Fatalf("expected refreshed subscription, got %v", snap.Principal.Subscription)
	}
}

func TestVerifyRevokesOnRejection(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", testPrincipal("p1"))
	backend := &mockBackend{
		meFn: func(Credential) (*policy.Principal, error) {
			return nil, ErrUnauthorized
		},
	}
	m := buildMachine(t, store, backend, nil)
	_ = m.Bootstrap(context.Background())

	snap, err := m.Verify(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if snap.Authenticated {
		t.Fatalf("verify rejection must revoke, got %+v", snap)
	}
	rec, _ := store.Load(context.Background())
	if !rec.Empty() {
		t.Fatalf("revoked session must be cleared, got %+v", rec)
	}
	if got := m.Metrics().Value(MetricSessionRevoked); got != 1 {
		t.Fatalf("expected revoked metric 1, got %d", got)
	}
}

func TestVerifyTransportFailureChangesNothing(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", testPrincipal("p1"))
	backend := &mockBackend{
		meFn: func(Credential) (*policy.Principal, error) {
			return nil, fmt.Errorf("%w: timeout", ErrBackendUnavailable)
		},
	}
	m := buildMachine(t, store, backend, nil)
	_ = m.Bootstrap(context.Background())
	before := m.Current()

	_, err := m.Verify(context.Background())
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	after := m.Current()
	if !after.Authenticated || after.Token != before.Token {
		t.Fatalf("transport failure must not change the session, got %+v", after)
	}
}

func TestRotateTokenHotSwapsWithoutReconnect(t *testing.T) {
	store := session.NewMemoryStore()
	seedStore(t, store, "t1", testPrincipal("p1"))
	channel := realtime.NewMemoryChannel()
	m := buildMachine(t, store, &mockBackend{}, channel)
	_ = m.Bootstrap(context.Background())

	snap, err := m.RotateToken(context.Background(), "t2")
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if snap.Token != "t2" || !snap.Authenticated {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if channel.ConnectCalls() != 1 || channel.DisconnectCalls() != 0 {
		t.Fatalf("rotation must not cycle the channel, connects=%d disconnects=%d",
			channel.ConnectCalls(), channel.DisconnectCalls())
	}

	rec, _ := store.Load(context.Background())
	if rec.Token != "t2" {
		t.Fatalf("rotated token must be persisted, got %q", rec.Token)
	}
}

func TestSubscribeUnsubscribeStopsDelivery(t *testing.T) {
	m := buildMachine(t, session.NewMemoryStore(), &mockBackend{}, nil)

	var calls int
	unsub := m.Subscribe(func(Snapshot) { calls++ })
	_ = m.Bootstrap(context.Background())
	if calls == 0 {
		t.Fatal("expected at least one notification")
	}

	unsub()
	seen := calls
	_ = m.Logout(context.Background())
	if calls != seen {
		t.Fatal("unsubscribed callback must not fire")
	}
}
