package realtime

import (
	"context"
	"sync"
)

// AuthState is the slice of the session snapshot the binder reacts to.
// The engine pushes one AuthState per committed transition.
type AuthState struct {
	Authenticated bool
	Initialized   bool
	Token         string
	PrincipalID   string

	// Generation orders transitions. The engine commits under its own
	// lock but delivers to the binder outside it, so two states can
	// race here; the binder drops any state older than the last one it
	// applied. Zero disables the check.
	Generation uint64
}

func (s AuthState) active() bool {
	return s.Authenticated && s.Initialized && s.Token != ""
}

// Hooks are optional observer callbacks invoked by the binder. The
// engine wires them to its metrics and audit trail.
type Hooks struct {
	OnConnect     func()
	OnDisconnect  func()
	OnResubscribe func(principalID string)
}

// Binder drives the channel so that the connection is open exactly while
// the session is authenticated and initialized. It owns the channel's
// lifecycle handlers and releases every registration on teardown so that
// repeated login/logout cycles within one process leak nothing.
type Binder struct {
	channel Channel
	hooks   Hooks

	mu          sync.Mutex
	generation  uint64
	bound       bool
	token       string
	principalID string
	unsubs      []func()
}

// NewBinder creates a binder over the given channel.
func NewBinder(channel Channel, hooks Hooks) *Binder {
	return &Binder{
		channel: channel,
		hooks:   hooks,
	}
}

// Apply reconciles the channel against a committed session transition.
//
// Entering the authenticated state binds: updateAuth, handler
// registration, connect. Leaving it releases: disconnect plus removal of
// every handler. A token change while bound hot-swaps credentials
// without a disconnect/connect cycle; a principal change while bound
// releases and rebinds, because the subscribe handlers carry the
// principal id they were registered with.
func (b *Binder) Apply(ctx context.Context, s AuthState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.Generation < b.generation {
		return nil
	}
	b.generation = s.Generation

	switch {
	case s.active() && !b.bound:
		return b.bindLocked(ctx, s)
	case s.active() && b.bound:
		if s.PrincipalID != b.principalID {
			b.releaseLocked()
			return b.bindLocked(ctx, s)
		}
		if s.Token != b.token {
			b.channel.UpdateAuth(s.Token)
			b.token = s.Token
		}
		return nil
	case !s.active() && b.bound:
		b.releaseLocked()
		return nil
	default:
		return nil
	}
}

// Close releases the binding if one is active.
func (b *Binder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bound {
		b.releaseLocked()
	}
}

func (b *Binder) bindLocked(ctx context.Context, s AuthState) error {
	b.channel.UpdateAuth(s.Token)

	// The subscribe signal captures the principal id by value so the
	// handlers never need the binder lock: connect fires synchronously
	// from inside Connect below, while this lock is still held.
	principalID := s.PrincipalID
	resubscribe := func([]byte) {
		_ = b.channel.Emit(context.Background(), EventSubscribeNotifications, SubscribePayload{PrincipalID: principalID})
		if h := b.hooks.OnResubscribe; h != nil {
			h(principalID)
		}
	}

	var connectOnce sync.Once
	connectUnsub := b.channel.On(EventConnect, func(data []byte) {
		connectOnce.Do(func() { resubscribe(data) })
	})
	reconnectUnsub := b.channel.On(EventReconnect, resubscribe)
	b.unsubs = []func(){connectUnsub, reconnectUnsub}

	if err := b.channel.Connect(ctx); err != nil {
		b.removeHandlersLocked()
		return err
	}

	b.bound = true
	b.token = s.Token
	b.principalID = principalID
	if h := b.hooks.OnConnect; h != nil {
		h()
	}
	return nil
}

func (b *Binder) releaseLocked() {
	b.removeHandlersLocked()
	b.channel.Disconnect()
	b.bound = false
	b.token = ""
	b.principalID = ""
	if h := b.hooks.OnDisconnect; h != nil {
		h()
	}
}

func (b *Binder) removeHandlersLocked() {
	for _, unsub := range b.unsubs {
		unsub()
	}
	b.unsubs = nil
}
