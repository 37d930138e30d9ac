package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Emitted records one client-emitted event, for assertions and local
// loopback delivery.
type Emitted struct {
	Event   string
	Payload []byte
}

// MemoryChannel is an in-process Channel. The server side of the
// conversation is driven through [MemoryChannel.Dispatch]; everything
// the client emits is captured and readable via [MemoryChannel.Sent].
type MemoryChannel struct {
	mu          sync.Mutex
	handlers    map[string]map[string]Handler
	token       string
	connected   bool
	sent        []Emitted
	connects    int
	disconnects int
}

// NewMemoryChannel creates a disconnected in-process channel.
func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{
		handlers: make(map[string]map[string]Handler),
	}
}

// Connect describes the connect operation and its observable behavior.
//
// Connect may return an error when no credential has been supplied.
func (c *MemoryChannel) Connect(_ context.Context) error {
	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return ErrNoCredential
	}
	c.connected = true
	c.connects++
	c.mu.Unlock()

	c.Dispatch(EventConnect, nil)
	return nil
}

// Disconnect describes the disconnect operation and its observable behavior.
//
// Disconnect is idempotent; a second call on a closed channel is a no-op.
func (c *MemoryChannel) Disconnect() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	c.disconnects++
	c.mu.Unlock()

	c.Dispatch(EventDisconnect, nil)
}

// UpdateAuth describes the updateauth operation and its observable behavior.
//
// UpdateAuth supports credential hot-swap while connected.
func (c *MemoryChannel) UpdateAuth(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Emit describes the emit operation and its observable behavior.
//
// Emit may return an error when the channel is not connected or the
// payload cannot be serialized.
func (c *MemoryChannel) Emit(_ context.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrNotConnected
	}
	c.sent = append(c.sent, Emitted{Event: event, Payload: data})
	return nil
}

// On describes the on operation and its observable behavior.
//
// On does not mutate shared global state beyond the receiver's handler
// registry and can be used concurrently.
func (c *MemoryChannel) On(event string, h Handler) func() {
	id := uuid.NewString()

	c.mu.Lock()
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[string]Handler)
	}
	c.handlers[event][id] = h
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers[event], id)
	}
}

// Off removes every handler registered for the named event.
func (c *MemoryChannel) Off(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, event)
}

// Dispatch delivers a server-side event to registered handlers. Handlers
// run synchronously on the caller's goroutine, outside the channel lock,
// so a handler may emit or unsubscribe itself.
func (c *MemoryChannel) Dispatch(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	c.mu.Lock()
	registered := c.handlers[event]
	snapshot := make([]Handler, 0, len(registered))
	for _, h := range registered {
		snapshot = append(snapshot, h)
	}
	c.mu.Unlock()

	for _, h := range snapshot {
		h(data)
	}
}

// Sent returns a copy of everything emitted so far.
func (c *MemoryChannel) Sent() []Emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Emitted, len(c.sent))
	copy(out, c.sent)
	return out
}

// SentCount returns how many times the named event was emitted.
func (c *MemoryChannel) SentCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.sent {
		if e.Event == event {
			n++
		}
	}
	return n
}

// ConnectCalls reports how many times Connect succeeded.
func (c *MemoryChannel) ConnectCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

// DisconnectCalls reports how many times Disconnect closed an open
// connection.
func (c *MemoryChannel) DisconnectCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

// HandlerCount reports the number of live registrations for the named
// event. Used to verify that repeated login/logout cycles do not leak
// handlers.
func (c *MemoryChannel) HandlerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers[event])
}
