package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// envelope is the wire frame carried over pub/sub in both directions.
type envelope struct {
	Event string          `json:"event"`
	Auth  string          `json:"auth,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RedisChannel carries the realtime conversation over two Redis pub/sub
// channels: one inbound (server to console) and one outbound (console to
// server). The notification service is expected to publish envelopes of
// the form {"event": ..., "data": ...} on the inbound channel.
type RedisChannel struct {
	client   *redis.Client
	inbound  string
	outbound string

	mu        sync.Mutex
	handlers  map[string]map[string]Handler
	token     string
	connected bool
	pubsub    *redis.PubSub
	done      chan struct{}
}

// NewRedisChannel creates a disconnected channel over an existing Redis
// client. inbound and outbound name the pub/sub channels for each
// direction.
func NewRedisChannel(client *redis.Client, inbound, outbound string) *RedisChannel {
	if inbound == "" {
		inbound = "misauth:events:in"
	}
	if outbound == "" {
		outbound = "misauth:events:out"
	}
	return &RedisChannel{
		client:   client,
		inbound:  inbound,
		outbound: outbound,
		handlers: make(map[string]map[string]Handler),
	}
}

// Connect subscribes to the inbound channel and starts the receive loop.
func (c *RedisChannel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return ErrNoCredential
	}
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	pubsub := c.client.Subscribe(ctx, c.inbound)
	c.mu.Unlock()

	// Wait for the subscription ack so delivery starts before Connect
	// returns.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("realtime: subscribe %s: %w", c.inbound, err)
	}

	done := make(chan struct{})

	c.mu.Lock()
	c.pubsub = pubsub
	c.done = done
	c.connected = true
	c.mu.Unlock()

	go c.receive(pubsub.Channel(), done)

	c.dispatch(EventConnect, nil)
	return nil
}

func (c *RedisChannel) receive(messages <-chan *redis.Message, done chan struct{}) {
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil || env.Event == "" {
				continue
			}
			c.dispatch(env.Event, env.Data)
		case <-done:
			return
		}
	}
}

// Disconnect closes the subscription and fires EventDisconnect handlers.
func (c *RedisChannel) Disconnect() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	pubsub := c.pubsub
	done := c.done
	c.pubsub = nil
	c.done = nil
	c.mu.Unlock()

	close(done)
	_ = pubsub.Close()

	c.dispatch(EventDisconnect, nil)
}

// UpdateAuth swaps the credential attached to outbound envelopes.
func (c *RedisChannel) UpdateAuth(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Emit publishes a client event on the outbound channel.
func (c *RedisChannel) Emit(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	connected := c.connected
	token := c.token
	c.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}

	frame, err := json.Marshal(envelope{Event: event, Auth: token, Data: data})
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, c.outbound, frame).Err()
}

// On registers a handler for the named event.
func (c *RedisChannel) On(event string, h Handler) func() {
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
func (c *RedisChannel) Off(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, event)
}

func (c *RedisChannel) dispatch(event string, data []byte) {
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
