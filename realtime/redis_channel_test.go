package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisChannel(t *testing.T) (*RedisChannel, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisChannel(rdb, "test:in", "test:out"), rdb
}

func TestRedisChannelRequiresCredential(t *testing.T) {
	ch, _ := newTestRedisChannel(t)

	if err := ch.Connect(context.Background()); err != ErrNoCredential {
		t.Fatalf("Connect without credential = %v, want ErrNoCredential", err)
	}
}

func TestRedisChannelDeliversInboundEvents(t *testing.T) {
	ctx := context.Background()
	ch, rdb := newTestRedisChannel(t)
	ch.UpdateAuth("tok-1")

	received := make(chan []byte, 1)
	ch.On(EventNotification, func(data []byte) {
		received <- data
	})

	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer ch.Disconnect()

	frame, err := json.Marshal(envelope{Event: EventNotification, Data: json.RawMessage(`{"id":"n-1"}`)})
	if err != nil {
		t.Fatalf("marshal frame failed: %v", err)
	}
	if err := rdb.Publish(ctx, "test:in", frame).Err(); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case data := <-received:
		var body struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &body); err != nil || body.ID != "n-1" {
			t.Fatalf("payload = %s, err = %v", data, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inbound event not delivered")
	}
}

func TestRedisChannelEmitPublishesEnvelope(t *testing.T) {
	ctx := context.Background()
	ch, rdb := newTestRedisChannel(t)
	ch.UpdateAuth("tok-1")

	outbound := rdb.Subscribe(ctx, "test:out")
	t.Cleanup(func() { _ = outbound.Close() })
	if _, err := outbound.Receive(ctx); err != nil {
		t.Fatalf("outbound subscribe failed: %v", err)
	}

	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer ch.Disconnect()

	if err := ch.Emit(ctx, EventSubscribeNotifications, SubscribePayload{PrincipalID: "p1"}); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	select {
	case msg := <-outbound.Channel():
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		if env.Event != EventSubscribeNotifications {
			t.Fatalf("event = %q", env.Event)
		}
		if env.Auth != "tok-1" {
			t.Fatalf("auth = %q, want tok-1", env.Auth)
		}
		var p SubscribePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.PrincipalID != "p1" {
			t.Fatalf("payload = %s, err = %v", env.Data, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("emitted event not published")
	}
}

func TestRedisChannelEmitWhenDisconnected(t *testing.T) {
	ch, _ := newTestRedisChannel(t)
	ch.UpdateAuth("tok-1")

	if err := ch.Emit(context.Background(), EventNotification, nil); err != ErrNotConnected {
		t.Fatalf("Emit while disconnected = %v, want ErrNotConnected", err)
	}
}
