package realtime

import (
	"context"
	"errors"
)

// Logical transport events. Connect/disconnect/reconnect describe the
// connection lifecycle; the remaining events are application payloads
// delivered after subscription.
const (
	// EventConnect fires when the transport connection is established.
	EventConnect = "connect"
	// EventDisconnect fires when the transport connection closes.
	EventDisconnect = "disconnect"
	// EventReconnect fires when the transport re-establishes a dropped
	// connection. Server-side subscription state does not survive a
	// reconnect and must be re-established by the client.
	EventReconnect = "reconnect"
	// EventNotification carries a user-scoped notification.
	EventNotification = "notification"
	// EventSystemAlert carries a broadcast operational alert.
	EventSystemAlert = "system_alert"
	// EventStatsUpdate carries dashboard statistics refreshes.
	EventStatsUpdate = "stats_update"
	// EventSubscribeNotifications is emitted by the client to scope
	// delivery to a principal. Safe to emit repeatedly.
	EventSubscribeNotifications = "subscribe_notifications"
)

var (
	// ErrNotConnected is returned by Emit when no connection is open.
	ErrNotConnected = errors.New("realtime: channel not connected")
	// ErrNoCredential is returned by Connect when no credential has been
	// supplied via UpdateAuth.
	ErrNoCredential = errors.New("realtime: connect without credential")
)

// Handler receives the JSON-encoded payload of a delivered event.
type Handler func(data []byte)

// SubscribePayload is the body of EventSubscribeNotifications.
type SubscribePayload struct {
	PrincipalID string `json:"principal_id"`
}

// Channel is the realtime transport boundary. Exactly one logical
// connection exists per Channel value; implementations must be safe for
// concurrent use.
type Channel interface {
	// Connect opens the connection using the credential last supplied
	// via UpdateAuth and fires EventConnect handlers on success.
	Connect(ctx context.Context) error

	// Disconnect closes the connection and fires EventDisconnect
	// handlers. Safe to call when already disconnected.
	Disconnect()

	// UpdateAuth swaps the credential used for the connection. Supported
	// while connected (credential hot-swap, no reconnect cycle).
	UpdateAuth(token string)

	// Emit sends a client event over the open connection.
	Emit(ctx context.Context, event string, payload any) error

	// On registers a handler for the named event and returns its
	// unsubscribe function. Handlers may unsubscribe themselves.
	On(event string, h Handler) (unsubscribe func())

	// Off removes every handler registered for the named event.
	Off(event string)
}
