package sync

import (
	"encoding/json"
	"errors"
)

// ErrNotConnected is returned by Send when the transport has no live
// connection.
var ErrNotConnected = errors.New("transport not connected")

// Message is a single frame on the realtime channel: a named event
// with an optional JSON payload.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Transport is the persistent realtime channel to the server. The
// transport owns the connection lifecycle, including reconnection;
// the sync service only reacts to the connect/disconnect callbacks.
// Handlers must be registered before Connect is called.
type Transport interface {
	// OnConnect registers a callback fired each time a connection is
	// established, including after an automatic reconnect.
	OnConnect(fn func())

	// OnDisconnect registers a callback fired each time the
	// connection is lost or closed.
	OnDisconnect(fn func())

	// OnMessage registers a callback fired for every inbound frame.
	OnMessage(fn func(msg Message))

	// Connect starts the transport. It returns once the connection
	// attempt is underway; the OnConnect callback signals success.
	Connect() error

	// Send writes one outbound frame. Returns ErrNotConnected when
	// there is no live connection.
	Send(msg Message) error

	// Close tears down the connection and stops reconnection.
	Close() error
}
