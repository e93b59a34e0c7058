package broadcast

import "context"

// Transport is the connection/room layer the broadcaster pushes into. It is
// consumed, never owned: the transport owns physical connections, the
// broadcaster owns subscriptions.
type Transport interface {
	Send(ctx context.Context, connectionID string, payload []byte) error
	// OnClose registers a callback fired when a connection goes away; the
	// broadcaster uses it to tear down that connection's subscriptions.
	OnClose(handler func(connectionID string))
}
