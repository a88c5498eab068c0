package port

import "github.com/Wyydra/ya-signal/internal/core/domain"

// Gateway delivers encoded frames to connections. Send must not block.
type Gateway interface {
	Send(conn domain.ConnID, frame []byte) error
}

// SignalHandler receives connection lifecycle events and inbound frames
// from the transport, one at a time.
type SignalHandler interface {
	Connected(conn domain.ConnID)
	Disconnected(conn domain.ConnID)
	HandleFrame(conn domain.ConnID, data []byte)
}
