package ws

import (
	"errors"

	"github.com/Wyydra/ya-signal/internal/core/domain"
)

var (
	ErrBackpressure  = errors.New("backpressure: send queue full")
	ErrClientClosed  = errors.New("client closed")
	ErrUnknownClient = errors.New("unknown client")
)

// Client is one transport connection as seen by the hub. Send only queues
// the frame; it must not block.
type Client interface {
	ID() domain.ConnID
	Send(frame []byte) error
	Close() error
}
