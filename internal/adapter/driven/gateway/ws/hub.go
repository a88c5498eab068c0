package ws

import (
	"sync"

	"github.com/Wyydra/ya-signal/internal/core/domain"
	"github.com/Wyydra/ya-signal/internal/core/port"
	"github.com/rs/zerolog/log"
)

var _ port.Gateway = (*Hub)(nil)

type inboundFrame struct {
	conn domain.ConnID
	data []byte
}

// Hub implements port.Gateway. Run owns the signaling state: connects,
// disconnects and frames from every client are handed to the handler one at
// a time, each processed to completion before the next.
type Hub struct {
	mu         sync.Mutex
	clients    map[domain.ConnID]Client
	inbound    chan inboundFrame
	register   chan Client
	unregister chan Client
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[domain.ConnID]Client),
		inbound:    make(chan inboundFrame),
		register:   make(chan Client),
		unregister: make(chan Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(handler port.SignalHandler) {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for id, client := range h.clients {
				if err := client.Close(); err != nil {
					log.Error().Err(err).Str("module", "gateway.ws").Str("conn_id", id.String()).Msg("Error closing client")
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID()] = client
			count := len(h.clients)
			h.mu.Unlock()
			handler.Connected(client.ID())
			log.Info().Str("module", "gateway.ws").Int("count", count).Str("conn_id", client.ID().String()).Msg("Client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client.ID()]
			delete(h.clients, client.ID())
			count := len(h.clients)
			h.mu.Unlock()
			if ok {
				client.Close()
				handler.Disconnected(client.ID())
				log.Info().Str("module", "gateway.ws").Int("count", count).Str("conn_id", client.ID().String()).Msg("Client unregistered")
			}

		case f := <-h.inbound:
			handler.HandleFrame(f.conn, f.data)
		}
	}
}

func (h *Hub) Register(c Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		c.Close()
	}
}

func (h *Hub) Unregister(c Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Deliver queues an inbound frame and returns once the hub has taken it.
func (h *Hub) Deliver(conn domain.ConnID, data []byte) {
	select {
	case h.inbound <- inboundFrame{conn: conn, data: data}:
	case <-h.quit:
	}
}

func (h *Hub) Send(conn domain.ConnID, frame []byte) error {
	h.mu.Lock()
	client, ok := h.clients[conn]
	h.mu.Unlock()
	if !ok {
		return ErrUnknownClient
	}
	return client.Send(frame)
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
