package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/Wyydra/ya-signal/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/ya-signal/internal/core/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// browsers connect from whatever page hosts the client
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient implements ws.Client. Frames queued by Send are written by
// writePump in order.
type WSClient struct {
	id   domain.ConnID
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newWSClient(conn *websocket.Conn, buffer int) *WSClient {
	return &WSClient{
		id:   domain.NewConnID(),
		conn: conn,
		send: make(chan []byte, buffer),
	}
}

func (c *WSClient) ID() domain.ConnID {
	return c.id
}

func (c *WSClient) Send(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ws.ErrClientClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ws.ErrBackpressure
	}
}

// Close stops accepting frames. writePump flushes what is queued, sends a
// close message and closes the socket.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)
	return nil
}

func (h *Handler) writePump(c *WSClient, l zerolog.Logger) {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				l.Error().Err(err).Msg("Write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				l.Debug().Err(err).Msg("Ping failed")
				return
			}
		}
	}
}

// HTTP handler
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "http").Msg("Error while upgrading ws")
		return
	}

	client := newWSClient(conn, h.cfg.SendBuffer)

	l := log.With().Str("module", "http").Str("conn_id", client.ID().String()).Logger()
	l.Info().Str("remote", r.RemoteAddr).Msg("New client connected")

	h.Hub.Register(client)
	go h.writePump(client, l)

	defer func() {
		l.Info().Msg("Client disconnected")
		h.Hub.Unregister(client)
		client.Close()
	}()

	conn.SetReadLimit(h.cfg.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	// listening for browser
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("Unexpected close error")
			}
			break
		}
		// any frame proves the peer is alive
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
		h.Hub.Deliver(client.ID(), data)
	}
}
