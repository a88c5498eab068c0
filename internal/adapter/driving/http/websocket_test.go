package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Wyydra/ya-signal/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/ya-signal/internal/adapter/driven/persistence/memory"
	"github.com/Wyydra/ya-signal/internal/config"
	"github.com/Wyydra/ya-signal/internal/core/service"
	"github.com/gorilla/websocket"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	hub := ws.NewHub()
	svc := service.NewSignalingService(memory.NewPeerRegistry(), memory.NewSessionRepository(), hub)
	go hub.Run(svc)

	ts := httptest.NewServer(NewHandler(hub, cfg).NewRouter())
	t.Cleanup(func() {
		hub.Stop()
		ts.Close()
	})
	return ts
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

// dial connects and waits for a keepalive round trip, which guarantees the
// server has registered the connection.
func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	write(t, c, `{"type":"keepalive"}`)
	if got := read(t, c); got.Type != "keepalive" {
		t.Fatalf("expected keepalive, got %q", got.Type)
	}
	return c
}

func write(t *testing.T, c *websocket.Conn, raw string) {
	t.Helper()
	if err := c.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func read(t *testing.T, c *websocket.Conn) envelope {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return env
}

func peerCount(t *testing.T, env envelope) int {
	t.Helper()
	if env.Type != "peers" {
		t.Fatalf("expected peers, got %q", env.Type)
	}
	var peers []map[string]any
	if err := json.Unmarshal(env.Data, &peers); err != nil {
		t.Fatalf("decode peers: %v", err)
	}
	return len(peers)
}

func TestWebSocket_KeepaliveBeforeRegistration(t *testing.T) {
	ts := newTestServer(t, config.Default())
	c := dial(t, ts)

	write(t, c, `{"type":"keepalive"}`)
	got := read(t, c)
	if got.Type != "keepalive" || string(got.Data) != "{}" {
		t.Fatalf("unexpected frame %+v", got)
	}
}

func TestWebSocket_CallFlow(t *testing.T) {
	ts := newTestServer(t, config.Default())
	alice := dial(t, ts)
	bob := dial(t, ts)

	write(t, alice, `{"type":"new","id":1,"name":"alice","user_agent":"test"}`)
	if n := peerCount(t, read(t, alice)); n != 2 {
		t.Fatalf("alice saw %d peers, want 2", n)
	}
	if n := peerCount(t, read(t, bob)); n != 2 {
		t.Fatalf("bob saw %d peers, want 2", n)
	}

	write(t, bob, `{"type":"new","id":2,"name":"bob","user_agent":"test"}`)
	read(t, alice)
	read(t, bob)

	write(t, alice, `{"type":"offer","to":2,"session_id":"1-2","description":{"type":"offer","sdp":"v=0"}}`)
	offer := read(t, bob)
	if offer.Type != "offer" {
		t.Fatalf("bob expected offer, got %q", offer.Type)
	}
	var op struct {
		To        string `json:"to"`
		From      string `json:"from"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(offer.Data, &op); err != nil {
		t.Fatalf("decode offer: %v", err)
	}
	if op.To != "2" || op.From != "1" || op.SessionID != "1-2" {
		t.Fatalf("unexpected offer payload %s", offer.Data)
	}

	write(t, bob, `{"type":"answer","to":"1","session_id":"1-2","description":{"type":"answer","sdp":"v=0"}}`)
	if got := read(t, alice); got.Type != "answer" {
		t.Fatalf("alice expected answer, got %q", got.Type)
	}

	write(t, bob, `{"type":"candidate","to":"1","session_id":"1-2","candidate":{"candidate":"c"}}`)
	if got := read(t, alice); got.Type != "candidate" {
		t.Fatalf("alice expected candidate, got %q", got.Type)
	}

	write(t, bob, `{"type":"bye","session_id":"1-2","from":"2"}`)
	if got := read(t, alice); got.Type != "bye" {
		t.Fatalf("alice expected bye, got %q", got.Type)
	}
	if got := read(t, bob); got.Type != "bye" {
		t.Fatalf("bob expected bye, got %q", got.Type)
	}
}

func TestWebSocket_MalformedFrameKeepsConnectionOpen(t *testing.T) {
	ts := newTestServer(t, config.Default())
	c := dial(t, ts)

	write(t, c, `{"type":`)
	write(t, c, `{"type":"bye","session_id":"missing"}`)

	got := read(t, c)
	if got.Type != "error" || !strings.Contains(string(got.Data), "Invalid sessionmissing") {
		t.Fatalf("unexpected frame %+v", got)
	}
}

func TestWebSocket_DisconnectRemovesPeer(t *testing.T) {
	ts := newTestServer(t, config.Default())
	alice := dial(t, ts)
	bob := dial(t, ts)
	bob.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		write(t, alice, `{"type":"new","id":"1"}`)
		if peerCount(t, read(t, alice)) == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("bob was never removed from the registry")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_PingKeepsIdleConnectionOpen(t *testing.T) {
	cfg := config.Default()
	cfg.PingPeriod = 50 * time.Millisecond
	cfg.PongWait = 200 * time.Millisecond
	ts := newTestServer(t, cfg)
	c := dial(t, ts)

	frames := make(chan envelope, 1)
	errCh := make(chan error, 1)
	go func() {
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			var env envelope
			_ = json.Unmarshal(data, &env)
			frames <- env
		}
	}()

	// idle for longer than pong_wait; the default ping handler answers pings
	time.Sleep(500 * time.Millisecond)
	write(t, c, `{"type":"keepalive"}`)

	select {
	case env := <-frames:
		if env.Type != "keepalive" {
			t.Fatalf("unexpected frame %q", env.Type)
		}
	case err := <-errCh:
		t.Fatalf("connection closed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for keepalive")
	}
}

func TestWebSocket_ReadLimitClosesConnection(t *testing.T) {
	cfg := config.Default()
	cfg.ReadLimit = 64
	ts := newTestServer(t, cfg)
	c := dial(t, ts)

	write(t, c, `{"type":"keepalive","pad":"`+strings.Repeat("x", 128)+`"}`)

	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := c.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseMessageTooBig) {
		t.Fatalf("expected close 1009, got %v", err)
	}
}

func TestRouter_PlainGETOnWebSocketPath(t *testing.T) {
	ts := newTestServer(t, config.Default())

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", resp.StatusCode)
	}
}

func TestRouter_CustomWebSocketPath(t *testing.T) {
	cfg := config.Default()
	cfg.WSPath = "/signal/"
	ts := newTestServer(t, cfg)

	c, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/signal"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	write(t, c, `{"type":"keepalive"}`)
	if got := read(t, c); got.Type != "keepalive" {
		t.Fatalf("unexpected frame %+v", got)
	}
}

func TestRouter_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>call</h1>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := config.Default()
	cfg.StaticPath = dir
	ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/static/index.html")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "<h1>call</h1>" {
		t.Fatalf("status=%d body=%q", resp.StatusCode, body)
	}
}
