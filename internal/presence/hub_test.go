package presence

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// fakeHub is a minimal hub speaking the JSON framing over websocket.
type fakeHub struct {
	t        *testing.T
	server   *httptest.Server
	upgrader websocket.Upgrader

	handshakeError string
	handshakeDelay time.Duration
	refuse         atomic.Bool
	status         atomic.Int32
	pings          atomic.Int32

	mu      sync.Mutex
	conns   []*websocket.Conn
	headers []http.Header

	received chan hubMessage
}

func newFakeHub(t *testing.T) *fakeHub {
	t.Helper()
	h := &fakeHub{t: t, received: make(chan hubMessage, 64)}
	h.server = httptest.NewServer(http.HandlerFunc(h.handle))
	t.Cleanup(h.close)
	return h
}

func (h *fakeHub) url() string {
	return h.server.URL + "/hubs/presence"
}

func (h *fakeHub) handle(w http.ResponseWriter, r *http.Request) {
	if h.refuse.Load() {
		status := int(h.status.Load())
		if status == 0 {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, "unavailable", status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	if _, _, err := conn.ReadMessage(); err != nil {
		conn.Close()
		return
	}
	time.Sleep(h.handshakeDelay)
	reply := "{}"
	if h.handshakeError != "" {
		data, _ := json.Marshal(handshakeResponse{Error: h.handshakeError})
		reply = string(data)
	}
	if err := conn.WriteMessage(websocket.TextMessage, append([]byte(reply), recordSeparator)); err != nil {
		conn.Close()
		return
	}

	h.mu.Lock()
	h.conns = append(h.conns, conn)
	h.headers = append(h.headers, r.Header.Clone())
	h.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		for _, f := range splitFrames(data) {
			var msg hubMessage
			if err := json.Unmarshal(f, &msg); err != nil {
				continue
			}
			switch msg.Type {
			case messagePing:
				h.pings.Add(1)
			case messageInvocation:
				h.received <- msg
			}
		}
	}
}

func (h *fakeHub) connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *fakeHub) waitConnections(n int) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.connections() >= n }, 2*time.Second, 5*time.Millisecond)
}

func (h *fakeHub) lastHeader() http.Header {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.headers[len(h.headers)-1]
}

// invoke pushes an invocation to the latest client connection.
func (h *fakeHub) invoke(target string, args ...any) {
	h.t.Helper()
	h.waitConnections(1)
	message, err := invocationFrame(target, args...)
	require.NoError(h.t, err)

	h.mu.Lock()
	conn := h.conns[len(h.conns)-1]
	h.mu.Unlock()
	require.NoError(h.t, conn.WriteMessage(websocket.TextMessage, message))
}

// writeRaw sends data as is to the latest client connection.
func (h *fakeHub) writeRaw(data string) {
	h.t.Helper()
	h.waitConnections(1)
	h.mu.Lock()
	conn := h.conns[len(h.conns)-1]
	h.mu.Unlock()
	require.NoError(h.t, conn.WriteMessage(websocket.TextMessage, []byte(data)))
}

// drop cuts every connection without a close handshake.
func (h *fakeHub) drop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.conns {
		conn.UnderlyingConn().Close()
	}
}

func (h *fakeHub) expect(target string) hubMessage {
	h.t.Helper()
	select {
	case msg := <-h.received:
		require.True(h.t, strings.EqualFold(target, msg.Target), "got %s, want %s", msg.Target, target)
		return msg
	case <-time.After(2 * time.Second):
		h.t.Fatalf("no %s invocation received", target)
		return hubMessage{}
	}
}

func (h *fakeHub) close() {
	h.drop()
	h.server.Close()
}
