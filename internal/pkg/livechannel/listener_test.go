package livechannel

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsServer upgrades every connection and hands it to fn.
func wsServer(t *testing.T, fn func(conn *websocket.Conn, n int)) (*httptest.Server, string, *int32) {
	t.Helper()
	var connCount int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := int(atomic.AddInt32(&connCount, 1))
		fn(conn, n)
	}))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL, &connCount
}

func TestListener_DispatchesFrames(t *testing.T) {
	frameJSON := `{"type":"event","deviceHash":"hash-a","port":3001,` +
		`"message":{"code":"LOGIN_SUCCESS","message":"ok"},"timestamp":"2026-08-30T12:00:00Z"}`
	otherJSON := `{"type":"event","deviceHash":"hash-b",` +
		`"message":{"code":"LOGIN_SUCCESS","message":"ok"},"timestamp":"2026-08-30T12:00:00Z"}`

	_, wsURL, _ := wsServer(t, func(conn *websocket.Conn, n int) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("this is not json"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(otherJSON))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frameJSON))
		// keep the connection open until the client closes
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	var mu sync.Mutex
	var all []Frame
	var logins []Frame
	l := NewListener(Config{
		URL:        wsURL,
		DeviceHash: "hash-a",
		OnMessage: func(f Frame) {
			mu.Lock()
			all = append(all, f)
			mu.Unlock()
		},
		OnLoginSuccess: func(f Frame) {
			mu.Lock()
			logins = append(logins, f)
			mu.Unlock()
		},
	})
	require.NoError(t, l.Start())
	defer l.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(all) == 2
	}, time.Second, time.Millisecond, "both well-formed frames dispatched, malformed one dropped")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, logins, 1, "login callback only for the configured device")
	assert.Equal(t, "hash-a", logins[0].DeviceHash)
	assert.Equal(t, CodeLoginSuccess, logins[0].Message.Code)
	assert.Equal(t, 3001, logins[0].Port)
}

func TestListener_ReconnectsOnEveryAbnormalClose(t *testing.T) {
	_, wsURL, connCount := wsServer(t, func(conn *websocket.Conn, n int) {
		// drop every connection without a close handshake
		conn.Close()
	})

	l := NewListener(Config{
		URL:            wsURL,
		ReconnectDelay: 10 * time.Millisecond,
	})
	require.NoError(t, l.Start())

	// each abnormal drop earns another reconnect, so the channel survives a
	// server that keeps killing connections
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(connCount) >= 3
	}, time.Second, time.Millisecond)

	// teardown stops the cycle
	l.Close()
	settled := atomic.LoadInt32(connCount)
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(connCount), settled+1, "no reconnects after Close")
}

func TestListener_NoReconnectOnNormalClose(t *testing.T) {
	_, wsURL, connCount := wsServer(t, func(conn *websocket.Conn, n int) {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		// wait for the client's close response, then drop
		_, _, _ = conn.ReadMessage()
		conn.Close()
	})

	l := NewListener(Config{
		URL:            wsURL,
		ReconnectDelay: 10 * time.Millisecond,
	})
	require.NoError(t, l.Start())
	defer l.Close()

	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(connCount), "a clean close is final")
}

func TestListener_CloseCancelsPendingReconnect(t *testing.T) {
	_, wsURL, connCount := wsServer(t, func(conn *websocket.Conn, n int) {
		conn.Close()
	})

	l := NewListener(Config{
		URL:            wsURL,
		ReconnectDelay: 50 * time.Millisecond,
	})
	require.NoError(t, l.Start())

	// wait until the abnormal close was observed, then tear down before the
	// reconnect timer fires
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(connCount) == 1
	}, time.Second, time.Millisecond)
	l.Close()

	time.Sleep(150 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(connCount))
}
