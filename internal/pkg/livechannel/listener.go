package livechannel

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/comanda-app/comanda/internal/pkg/eventbus"
	"github.com/gorilla/websocket"
)

const (
	// CodeLoginSuccess is the bridge's frame code for a completed pairing.
	CodeLoginSuccess = "LOGIN_SUCCESS"

	defaultReconnectDelay = 3 * time.Second
)

// Frame is one message on the bridge's live channel.
type Frame struct {
	Type       string       `json:"type"`
	DeviceHash string       `json:"deviceHash"`
	Port       int          `json:"port"`
	Message    FrameMessage `json:"message"`
	Timestamp  string       `json:"timestamp"`
}

type FrameMessage struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Result  interface{} `json:"result,omitempty"`
}

// Config for a live channel listener.
type Config struct {
	// URL of the bridge websocket endpoint (ws:// or wss://).
	URL string
	// DeviceHash narrows OnLoginSuccess to one device. Frames for other
	// devices still reach OnMessage.
	DeviceHash string
	// OnMessage fires for every well-formed frame.
	OnMessage func(Frame)
	// OnLoginSuccess fires only for LOGIN_SUCCESS frames whose deviceHash
	// matches DeviceHash.
	OnLoginSuccess func(Frame)
	// ReconnectDelay defaults to 3s; tests shorten it.
	ReconnectDelay time.Duration
}

// Listener maintains one websocket connection to the bridge and dispatches
// inbound frames. Every abnormal drop is retried after ReconnectDelay, with
// at most one reconnect pending at a time; a clean close is final.
type Listener struct {
	cfg Config

	mu             sync.Mutex
	conn           *websocket.Conn
	closed         bool
	reconnectTimer *time.Timer
	dialer         *websocket.Dialer
}

// NewListener creates a listener; call Start to connect.
func NewListener(cfg Config) *Listener {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	return &Listener{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
	}
}

// Start dials the bridge and begins reading frames in a background goroutine.
func (l *Listener) Start() error {
	conn, _, err := l.dialer.Dial(l.cfg.URL, nil)
	if err != nil {
		return err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		conn.Close()
		return nil
	}
	l.conn = conn
	l.mu.Unlock()

	go l.readLoop(conn)
	return nil
}

func (l *Listener) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			l.handleDisconnect(err)
			return
		}
		l.dispatch(data)
	}
}

func (l *Listener) dispatch(data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Printf("livechannel: dropping malformed frame: %v", err)
		return
	}

	if l.cfg.OnMessage != nil {
		l.cfg.OnMessage(frame)
	}

	if frame.Message.Code == CodeLoginSuccess {
		if frame.DeviceHash == l.cfg.DeviceHash && l.cfg.OnLoginSuccess != nil {
			l.cfg.OnLoginSuccess(frame)
		}
		// Every login lands on the bus so caches and open pairing sessions
		// for that device react, regardless of which listener saw it.
		eventbus.PublishDeviceConnected(frame.DeviceHash)
	}
}

// handleDisconnect decides whether the dropped connection earns a retry.
// Normal closes and explicit teardown never reconnect; an abnormal close
// schedules one reconnect, guarded against stacking while one is pending.
func (l *Listener) handleDisconnect(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.conn = nil

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		log.Printf("livechannel: connection closed cleanly")
		return
	}
	if l.reconnectTimer != nil {
		return
	}

	log.Printf("livechannel: connection lost, reconnecting in %s: %v", l.cfg.ReconnectDelay, err)
	l.reconnectTimer = time.AfterFunc(l.cfg.ReconnectDelay, func() {
		l.mu.Lock()
		l.reconnectTimer = nil
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return
		}
		if err := l.Start(); err != nil {
			log.Printf("livechannel: reconnect failed: %v", err)
			l.handleDisconnect(err)
		}
	})
}

// Close tears the listener down: pending reconnects are cancelled and the
// connection is closed with a normal closure frame.
func (l *Listener) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	if l.reconnectTimer != nil {
		l.reconnectTimer.Stop()
		l.reconnectTimer = nil
	}
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			log.Printf("livechannel: close handshake failed: %v", err)
		}
		conn.Close()
	}
}
