package sync

import (
	"encoding/json"
	"net/http"
	gosync "sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// handshakeTimeout bounds the initial websocket dial.
	handshakeTimeout = 10 * time.Second

	// pingInterval is how often a keepalive ping is written.
	pingInterval = 30 * time.Second

	// pongWait is how long to wait for a pong before the connection
	// is considered dead.
	pongWait = 60 * time.Second

	// maxReconnectDelay caps the reconnect backoff.
	maxReconnectDelay = 60 * time.Second
)

// WebsocketTransport implements Transport over a single long-lived
// websocket connection. On connection loss it redials with exponential
// backoff until Close is called, firing the registered callbacks on
// every transition.
type WebsocketTransport struct {
	url   string
	token string
	log   zerolog.Logger

	mu      gosync.Mutex
	conn    *websocket.Conn
	stopCh  chan struct{}
	started bool
	wg      gosync.WaitGroup

	onConnect    func()
	onDisconnect func()
	onMessage    func(msg Message)
}

// NewWebsocketTransport creates a transport for the given websocket
// URL. If token is non-empty it is sent as a bearer token during the
// handshake.
func NewWebsocketTransport(url, token string, logger zerolog.Logger) *WebsocketTransport {
	return &WebsocketTransport{
		url:    url,
		token:  token,
		log:    logger,
		stopCh: make(chan struct{}),
	}
}

// OnConnect registers the connect callback.
func (t *WebsocketTransport) OnConnect(fn func()) { t.onConnect = fn }

// OnDisconnect registers the disconnect callback.
func (t *WebsocketTransport) OnDisconnect(fn func()) { t.onDisconnect = fn }

// OnMessage registers the inbound frame callback.
func (t *WebsocketTransport) OnMessage(fn func(msg Message)) { t.onMessage = fn }

// Connect starts the dial/read/redial loop. Calling Connect more than
// once is a no-op.
func (t *WebsocketTransport) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return nil
	}
	t.started = true

	t.wg.Add(1)
	go t.run()
	return nil
}

// Send writes one frame as a JSON text message.
func (t *WebsocketTransport) Send(msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ErrNotConnected
	}
	return t.conn.WriteJSON(msg)
}

// Close stops reconnection and tears down any live connection.
func (t *WebsocketTransport) Close() error {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return nil
	}
	t.started = false
	close(t.stopCh)
	if t.conn != nil {
		t.conn.Close()
	}
	t.mu.Unlock()

	t.wg.Wait()
	return nil
}

// run dials the server, pumps inbound frames until the connection
// drops, and redials with exponential backoff.
func (t *WebsocketTransport) run() {
	defer t.wg.Done()

	delay := time.Second
	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		conn, err := t.dial()
		if err != nil {
			t.log.Warn().Err(err).Dur("retry_in", delay).Msg("websocket dial failed")
			select {
			case <-t.stopCh:
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
			continue
		}
		delay = time.Second

		t.setConn(conn)

		// Close may have raced the dial; with the connection
		// registered it either closed it already or sees it now.
		select {
		case <-t.stopCh:
			conn.Close()
			return
		default:
		}

		if t.onConnect != nil {
			t.onConnect()
		}

		t.readLoop(conn)

		t.setConn(nil)
		conn.Close()
		if t.onDisconnect != nil {
			t.onDisconnect()
		}
	}
}

// dial establishes a single websocket connection.
func (t *WebsocketTransport) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	var header http.Header
	if t.token != "" {
		header = http.Header{"Authorization": {"Bearer " + t.token}}
	}

	conn, resp, err := dialer.Dial(t.url, header)
	if resp != nil {
		resp.Body.Close()
	}
	return conn, err
}

// readLoop pumps inbound frames until the connection errors out. It
// also maintains the ping/pong keepalive.
func (t *WebsocketTransport) readLoop(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pingStop := make(chan struct{})
	defer close(pingStop)
	go t.pingLoop(conn, pingStop)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-t.stopCh:
			default:
				t.log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		// A frame that is not valid JSON is dropped; it must not
		// take the connection down.
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.log.Debug().Err(err).Msg("dropping unparseable frame")
			continue
		}
		if t.onMessage != nil {
			t.onMessage(msg)
		}
	}
}

// pingLoop writes a keepalive ping at a fixed interval until the
// connection's read loop ends.
func (t *WebsocketTransport) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.stopCh:
			return
		case <-ticker.C:
			deadline := time.Now().Add(handshakeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// setConn swaps the live connection under the lock.
func (t *WebsocketTransport) setConn(conn *websocket.Conn) {
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
}
