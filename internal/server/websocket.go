package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/NowakAdmin/ScaleBridge/internal/broadcast"
	"github.com/NowakAdmin/ScaleBridge/internal/scale"
)

const (
	WSTypePing  = "ping"
	WSTypePong  = "pong"
	WSTypeError = "error"

	wsSendBufferSize = 64
	wsMaxMessageSize = 4096
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingInterval   = 30 * time.Second
)

var (
	errClientClosed = errors.New("websocket client closed")
	errClientSlow   = errors.New("websocket client send buffer full")
)

type wsMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The agent listens on loopback and the web application lives on another
	// origin.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// wsClient is a hub subscriber backed by a WebSocket connection. Deliver only
// queues; writePump owns all writes to the socket.
type wsClient struct {
	hub    *broadcast.Hub[scale.Event]
	conn   *websocket.Conn
	logger zerolog.Logger

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func (c *wsClient) Deliver(ev scale.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.trySend(data)
}

func (c *wsClient) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
	return nil
}

func (c *wsClient) trySend(data []byte) error {
	select {
	case <-c.closed:
		return errClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.closed:
		return errClientClosed
	default:
		return errClientSlow
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{
		hub:    s.hub,
		conn:   conn,
		logger: s.logger,
		send:   make(chan []byte, wsSendBufferSize),
		closed: make(chan struct{}),
	}

	go client.writePump()
	s.hub.Subscribe(client)
	go client.readPump()

	s.logger.Debug().Str("remote", r.RemoteAddr).Msg("websocket client connected")
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.Unsubscribe(c)
		_ = c.Close()
		c.logger.Debug().Msg("websocket client disconnected")
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		// Browsers do not always answer protocol pings; any message counts.
		_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		c.handleMessage(data)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case <-c.closed:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) handleMessage(data []byte) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(wsMessage{Type: WSTypeError, Message: "invalid JSON message"})
		return
	}

	switch msg.Type {
	case WSTypePing:
		c.reply(wsMessage{Type: WSTypePong})
	default:
		c.reply(wsMessage{Type: WSTypeError, Message: "unknown message type: " + msg.Type})
	}
}

func (c *wsClient) reply(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := c.trySend(data); err != nil {
		c.logger.Debug().Err(err).Str("type", msg.Type).Msg("websocket reply dropped")
	}
}
