package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size.
	maxMessageSize = 64 * 1024

	defaultSendBuffer = 64
)

// Conn is a single live transport handle. Send must be safe for concurrent use
// and must not block on network I/O.
type Conn interface {
	ID() string
	Send(event string, data any) error
	Close() error
}

// wsConn is a Conn backed by a gorilla websocket. Outbound frames are queued on
// a buffered channel and written by writePump, the only goroutine that writes
// to the socket.
type wsConn struct {
	id     string
	ws     *websocket.Conn
	send   chan []byte
	logger *slog.Logger

	// mu guards closed and the close of send. Senders hold the read lock for
	// the whole non-blocking send so Close cannot close the channel under them.
	mu     sync.RWMutex
	closed bool
}

var _ Conn = (*wsConn)(nil)

func newWSConn(ws *websocket.Conn, bufferSize int, logger *slog.Logger) *wsConn {
	if bufferSize <= 0 {
		bufferSize = defaultSendBuffer
	}
	id := uuid.NewString()
	return &wsConn{
		id:     id,
		ws:     ws,
		send:   make(chan []byte, bufferSize),
		logger: logger.With(slog.String("connection_id", id)),
	}
}

func (c *wsConn) ID() string { return c.id }

// Send queues an event frame. It returns ErrConnectionClosed once Close has
// been called and ErrSendBufferFull when the client is not keeping up.
func (c *wsConn) Send(event string, data any) error {
	return c.enqueue(outboundFrame{Event: event, Data: data})
}

func (c *wsConn) reply(ack string, data any) error {
	return c.enqueue(outboundFrame{Event: EventAck, Ack: ack, Data: data})
}

func (c *wsConn) enqueue(frame outboundFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode %s frame: %w", frame.Event, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the write pump, which sends a close frame and closes the socket.
// It is safe to call more than once and concurrently with Send.
func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

// readPump calls onMessage for every inbound text frame until the peer goes
// away or a read fails.
func (c *wsConn) readPump(onMessage func([]byte)) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		onMessage(data)
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write failed", "error", err)
				_ = c.Close()
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}
