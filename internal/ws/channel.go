// Package ws implements the websocket endpoint: one Session per open
// connection, registered with the connection registry for live fan-out.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomlink/messaging-platform/pkg/errors"
)

// Session wraps one websocket connection. Outbound payloads go through a
// buffered send queue drained by a single writer goroutine, since gorilla
// connections permit only one concurrent writer.
type Session struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	closed    chan struct{}

	writeTimeout time.Duration
	pingInterval time.Duration
}

// NewSession creates a session over an upgraded connection.
func NewSession(conn *websocket.Conn, sendBuffer int, writeTimeout, pingInterval time.Duration) *Session {
	return &Session{
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		closed:       make(chan struct{}),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
	}
}

// Write queues a payload for the writer goroutine. It fails when the queue
// stays full past the timeout or the session is already closed; the
// registry treats either as a broken channel.
func (s *Session) Write(payload []byte, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.closed:
		return errors.New(errors.CodeUnavailable, "session closed")
	case s.send <- payload:
		return nil
	case <-timer.C:
		return errors.New(errors.CodeUnavailable, "session send queue full")
	}
}

// Close shuts the session down exactly once. Safe from any goroutine.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
	return nil
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with periodic pings. It owns all writes to the underlying
// connection and exits when the session closes or a write fails.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.pingInterval)
	defer func() {
		ticker.Stop()
		_ = s.Close()
	}()

	for {
		select {
		case <-s.closed:
			return
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
