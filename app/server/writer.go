package server

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// connWriter serializes writes to one websocket connection. The pipeline
// result goroutine and progress callbacks write concurrently with the read
// loop's replies.
type connWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newConnWriter(conn *websocket.Conn) *connWriter {
	return &connWriter{conn: conn}
}

func (w *connWriter) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))

	return w.conn.WriteJSON(v)
}
