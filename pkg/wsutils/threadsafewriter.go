package wsutils

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type ThreadSafeWriter struct {
	*websocket.Conn
	sync.Mutex
}

func (t *ThreadSafeWriter) WriteJSON(val interface{}) error {
	t.Lock()
	defer t.Unlock()

	return t.Conn.WriteJSON(val)
}

// WriteText writes an already encoded frame, bounded by timeout when it is positive.
func (t *ThreadSafeWriter) WriteText(payload []byte, timeout time.Duration) error {
	t.Lock()
	defer t.Unlock()

	if timeout > 0 {
		_ = t.Conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return t.Conn.WriteMessage(websocket.TextMessage, payload)
}

func (t *ThreadSafeWriter) Ping(timeout time.Duration) error {
	t.Lock()
	defer t.Unlock()

	return t.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

// CloseGracefully sends a normal closure frame before closing the socket.
func (t *ThreadSafeWriter) CloseGracefully(timeout time.Duration) error {
	t.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(timeout))
	t.Unlock()

	return t.Conn.Close()
}

func (t *ThreadSafeWriter) Close() error {
	return t.Conn.Close()
}

func (t *ThreadSafeWriter) ReadJSON(val any) error {
	return t.Conn.ReadJSON(val)
}

func NewThreadSafeWriter(conn *websocket.Conn) *ThreadSafeWriter {
	return &ThreadSafeWriter{
		Conn: conn,
	}
}
