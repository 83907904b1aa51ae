package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wrapitup/wrapitup/pkg/protocol"
	"github.com/wrapitup/wrapitup/pkg/wsutils"
	"go.uber.org/atomic"
)

const writeWait = 10 * time.Second

// Session is one accepted connection. Outbound frames go through a bounded
// queue drained by a single writer, so the order in which the service
// enqueues is the order the client reads.
type Session struct {
	id     string
	logger *slog.Logger

	send      chan []byte
	done      chan struct{}
	closed    *atomic.Bool
	closeOnce sync.Once

	// guarded by the Registry lock
	roomID protocol.RoomID
	isHost bool
	joined bool
}

func NewSession(bufferSize int, logger *slog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		logger: logger.With(slog.String("session", id)),
		send:   make(chan []byte, bufferSize),
		done:   make(chan struct{}),
		closed: atomic.NewBool(false),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Enqueue never blocks. A session whose queue is full is considered too slow
// to keep up and gets closed.
func (s *Session) Enqueue(payload []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	select {
	case s.send <- payload:
		return nil
	default:
		s.logger.Warn("Send buffer full, closing session", slog.Int("buffer", cap(s.send)))
		s.Close()
		return ErrSendBufferFull
	}
}

// Outbox exposes queued frames to writers other than WritePump.
func (s *Session) Outbox() <-chan []byte {
	return s.send
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
	})
}

// WritePump drains the queue into w and pings every pingInterval until the
// session closes or a write fails. A closed session gets a close frame.
func (s *Session) WritePump(ctx context.Context, w *wsutils.ThreadSafeWriter, pingInterval time.Duration) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.done:
			_ = w.CloseGracefully(writeWait)
			return ErrSessionClosed

		case payload := <-s.send:
			if err := w.WriteText(payload, writeWait); err != nil {
				return err
			}

		case <-ticker.C:
			if err := w.Ping(writeWait); err != nil {
				return err
			}
		}
	}
}
