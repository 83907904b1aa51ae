package room

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/wrapitup/wrapitup/pkg/executils"
)

const broadcastStep = 16

// Broadcaster fans one encoded message out to every member of a room.
type Broadcaster struct {
	parallelThreshold uint64
	logger            *slog.Logger
}

func NewBroadcaster(parallelThreshold uint64, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		parallelThreshold: parallelThreshold,
		logger:            logger,
	}
}

// Broadcast encodes msg once and queues it on every member. Closed or slow
// sessions are skipped; they leave through their own read loop.
func (b *Broadcaster) Broadcast(room *Room, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	executils.ParallelExec(room.sessions(), b.parallelThreshold, broadcastStep, func(s *Session) {
		if err := s.Enqueue(payload); err != nil && !errors.Is(err, ErrSessionClosed) {
			b.logger.Debug("Broadcast skipped session",
				slog.String("room", room.id),
				slog.String("session", s.id),
				slog.String("err", err.Error()),
			)
		}
	})
	return nil
}

// Send queues msg on a single session.
func (b *Broadcaster) Send(s *Session, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Enqueue(payload)
}
