package room

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/wrapitup/wrapitup/pkg/playback"
	"github.com/wrapitup/wrapitup/pkg/protocol"
)

// TrackPicker selects the track for a room that starts playing.
type TrackPicker interface {
	Pick() (track string, ok bool)
}

type RoomService struct {
	registry    *Registry
	broadcaster *Broadcaster
	picker      TrackPicker
	clock       *playback.Clock
	logger      *slog.Logger
	bufferSize  int

	sessionsMu sync.Mutex
	sessions   map[string]*Session
}

type NewRoomServiceParams struct {
	Registry    *Registry
	Broadcaster *Broadcaster
	Picker      TrackPicker
	Clock       *playback.Clock
	Logger      *slog.Logger
	BufferSize  int
}

func NewRoomService(params NewRoomServiceParams) *RoomService {
	if params.Clock == nil {
		params.Clock = playback.NewClock(nil)
	}
	return &RoomService{
		registry:    params.Registry,
		broadcaster: params.Broadcaster,
		picker:      params.Picker,
		clock:       params.Clock,
		logger:      params.Logger,
		bufferSize:  params.BufferSize,
		sessions:    make(map[string]*Session),
	}
}

// Connect registers a new, unjoined session.
func (s *RoomService) Connect() *Session {
	session := NewSession(s.bufferSize, s.logger)

	s.sessionsMu.Lock()
	s.sessions[session.id] = session
	s.sessionsMu.Unlock()

	session.logger.Debug("Client connected")
	return session
}

// Join attaches session to roomID. The joiner first receives the member
// count and the playback snapshot, then the whole room gets the new count.
// A session that is already in a room leaves it first.
func (s *RoomService) Join(session *Session, roomID protocol.RoomID, isHost bool) {
	if roomID == "" {
		roomID = protocol.DefaultRoomID
	}

	s.registry.Lock()
	defer s.registry.Unlock()

	if session.joined {
		session.logger.Info("Client switching rooms", slog.String("from", session.roomID), slog.String("to", roomID))
		s.leaveLocked(session)
	}

	room := s.registry.GetOrCreate(roomID)
	if err := room.add(session, isHost); err != nil {
		session.logger.Error(err.Error())
		return
	}
	session.roomID = roomID
	session.isHost = isHost
	session.joined = true

	session.logger.Info("Client joined room",
		slog.String("room", roomID),
		slog.Bool("host", isHost),
		slog.Int("members", room.MemberCount()),
	)

	s.send(session, protocol.NewUserCount(room.MemberCount()))
	s.send(session, room.Snapshot())
	s.broadcast(room, protocol.NewUserCount(room.MemberCount()))
}

// Toggle flips the playback state of the session's room and broadcasts the
// new snapshot. Sessions outside any room are ignored.
func (s *RoomService) Toggle(session *Session) error {
	s.registry.Lock()
	defer s.registry.Unlock()

	if !session.joined {
		session.logger.Debug("Toggle before join ignored")
		return ErrSessionNotJoined
	}

	room, err := s.registry.Get(session.roomID)
	if err != nil {
		session.logger.Debug("Toggle for missing room ignored", slog.String("room", session.roomID))
		return err
	}

	if room.IsPlaying() {
		room.stop()
		session.logger.Info("Music stopped", slog.String("room", room.id))
	} else {
		track, ok := s.picker.Pick()
		room.start(s.clock.Start(), track, ok)
		if !ok {
			session.logger.Warn("No track available, playing without a song", slog.String("room", room.id))
		}
		session.logger.Info("Music started", slog.String("room", room.id), slog.String("song", track))
	}

	s.broadcast(room, room.Snapshot())
	return nil
}

// Leave removes the session from its room, deletes the room when it became
// empty and otherwise broadcasts the new member count.
func (s *RoomService) Leave(session *Session) {
	s.registry.Lock()
	defer s.registry.Unlock()

	s.leaveLocked(session)
}

func (s *RoomService) leaveLocked(session *Session) {
	if !session.joined {
		return
	}
	roomID := session.roomID
	session.joined = false
	session.roomID = ""
	session.isHost = false

	room, err := s.registry.Get(roomID)
	if err != nil {
		return
	}
	room.remove(session)

	if s.registry.RemoveIfEmpty(roomID) {
		session.logger.Info("Room deleted", slog.String("room", roomID))
		return
	}

	session.logger.Info("Client left room", slog.String("room", roomID), slog.Int("members", room.MemberCount()))
	s.broadcast(room, protocol.NewUserCount(room.MemberCount()))
}

// Disconnect runs the close cleanup for a session.
func (s *RoomService) Disconnect(session *Session) {
	s.Leave(session)
	session.Close()

	s.sessionsMu.Lock()
	delete(s.sessions, session.id)
	s.sessionsMu.Unlock()

	session.logger.Debug("Client disconnected")
}

// Shutdown closes every connected session.
func (s *RoomService) Shutdown() {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	for _, session := range s.sessions {
		session.Close()
	}
}

func (s *RoomService) Rooms() []protocol.RoomInfo {
	return s.registry.List()
}

func (s *RoomService) send(session *Session, msg any) {
	if err := s.broadcaster.Send(session, msg); err != nil && !errors.Is(err, ErrSessionClosed) {
		session.logger.Warn("Send failed", slog.String("err", err.Error()))
	}
}

func (s *RoomService) broadcast(room *Room, msg any) {
	if err := s.broadcaster.Broadcast(room, msg); err != nil {
		s.logger.Error("Broadcast failed", slog.String("room", room.id), slog.String("err", err.Error()))
	}
}
