package room

import "errors"

var (
	ErrRoomNotExist         = errors.New("room not exist")
	ErrSessionNotJoined     = errors.New("session has not joined a room")
	ErrSessionAlreadyJoined = errors.New("session already joined the room")
	ErrSessionClosed        = errors.New("session is closed")
	ErrSendBufferFull       = errors.New("session send buffer is full")
)
