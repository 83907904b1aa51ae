package protocol

import (
	"encoding/json"
	"fmt"
)

type RoomID = string

const DefaultRoomID RoomID = "default"

const (
	// client -> server
	MessageJoinRoom    = "join_room"
	MessageToggleMusic = "toggle_music"

	// server -> client
	MessageUserCount  = "user_count"
	MessageMusicState = "music_state"
)

type envelope struct {
	Type string `json:"type"`
}

// JoinRoom attaches a connection to a room. Both fields are optional on the wire.
type JoinRoom struct {
	Type   string  `json:"type"`
	RoomID *string `json:"roomId,omitempty"`
	IsHost *bool   `json:"isHost,omitempty"`
}

// Room returns the requested room, falling back to DefaultRoomID when the
// field is absent or empty.
func (j *JoinRoom) Room() RoomID {
	if j.RoomID == nil || *j.RoomID == "" {
		return DefaultRoomID
	}
	return *j.RoomID
}

func (j *JoinRoom) Host() bool {
	return j.IsHost != nil && *j.IsHost
}

func NewJoinRoom(roomID RoomID, isHost bool) *JoinRoom {
	return &JoinRoom{
		Type:   MessageJoinRoom,
		RoomID: &roomID,
		IsHost: &isHost,
	}
}

type ToggleMusic struct {
	Type string `json:"type"`
}

func NewToggleMusic() *ToggleMusic {
	return &ToggleMusic{Type: MessageToggleMusic}
}

type UserCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

func NewUserCount(count int) *UserCount {
	return &UserCount{Type: MessageUserCount, Count: count}
}

// MusicState is the playback snapshot of a room. StartTime is in unix
// milliseconds. StartTime and SongURL encode as null when unset.
type MusicState struct {
	Type      string  `json:"type"`
	IsPlaying bool    `json:"isPlaying"`
	StartTime *int64  `json:"startTime"`
	SongURL   *string `json:"songUrl"`
	HasHosts  bool    `json:"hasHosts"`
}

func NewMusicState(isPlaying bool, startTime *int64, songURL *string, hasHosts bool) *MusicState {
	return &MusicState{
		Type:      MessageMusicState,
		IsPlaying: isPlaying,
		StartTime: startTime,
		SongURL:   songURL,
		HasHosts:  hasHosts,
	}
}

func messageType(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedMessage, err)
	}
	if env.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return env.Type, nil
}

func decodeAs[T any](data []byte) (*T, error) {
	msg := new(T)
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedMessage, err)
	}
	return msg, nil
}

// DecodeClientMessage parses a frame sent by a client. The result is a
// *JoinRoom or a *ToggleMusic.
func DecodeClientMessage(data []byte) (any, error) {
	typ, err := messageType(data)
	if err != nil {
		return nil, err
	}

	switch typ {
	case MessageJoinRoom:
		return decodeAs[JoinRoom](data)
	case MessageToggleMusic:
		return decodeAs[ToggleMusic](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, typ)
	}
}

// DecodeServerMessage parses a frame sent by the server. The result is a
// *UserCount or a *MusicState.
func DecodeServerMessage(data []byte) (any, error) {
	typ, err := messageType(data)
	if err != nil {
		return nil, err
	}

	switch typ {
	case MessageUserCount:
		return decodeAs[UserCount](data)
	case MessageMusicState:
		return decodeAs[MusicState](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, typ)
	}
}
