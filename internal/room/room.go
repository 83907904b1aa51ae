package room

import (
	"sort"

	"github.com/wrapitup/wrapitup/pkg/protocol"
)

// Room is the membership and playback state of one room. It has no lock of
// its own; every access goes through the Registry lock.
type Room struct {
	id protocol.RoomID

	members map[string]*Session
	hosts   map[string]*Session

	isPlaying bool
	// set together on start, cleared together on stop
	playStartTime *int64
	currentTrack  *string
}

func newRoom(id protocol.RoomID) *Room {
	return &Room{
		id:      id,
		members: make(map[string]*Session),
		hosts:   make(map[string]*Session),
	}
}

func (r *Room) ID() protocol.RoomID {
	return r.id
}

func (r *Room) add(s *Session, isHost bool) error {
	if _, exist := r.members[s.id]; exist {
		return ErrSessionAlreadyJoined
	}
	r.members[s.id] = s
	if isHost {
		r.hosts[s.id] = s
	}
	return nil
}

func (r *Room) remove(s *Session) bool {
	if _, exist := r.members[s.id]; !exist {
		return false
	}
	delete(r.members, s.id)
	delete(r.hosts, s.id)
	return true
}

func (r *Room) MemberCount() int {
	return len(r.members)
}

func (r *Room) HostCount() int {
	return len(r.hosts)
}

func (r *Room) HasHosts() bool {
	return len(r.hosts) > 0
}

func (r *Room) Empty() bool {
	return len(r.members) == 0
}

func (r *Room) IsPlaying() bool {
	return r.isPlaying
}

// start moves the room to playing. A missing track still starts the clock so
// every member observes the transition.
func (r *Room) start(startMillis int64, track string, ok bool) {
	r.isPlaying = true
	r.playStartTime = &startMillis
	r.currentTrack = nil
	if ok {
		r.currentTrack = &track
	}
}

func (r *Room) stop() {
	r.isPlaying = false
	r.playStartTime = nil
	r.currentTrack = nil
}

func (r *Room) Snapshot() *protocol.MusicState {
	return protocol.NewMusicState(r.isPlaying, r.playStartTime, r.currentTrack, r.HasHosts())
}

func (r *Room) sessions() []*Session {
	result := make([]*Session, 0, len(r.members))
	for _, s := range r.members {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].id < result[j].id })
	return result
}

func (r *Room) Info() protocol.RoomInfo {
	return protocol.RoomInfo{
		RoomID:    r.id,
		Members:   r.MemberCount(),
		Hosts:     r.HostCount(),
		IsPlaying: r.isPlaying,
		StartTime: r.playStartTime,
		SongURL:   r.currentTrack,
	}
}
