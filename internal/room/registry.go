package room

import (
	"sort"
	"sync"

	"github.com/wrapitup/wrapitup/pkg/protocol"
)

// Registry owns every live room. Join, toggle and leave each run with the
// lock held from start to finish, so room state only changes in whole
// transitions. Methods other than List expect the caller to hold the lock.
type Registry struct {
	sync.Mutex

	roomMap map[protocol.RoomID]*Room
}

func NewRegistry() *Registry {
	return &Registry{
		roomMap: make(map[protocol.RoomID]*Room),
	}
}

func (r *Registry) GetOrCreate(roomID protocol.RoomID) *Room {
	if room, exist := r.roomMap[roomID]; exist {
		return room
	}
	room := newRoom(roomID)
	r.roomMap[roomID] = room
	return room
}

func (r *Registry) Get(roomID protocol.RoomID) (*Room, error) {
	room, exist := r.roomMap[roomID]
	if !exist {
		return nil, ErrRoomNotExist
	}
	return room, nil
}

// RemoveIfEmpty deletes the room once its last member is gone.
func (r *Registry) RemoveIfEmpty(roomID protocol.RoomID) bool {
	room, exist := r.roomMap[roomID]
	if !exist || !room.Empty() {
		return false
	}
	delete(r.roomMap, roomID)
	return true
}

func (r *Registry) Len() int {
	return len(r.roomMap)
}

func (r *Registry) List() []protocol.RoomInfo {
	r.Lock()
	defer r.Unlock()

	result := make([]protocol.RoomInfo, 0, len(r.roomMap))
	for _, room := range r.roomMap {
		result = append(result, room.Info())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RoomID < result[j].RoomID })
	return result
}
