package protocol

import "strings"

const hostSegment = "host"

// ParseRoomPath reads the room id and host flag out of a page path such as
// "/party" or "/party/host". The root path maps to DefaultRoomID.
func ParseRoomPath(path string) (RoomID, bool) {
	segments := make([]string, 0, 2)
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) == 0 {
		return DefaultRoomID, false
	}
	return segments[0], len(segments) > 1 && segments[1] == hostSegment
}

// RoomPath is the inverse of ParseRoomPath.
func RoomPath(roomID RoomID, isHost bool) string {
	path := "/" + roomID
	if isHost {
		path += "/" + hostSegment
	}
	return path
}
