package protocol

type SongList struct {
	Songs []string `json:"songs"`
}

type Track struct {
	URL string `json:"url"`
	// Duration in seconds, 0 when the file could not be probed.
	Duration float64 `json:"duration"`
}

type TrackList struct {
	Tracks []Track `json:"tracks"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type RoomInfo struct {
	RoomID    RoomID  `json:"roomId"`
	Members   int     `json:"members"`
	Hosts     int     `json:"hosts"`
	IsPlaying bool    `json:"isPlaying"`
	StartTime *int64  `json:"startTime"`
	SongURL   *string `json:"songUrl"`
}

type RoomList struct {
	Rooms []RoomInfo `json:"rooms"`
}
