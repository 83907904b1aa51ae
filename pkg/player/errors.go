package player

import "errors"

var ErrUnknownTrack = errors.New("unknown track")
