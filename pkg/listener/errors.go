package listener

import "errors"

var ErrNotConnected = errors.New("listener is not connected")
