package fade

import "errors"

var ErrFadeCancelled = errors.New("fade cancelled")
