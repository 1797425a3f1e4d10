package explain

import "errors"

var (
	errQueueFull       = errors.New("explanation queue full")
	errRequesterClosed = errors.New("explanation requester closed")
)
