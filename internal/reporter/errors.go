package reporter

import "errors"

// ErrBusUnavailable wraps a failed subscription to the `state` topic.
var ErrBusUnavailable = errors.New("reporter: mqtt bus unavailable")
