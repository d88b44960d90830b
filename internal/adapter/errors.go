package adapter

import "errors"

// ErrStopped is returned by Supervisor.Run when Stop was called before the
// connect function returned.
var ErrStopped = errors.New("adapter: supervisor stopped")
