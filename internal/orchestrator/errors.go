package orchestrator

import "errors"

// ErrBusUnavailable wraps any Subscribe/Publish failure against the MQTT
// bus, surfaced to the caller rather than retried since the orchestrator's
// window is already bounded.
var ErrBusUnavailable = errors.New("orchestrator: mqtt bus unavailable")
