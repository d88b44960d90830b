package transport

// LightState is a single-facet event from a Sonoff-driven light switch.
type LightState struct {
	Room      Room `json:"room"`
	IsEnabled bool `json:"is_enabled"`
}

// DeviceId returns the (room, light) handle this event applies to.
func (l LightState) DeviceId() DeviceId {
	return NewDeviceId(DeviceTypeLight, l.Room)
}
