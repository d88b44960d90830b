package transport

import "errors"

// Domain-specific errors for the transport vocabulary.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidDeviceID is returned when a DeviceId string does not split
	// into exactly two segments or either segment is not a recognized enum
	// member.
	ErrInvalidDeviceID = errors.New("transport: invalid device id")

	// ErrUnknownRoom is returned when a room string is not a member of the
	// closed Room enum.
	ErrUnknownRoom = errors.New("transport: unknown room")

	// ErrUnknownDeviceType is returned when a device type string is not a
	// member of the closed DeviceType enum.
	ErrUnknownDeviceType = errors.New("transport: unknown device type")

	// ErrUnknownService is returned when a service string is not a member of
	// the closed Service enum.
	ErrUnknownService = errors.New("transport: unknown service")

	// ErrUnknownCapability is returned when a capability JSON payload does
	// not match any known tagged-union variant.
	ErrUnknownCapability = errors.New("transport: unknown capability variant")

	// ErrUnknownProperty is returned when a property JSON payload does not
	// match any known tagged-union variant.
	ErrUnknownProperty = errors.New("transport: unknown property variant")

	// ErrUnknownModeFunction is returned for a ModeFunction outside
	// {work_speed, fan_speed, cleanup_mode}.
	ErrUnknownModeFunction = errors.New("transport: unknown mode function")

	// ErrUnknownMode is returned for a Mode outside the closed enum.
	ErrUnknownMode = errors.New("transport: unknown mode")

	// ErrUnknownToggleFunction is returned for a ToggleFunction outside
	// {pause}.
	ErrUnknownToggleFunction = errors.New("transport: unknown toggle function")

	// ErrUnknownRangeFunction is returned for a RangeFunction outside
	// {temperature}.
	ErrUnknownRangeFunction = errors.New("transport: unknown range function")

	// ErrUnknownActionResultCode is returned for an ActionResult error code
	// outside the closed enum.
	ErrUnknownActionResultCode = errors.New("transport: unknown action result code")
)
