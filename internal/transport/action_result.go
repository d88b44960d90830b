package transport

import (
	"encoding/json"
	"fmt"
)

// ActionResultCode is the closed set of failure reasons an ActionResult can
// carry.
type ActionResultCode string

const (
	ActionResultCodeInvalidAction     ActionResultCode = "invalid_action"
	ActionResultCodeInvalidValue      ActionResultCode = "invalid_value"
	ActionResultCodeDeviceUnreachable ActionResultCode = "device_unreachable"
	ActionResultCodeDeviceBusy        ActionResultCode = "device_busy"
)

var allActionResultCodes = map[ActionResultCode]struct{}{
	ActionResultCodeInvalidAction:     {},
	ActionResultCodeInvalidValue:      {},
	ActionResultCodeDeviceUnreachable: {},
	ActionResultCodeDeviceBusy:        {},
}

// Valid reports whether c is a member of the closed ActionResultCode enum.
func (c ActionResultCode) Valid() bool {
	_, ok := allActionResultCodes[c]
	return ok
}

// ActionResult is either Ok or an Error carrying one of the closed result
// codes plus a human-readable message.
type ActionResult struct {
	OK      bool
	Code    ActionResultCode
	Message string
}

// Ok builds a successful ActionResult.
func Ok() ActionResult {
	return ActionResult{OK: true}
}

// ErrorResult builds a failed ActionResult.
func ErrorResult(code ActionResultCode, message string) ActionResult {
	return ActionResult{OK: false, Code: code, Message: message}
}

// DeviceUnreachable is the default result assumed before a response arrives
// or when a device never answers.
func DeviceUnreachable() ActionResult {
	return ErrorResult(ActionResultCodeDeviceUnreachable, "device did not respond")
}

type actionResultWire struct {
	OK      bool             `json:"ok"`
	Code    ActionResultCode `json:"code,omitempty"`
	Message string           `json:"message,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r ActionResult) MarshalJSON() ([]byte, error) {
	if r.OK {
		return json.Marshal(actionResultWire{OK: true})
	}
	if !r.Code.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionResultCode, string(r.Code))
	}
	return json.Marshal(actionResultWire{OK: false, Code: r.Code, Message: r.Message})
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown codes.
func (r *ActionResult) UnmarshalJSON(data []byte) error {
	var wire actionResultWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.OK {
		*r = Ok()
		return nil
	}
	if !wire.Code.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownActionResultCode, string(wire.Code))
	}
	*r = ErrorResult(wire.Code, wire.Message)
	return nil
}
