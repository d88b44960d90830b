package transport

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Update is the tagged union broadcast on the `state` topic.
// Exactly one field is populated, selected by which key was present on the
// wire.
type Update struct {
	Elizabeth *HvacState
	Elisa     *VacuumState
	Isabel    *SensorState
	Elisheba  *LightState
}

// NewHvacUpdate wraps an HvacState as an Update.
func NewHvacUpdate(s HvacState) Update { return Update{Elizabeth: &s} }

// NewVacuumUpdate wraps a VacuumState as an Update.
func NewVacuumUpdate(s VacuumState) Update { return Update{Elisa: &s} }

// NewSensorUpdate wraps a SensorState as an Update.
func NewSensorUpdate(s SensorState) Update { return Update{Isabel: &s} }

// NewLightUpdate wraps a LightState as an Update.
func NewLightUpdate(s LightState) Update { return Update{Elisheba: &s} }

// MarshalJSON implements json.Marshaler.
func (u Update) MarshalJSON() ([]byte, error) {
	switch {
	case u.Elizabeth != nil:
		return json.Marshal(map[string]any{"elizabeth": u.Elizabeth})
	case u.Elisa != nil:
		return json.Marshal(map[string]any{"elisa": u.Elisa})
	case u.Isabel != nil:
		return json.Marshal(map[string]any{"isabel": u.Isabel})
	case u.Elisheba != nil:
		return json.Marshal(map[string]any{"elisheba": u.Elisheba})
	default:
		return nil, fmt.Errorf("transport: empty Update has no populated variant")
	}
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown keys.
func (u *Update) UnmarshalJSON(data []byte) error {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if len(wrapper) != 1 {
		return fmt.Errorf("transport: update must have exactly one variant key")
	}

	for key, raw := range wrapper {
		switch key {
		case "elizabeth":
			var s HvacState
			if err := json.Unmarshal(raw, &s); err != nil {
				return err
			}
			*u = Update{Elizabeth: &s}
		case "elisa":
			var s VacuumState
			if err := json.Unmarshal(raw, &s); err != nil {
				return err
			}
			*u = Update{Elisa: &s}
		case "isabel":
			var s SensorState
			if err := json.Unmarshal(raw, &s); err != nil {
				return err
			}
			*u = Update{Isabel: &s}
		case "elisheba":
			var s LightState
			if err := json.Unmarshal(raw, &s); err != nil {
				return err
			}
			*u = Update{Elisheba: &s}
		default:
			return fmt.Errorf("transport: unknown update variant %q", key)
		}
	}
	return nil
}

// ActionRequest is the payload published to `action/request`. ResponseTopic
// carries the per-request topic every adapter must echo its
// ActionResponseMessage back to — the application-level stand-in for MQTT
// v5's protocol-level ResponseTopic property, which paho.mqtt.golang (an
// MQTT 3.1.1 client) has no way to set or read.
type ActionRequest struct {
	Actions       []Action `json:"actions"`
	ResponseTopic string   `json:"response_topic"`
}

// ActionResponseMessage is published once per action id to
// `action/response/<req-id>`. Result is the coarse "success"/"failure"
// literal; Code/Message carry the detail an adapter may
// optionally supply on failure so the orchestrator can assemble a precise
// ActionResult instead of a bare device_unreachable.
type ActionResponseMessage struct {
	ActionID uuid.UUID        `json:"action_id"`
	Result   string           `json:"result"`
	Code     ActionResultCode `json:"code,omitempty"`
	Message  string           `json:"message,omitempty"`
}

const (
	ActionResultLiteralSuccess = "success"
	ActionResultLiteralFailure = "failure"
)

// ToActionResult translates the coarse wire result into an ActionResult.
func (m ActionResponseMessage) ToActionResult() ActionResult {
	if m.Result == ActionResultLiteralSuccess {
		return Ok()
	}
	code := m.Code
	if !code.Valid() {
		code = ActionResultCodeDeviceUnreachable
	}
	return ErrorResult(code, m.Message)
}

// NewActionResponseMessage builds the wire message for a completed action.
func NewActionResponseMessage(actionID uuid.UUID, result ActionResult) ActionResponseMessage {
	if result.OK {
		return ActionResponseMessage{ActionID: actionID, Result: ActionResultLiteralSuccess}
	}
	return ActionResponseMessage{
		ActionID: actionID,
		Result:   ActionResultLiteralFailure,
		Code:     result.Code,
		Message:  result.Message,
	}
}

// StateRequestMessage is the payload published to `state/request`.
// ResponseTopic carries the per-request topic every service answering the
// query must publish its StateResponse entries to.
type StateRequestMessage struct {
	DeviceIds     []DeviceId `json:"device_ids"`
	ResponseTopic string     `json:"response_topic"`
}

// CurrentState is the Elizabeth-service query response payload: the full
// set of currently-known capabilities for one device.
type CurrentState struct {
	Room         Room         `json:"room"`
	DeviceType   DeviceType   `json:"device_type"`
	Capabilities []Capability `json:"capabilities"`
}

// StateResponse is the tagged union published once per device to
// `state/response/<req-id>` in answer to a state request.
type StateResponse struct {
	Elisa     *VacuumState
	Elizabeth *CurrentState
}

// NewVacuumStateResponse wraps a VacuumState as a StateResponse.
func NewVacuumStateResponse(s VacuumState) StateResponse { return StateResponse{Elisa: &s} }

// NewHvacStateResponse wraps a CurrentState as a StateResponse.
func NewHvacStateResponse(s CurrentState) StateResponse { return StateResponse{Elizabeth: &s} }

// MarshalJSON implements json.Marshaler.
func (r StateResponse) MarshalJSON() ([]byte, error) {
	switch {
	case r.Elisa != nil:
		return json.Marshal(map[string]any{"elisa": r.Elisa})
	case r.Elizabeth != nil:
		return json.Marshal(map[string]any{"elizabeth": r.Elizabeth})
	default:
		return nil, fmt.Errorf("transport: empty StateResponse has no populated variant")
	}
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown keys.
func (r *StateResponse) UnmarshalJSON(data []byte) error {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if len(wrapper) != 1 {
		return fmt.Errorf("transport: state response must have exactly one variant key")
	}

	for key, raw := range wrapper {
		switch key {
		case "elisa":
			var s VacuumState
			if err := json.Unmarshal(raw, &s); err != nil {
				return err
			}
			*r = StateResponse{Elisa: &s}
		case "elizabeth":
			var s CurrentState
			if err := json.Unmarshal(raw, &s); err != nil {
				return err
			}
			*r = StateResponse{Elizabeth: &s}
		default:
			return fmt.Errorf("transport: unknown state response variant %q", key)
		}
	}
	return nil
}
