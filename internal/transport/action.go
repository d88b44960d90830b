package transport

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Action is a per-service variant carrying protocol-native intent plus a
// UUID correlation id. Exactly one of Vacuum/Hvac/Light is populated,
// selected by Service.
type Action struct {
	Service Service
	ID      uuid.UUID

	Vacuum *VacuumAction
	Hvac   *HvacAction
	Light  *LightAction
}

// NewElisaAction builds an Elisa (vacuum) action with a fresh id.
func NewElisaAction(a VacuumAction) Action {
	return Action{Service: ServiceElisa, ID: uuid.New(), Vacuum: &a}
}

// NewElizabethAction builds an Elizabeth (HVAC) action with a fresh id.
func NewElizabethAction(a HvacAction) Action {
	return Action{Service: ServiceElizabeth, ID: uuid.New(), Hvac: &a}
}

// NewElishebaAction builds an Elisheba (light) action with a fresh id.
func NewElishebaAction(a LightAction) Action {
	return Action{Service: ServiceElisheba, ID: uuid.New(), Light: &a}
}

// MarshalJSON renders the wire form {service_tag: [payload, uuid]}.
func (a Action) MarshalJSON() ([]byte, error) {
	var payload any
	switch a.Service {
	case ServiceElisa:
		payload = a.Vacuum
	case ServiceElizabeth:
		payload = a.Hvac
	case ServiceElisheba:
		payload = a.Light
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, string(a.Service))
	}

	tuple := [2]any{payload, a.ID}
	wrapper := map[string]any{string(a.Service): tuple}
	return json.Marshal(wrapper)
}

// UnmarshalJSON parses the wire form {service_tag: [payload, uuid]},
// rejecting any service tag outside {elisa, elizabeth, elisheba}.
func (a *Action) UnmarshalJSON(data []byte) error {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if len(wrapper) != 1 {
		return fmt.Errorf("%w: action must have exactly one service tag", ErrUnknownService)
	}

	for tag, raw := range wrapper {
		service, err := ParseService(tag)
		if err != nil {
			return err
		}

		switch service {
		case ServiceElisa:
			var tuple struct {
				Payload VacuumAction
				ID      uuid.UUID
			}
			if err := unmarshalActionTuple(raw, &tuple.Payload, &tuple.ID); err != nil {
				return err
			}
			*a = Action{Service: service, ID: tuple.ID, Vacuum: &tuple.Payload}
		case ServiceElizabeth:
			var tuple struct {
				Payload HvacAction
				ID      uuid.UUID
			}
			if err := unmarshalActionTuple(raw, &tuple.Payload, &tuple.ID); err != nil {
				return err
			}
			*a = Action{Service: service, ID: tuple.ID, Hvac: &tuple.Payload}
		case ServiceElisheba:
			var tuple struct {
				Payload LightAction
				ID      uuid.UUID
			}
			if err := unmarshalActionTuple(raw, &tuple.Payload, &tuple.ID); err != nil {
				return err
			}
			*a = Action{Service: service, ID: tuple.ID, Light: &tuple.Payload}
		default:
			return fmt.Errorf("%w: %q is not a valid action service", ErrUnknownService, tag)
		}
	}
	return nil
}

func unmarshalActionTuple[T any](raw json.RawMessage, payload *T, id *uuid.UUID) error {
	var tuple [2]json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return fmt.Errorf("action tuple: %w", err)
	}
	if err := json.Unmarshal(tuple[0], payload); err != nil {
		return fmt.Errorf("action payload: %w", err)
	}
	if err := json.Unmarshal(tuple[1], id); err != nil {
		return fmt.Errorf("action id: %w", err)
	}
	return nil
}
