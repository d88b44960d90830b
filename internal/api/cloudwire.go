package api

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/voice-gateway/internal/transport"
)

// The voice cloud's HTTP dialect tags capabilities by a dotted "type"
// string and carries the value under a nested "state" object keyed by
// "instance" — the same shape the state-report callback uses (see
// internal/reporter/wire.go), grounded on lib/alice/src/state/capability.rs
// and lib/alice/src/action/response/capability.rs.

const (
	cloudTypeOnOff  = "devices.capabilities.on_off"
	cloudTypeMode   = "devices.capabilities.mode"
	cloudTypeToggle = "devices.capabilities.toggle"
	cloudTypeRange  = "devices.capabilities.range"

	cloudOnOffInstance = "on"
)

// cloudCapability is the inbound shape of one requested capability change,
// as sent in an action request's devices[].capabilities[] array.
type cloudCapability struct {
	Type  string               `json:"type"`
	State cloudCapabilityState `json:"state"`
}

type cloudCapabilityState struct {
	Instance string          `json:"instance"`
	Value    json.RawMessage `json:"value"`
	Relative bool            `json:"relative,omitempty"`
}

// toTransport translates the cloud wire shape into the internal Capability
// the orchestrator expects.
func (c cloudCapability) toTransport() (transport.Capability, error) {
	switch c.Type {
	case cloudTypeOnOff:
		var v bool
		if err := json.Unmarshal(c.State.Value, &v); err != nil {
			return transport.Capability{}, fmt.Errorf("on_off value: %w", err)
		}
		return transport.NewOnOffCapability(v), nil

	case cloudTypeMode:
		var mode string
		if err := json.Unmarshal(c.State.Value, &mode); err != nil {
			return transport.Capability{}, fmt.Errorf("mode value: %w", err)
		}
		fn := transport.ModeFunction(c.State.Instance)
		if !fn.Valid() {
			return transport.Capability{}, fmt.Errorf("%w: %q", errUnsupportedCapability, c.State.Instance)
		}
		m := transport.Mode(mode)
		if !m.Valid() {
			return transport.Capability{}, fmt.Errorf("%w: %q", errUnsupportedCapability, mode)
		}
		return transport.NewModeCapability(fn, m), nil

	case cloudTypeToggle:
		var v bool
		if err := json.Unmarshal(c.State.Value, &v); err != nil {
			return transport.Capability{}, fmt.Errorf("toggle value: %w", err)
		}
		fn := transport.ToggleFunction(c.State.Instance)
		if !fn.Valid() {
			return transport.Capability{}, fmt.Errorf("%w: %q", errUnsupportedCapability, c.State.Instance)
		}
		return transport.NewToggleCapability(fn, v), nil

	case cloudTypeRange:
		var v float32
		if err := json.Unmarshal(c.State.Value, &v); err != nil {
			return transport.Capability{}, fmt.Errorf("range value: %w", err)
		}
		fn := transport.RangeFunction(c.State.Instance)
		if !fn.Valid() {
			return transport.Capability{}, fmt.Errorf("%w: %q", errUnsupportedCapability, c.State.Instance)
		}
		return transport.NewRangeCapability(fn, v, c.State.Relative), nil

	default:
		return transport.Capability{}, fmt.Errorf("%w: %q", errUnsupportedCapability, c.Type)
	}
}

// cloudCapabilityResult is the outbound shape of one capability's action
// result, attached to a device in the action response.
type cloudCapabilityResult struct {
	Type  string                    `json:"type"`
	State cloudCapabilityResultState `json:"state"`
}

type cloudCapabilityResultState struct {
	Instance     string           `json:"instance"`
	ActionResult transport.ActionResult `json:"action_result"`
}

// newCloudCapabilityResult builds the response wire entry for one
// CapabilityOutcome.
func newCloudCapabilityResult(kind transport.CapabilityKind, function string, result transport.ActionResult) cloudCapabilityResult {
	var typ, instance string
	switch kind {
	case transport.CapabilityKindOnOff:
		typ, instance = cloudTypeOnOff, cloudOnOffInstance
	case transport.CapabilityKindMode:
		typ, instance = cloudTypeMode, function
	case transport.CapabilityKindToggle:
		typ, instance = cloudTypeToggle, function
	case transport.CapabilityKindRange:
		typ, instance = cloudTypeRange, function
	}
	return cloudCapabilityResult{Type: typ, State: cloudCapabilityResultState{Instance: instance, ActionResult: result}}
}

// cloudProperty is the outbound shape of one reported property value, used
// by the query response.
type cloudProperty struct {
	Type  string             `json:"type"`
	State cloudPropertyState `json:"state"`
}

type cloudPropertyState struct {
	Instance string  `json:"instance"`
	Value    float32 `json:"value"`
}

func newCloudCapability(c transport.Capability) cloudCapability {
	switch c.Kind {
	case transport.CapabilityKindOnOff:
		v, _ := json.Marshal(c.OnOffValue)
		return cloudCapability{Type: cloudTypeOnOff, State: cloudCapabilityState{Instance: cloudOnOffInstance, Value: v}}
	case transport.CapabilityKindMode:
		v, _ := json.Marshal(string(c.Mode))
		return cloudCapability{Type: cloudTypeMode, State: cloudCapabilityState{Instance: string(c.ModeFunction), Value: v}}
	case transport.CapabilityKindToggle:
		v, _ := json.Marshal(c.ToggleValue)
		return cloudCapability{Type: cloudTypeToggle, State: cloudCapabilityState{Instance: string(c.ToggleFunction), Value: v}}
	case transport.CapabilityKindRange:
		v, _ := json.Marshal(c.RangeValue)
		return cloudCapability{Type: cloudTypeRange, State: cloudCapabilityState{Instance: string(c.RangeFunction), Value: v, Relative: c.RangeRelative}}
	default:
		return cloudCapability{}
	}
}
