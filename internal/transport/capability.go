package transport

import (
	"encoding/json"
	"fmt"
)

// ModeFunction names which mode-like facet a Mode capability addresses.
type ModeFunction string

const (
	ModeFunctionWorkSpeed   ModeFunction = "work_speed"
	ModeFunctionFanSpeed    ModeFunction = "fan_speed"
	ModeFunctionCleanupMode ModeFunction = "cleanup_mode"
)

var allModeFunctions = map[ModeFunction]struct{}{
	ModeFunctionWorkSpeed:   {},
	ModeFunctionFanSpeed:    {},
	ModeFunctionCleanupMode: {},
}

// Valid reports whether f is a member of the closed ModeFunction enum.
func (f ModeFunction) Valid() bool {
	_, ok := allModeFunctions[f]
	return ok
}

// Mode is the closed set of mode values a Mode capability can carry. Not
// every Mode is valid for every ModeFunction; see the orchestrator's
// per-service mapping for the allowed subsets.
type Mode string

const (
	ModeQuiet         Mode = "quiet"
	ModeLow           Mode = "low"
	ModeNormal        Mode = "normal"
	ModeMedium        Mode = "medium"
	ModeHigh          Mode = "high"
	ModeTurbo         Mode = "turbo"
	ModeDryCleaning   Mode = "dry_cleaning"
	ModeWetCleaning   Mode = "wet_cleaning"
	ModeMixedCleaning Mode = "mixed_cleaning"
)

var allModes = map[Mode]struct{}{
	ModeQuiet:         {},
	ModeLow:           {},
	ModeNormal:        {},
	ModeMedium:        {},
	ModeHigh:          {},
	ModeTurbo:         {},
	ModeDryCleaning:   {},
	ModeWetCleaning:   {},
	ModeMixedCleaning: {},
}

// Valid reports whether m is a member of the closed Mode enum.
func (m Mode) Valid() bool {
	_, ok := allModes[m]
	return ok
}

// ToggleFunction names which toggle-like facet a Toggle capability
// addresses. Currently only "pause" exists.
type ToggleFunction string

const ToggleFunctionPause ToggleFunction = "pause"

// Valid reports whether f is a member of the closed ToggleFunction enum.
func (f ToggleFunction) Valid() bool {
	return f == ToggleFunctionPause
}

// RangeFunction names which continuous facet a Range capability addresses.
// Currently only "temperature" exists.
type RangeFunction string

const RangeFunctionTemperature RangeFunction = "temperature"

// Valid reports whether f is a member of the closed RangeFunction enum.
func (f RangeFunction) Valid() bool {
	return f == RangeFunctionTemperature
}

// CapabilityKind discriminates the Capability tagged union.
type CapabilityKind string

const (
	CapabilityKindOnOff  CapabilityKind = "on_off"
	CapabilityKindMode   CapabilityKind = "mode"
	CapabilityKindToggle CapabilityKind = "toggle"
	CapabilityKindRange  CapabilityKind = "range"
)

// Capability is a tagged union describing a single settable/observable
// facet of a device. Exactly one variant's fields are populated, selected
// by Kind.
type Capability struct {
	Kind CapabilityKind

	// OnOff variant.
	OnOffValue bool

	// Mode variant.
	ModeFunction ModeFunction
	Mode         Mode

	// Toggle variant.
	ToggleFunction ToggleFunction
	ToggleValue    bool

	// Range variant.
	RangeFunction RangeFunction
	RangeValue    float32
	RangeRelative bool
}

// NewOnOffCapability builds an OnOff capability variant.
func NewOnOffCapability(value bool) Capability {
	return Capability{Kind: CapabilityKindOnOff, OnOffValue: value}
}

// NewModeCapability builds a Mode capability variant.
func NewModeCapability(function ModeFunction, mode Mode) Capability {
	return Capability{Kind: CapabilityKindMode, ModeFunction: function, Mode: mode}
}

// NewToggleCapability builds a Toggle capability variant.
func NewToggleCapability(function ToggleFunction, value bool) Capability {
	return Capability{Kind: CapabilityKindToggle, ToggleFunction: function, ToggleValue: value}
}

// NewRangeCapability builds a Range capability variant.
func NewRangeCapability(function RangeFunction, value float32, relative bool) Capability {
	return Capability{Kind: CapabilityKindRange, RangeFunction: function, RangeValue: value, RangeRelative: relative}
}

// capabilityWire is the on-the-wire shape of Capability: internally tagged
// by "kind", with variant fields flattened alongside it.
type capabilityWire struct {
	Kind     CapabilityKind `json:"kind"`
	Value    *bool          `json:"value,omitempty"`
	Function string         `json:"function,omitempty"`
	Mode     string         `json:"mode,omitempty"`
	Relative *bool          `json:"relative,omitempty"`
	Amount   *float32       `json:"amount,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c Capability) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CapabilityKindOnOff:
		v := c.OnOffValue
		return json.Marshal(capabilityWire{Kind: c.Kind, Value: &v})
	case CapabilityKindMode:
		return json.Marshal(capabilityWire{Kind: c.Kind, Function: string(c.ModeFunction), Mode: string(c.Mode)})
	case CapabilityKindToggle:
		v := c.ToggleValue
		return json.Marshal(capabilityWire{Kind: c.Kind, Function: string(c.ToggleFunction), Value: &v})
	case CapabilityKindRange:
		v := c.RangeValue
		rel := c.RangeRelative
		return json.Marshal(capabilityWire{Kind: c.Kind, Function: string(c.RangeFunction), Amount: &v, Relative: &rel})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCapability, string(c.Kind))
	}
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown variants and
// invalid function/mode members rather than silently coercing them.
func (c *Capability) UnmarshalJSON(data []byte) error {
	var wire capabilityWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch wire.Kind {
	case CapabilityKindOnOff:
		if wire.Value == nil {
			return fmt.Errorf("%w: on_off missing value", ErrUnknownCapability)
		}
		*c = NewOnOffCapability(*wire.Value)
		return nil
	case CapabilityKindMode:
		fn := ModeFunction(wire.Function)
		if !fn.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownModeFunction, wire.Function)
		}
		mode := Mode(wire.Mode)
		if !mode.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownMode, wire.Mode)
		}
		*c = NewModeCapability(fn, mode)
		return nil
	case CapabilityKindToggle:
		fn := ToggleFunction(wire.Function)
		if !fn.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownToggleFunction, wire.Function)
		}
		if wire.Value == nil {
			return fmt.Errorf("%w: toggle missing value", ErrUnknownCapability)
		}
		*c = NewToggleCapability(fn, *wire.Value)
		return nil
	case CapabilityKindRange:
		fn := RangeFunction(wire.Function)
		if !fn.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownRangeFunction, wire.Function)
		}
		if wire.Amount == nil {
			return fmt.Errorf("%w: range missing amount", ErrUnknownCapability)
		}
		relative := wire.Relative != nil && *wire.Relative
		*c = NewRangeCapability(fn, *wire.Amount, relative)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCapability, string(wire.Kind))
	}
}
