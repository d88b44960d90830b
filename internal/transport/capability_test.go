package transport

import (
	"encoding/json"
	"testing"
)

func TestCapability_OnOffRoundTrip(t *testing.T) {
	c := NewOnOffCapability(true)
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Capability
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got != c {
		t.Errorf("round trip = %+v, want %+v", got, c)
	}
}

func TestCapability_ModeRoundTrip(t *testing.T) {
	c := NewModeCapability(ModeFunctionFanSpeed, ModeQuiet)
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Capability
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got != c {
		t.Errorf("round trip = %+v, want %+v", got, c)
	}
}

func TestCapability_UnknownKindRejected(t *testing.T) {
	var c Capability
	err := json.Unmarshal([]byte(`{"kind":"frobnicate","value":true}`), &c)
	if err == nil {
		t.Error("Unmarshal() expected error for unknown kind, got nil")
	}
}

func TestCapability_UnknownModeRejected(t *testing.T) {
	var c Capability
	err := json.Unmarshal([]byte(`{"kind":"mode","function":"fan_speed","mode":"ludicrous"}`), &c)
	if err == nil {
		t.Error("Unmarshal() expected error for unknown mode, got nil")
	}
}

func TestCapability_UnknownModeFunctionRejected(t *testing.T) {
	var c Capability
	err := json.Unmarshal([]byte(`{"kind":"mode","function":"spin_cycle","mode":"quiet"}`), &c)
	if err == nil {
		t.Error("Unmarshal() expected error for unknown mode function, got nil")
	}
}

func TestCapability_RangeRoundTrip(t *testing.T) {
	c := NewRangeCapability(RangeFunctionTemperature, 21.5, false)
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Capability
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got != c {
		t.Errorf("round trip = %+v, want %+v", got, c)
	}
}
