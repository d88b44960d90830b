package transport

import "testing"

func TestParseDeviceId(t *testing.T) {
	id, err := ParseDeviceId("thermostat/bedroom")
	if err != nil {
		t.Fatalf("ParseDeviceId() error = %v", err)
	}
	if id.DeviceType != DeviceTypeThermostat || id.Room != RoomBedroom {
		t.Errorf("ParseDeviceId() = %+v, want thermostat/bedroom", id)
	}
}

func TestParseDeviceId_MissingSegment(t *testing.T) {
	if _, err := ParseDeviceId("thermostat"); err == nil {
		t.Error("ParseDeviceId(\"thermostat\") expected error, got nil")
	}
}

func TestParseDeviceId_UnknownEnumMembers(t *testing.T) {
	cases := []string{"thermostat/atlantis", "toaster/bedroom", "", "/", "thermostat/bedroom/extra"}
	for _, c := range cases {
		if _, err := ParseDeviceId(c); err == nil {
			t.Errorf("ParseDeviceId(%q) expected error, got nil", c)
		}
	}
}

// TestDeviceId_RoundTrip checks that ParseDeviceId(id.String()) == id for
// every constructible DeviceId.
func TestDeviceId_RoundTrip(t *testing.T) {
	for room := range allRooms {
		for deviceType := range allDeviceTypes {
			id := NewDeviceId(deviceType, room)
			parsed, err := ParseDeviceId(id.String())
			if err != nil {
				t.Fatalf("ParseDeviceId(%q) error = %v", id.String(), err)
			}
			if parsed != id {
				t.Errorf("round trip mismatch: %+v != %+v", parsed, id)
			}
		}
	}
}

func TestDeviceId_JSONRoundTrip(t *testing.T) {
	id := NewDeviceId(DeviceTypeVacuumCleaner, RoomKitchen)
	data, err := id.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(data) != `"vacuum_cleaner/kitchen"` {
		t.Errorf("MarshalJSON() = %s, want %q", data, "vacuum_cleaner/kitchen")
	}

	var got DeviceId
	if err := got.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if got != id {
		t.Errorf("UnmarshalJSON() = %+v, want %+v", got, id)
	}
}
