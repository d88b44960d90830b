package sonoff

import (
	"net/netip"
	"testing"
)

func TestDeviceManager_PutGet(t *testing.T) {
	m := newDeviceManager()

	d := Device{ID: "1000abcd", Addr: netip.MustParseAddrPort("192.168.1.50:8081")}
	m.put(d)

	got, ok := m.get("1000abcd")
	if !ok {
		t.Fatal("get() did not find the device just put")
	}
	if got.Addr.Addr().String() != "192.168.1.50" {
		t.Errorf("got.Addr = %v", got.Addr)
	}

	if _, ok := m.get("unknown"); ok {
		t.Error("get() found a device that was never put")
	}

	if len(m.all()) != 1 {
		t.Errorf("all() length = %d, want 1", len(m.all()))
	}
}

func TestIsEnabled(t *testing.T) {
	device := Device{
		ID: "1000abcd",
		Meta: map[string]any{
			"switches": []any{
				map[string]any{"switch": "on", "outlet": float64(0)},
			},
		},
	}

	enabled, err := IsEnabled(device)
	if err != nil {
		t.Fatalf("IsEnabled() error = %v", err)
	}
	if !enabled {
		t.Error("IsEnabled() = false, want true")
	}
}

func TestIsEnabled_MissingSwitches(t *testing.T) {
	device := Device{ID: "1000abcd", Meta: map[string]any{}}

	if _, err := IsEnabled(device); err == nil {
		t.Error("IsEnabled() expected error for missing switches, got nil")
	}
}
