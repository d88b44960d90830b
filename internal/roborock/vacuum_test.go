package roborock

import "testing"

func TestStateFromCode(t *testing.T) {
	cases := map[int64]State{
		1: StateCleaning, 5: StateCleaning, 6305: StateCleaning,
		2: StateIdle, 3: StateIdle,
		6: StateReturning, 15: StateReturning, 26: StateReturning,
		8: StateDocked, 9: StateDocked, 100: StateDocked,
		10: StatePaused,
		999: StateUnknown,
	}
	for code, want := range cases {
		if got := stateFromCode(code); got != want {
			t.Errorf("stateFromCode(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestStateFromStatus_FallsBackToFlags(t *testing.T) {
	status := map[string]any{"state": float64(999), "in_cleaning": float64(1)}
	if got := stateFromStatus(status); got != StateCleaning {
		t.Errorf("stateFromStatus() = %v, want %v", got, StateCleaning)
	}

	status = map[string]any{"state": float64(999), "in_returning": float64(1)}
	if got := stateFromStatus(status); got != StateReturning {
		t.Errorf("stateFromStatus() = %v, want %v", got, StateReturning)
	}

	status = map[string]any{"state": float64(999), "charge_status": float64(1)}
	if got := stateFromStatus(status); got != StateDocked {
		t.Errorf("stateFromStatus() = %v, want %v", got, StateDocked)
	}

	status = map[string]any{}
	if got := stateFromStatus(status); got != StateUnknown {
		t.Errorf("stateFromStatus() = %v, want %v", got, StateUnknown)
	}
}

func TestFanFromCode(t *testing.T) {
	cases := map[int64]FanSpeed{
		0: FanSpeedSilent, 101: FanSpeedSilent,
		1: FanSpeedStandard, 102: FanSpeedStandard, 106: FanSpeedStandard,
		2: FanSpeedMedium, 103: FanSpeedMedium,
		3: FanSpeedMax, 104: FanSpeedMax, 108: FanSpeedMax,
		105: FanSpeedOff,
		110: FanSpeedSmartMode,
		9999: FanSpeedStandard,
	}
	for code, want := range cases {
		if got := fanFromCode(code); got != want {
			t.Errorf("fanFromCode(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestFanToCode_RoundTripsThroughFanFromCode(t *testing.T) {
	cases := []FanSpeed{FanSpeedOff, FanSpeedSilent, FanSpeedStandard, FanSpeedMedium, FanSpeedMax, FanSpeedSmartMode}
	for _, speed := range cases {
		code := fanToCode(speed)
		if got := fanFromCode(code); got != speed {
			t.Errorf("fanFromCode(fanToCode(%v)) = %v, want %v", speed, got, speed)
		}
	}
}

func TestCleanupModeFromStatus(t *testing.T) {
	dry := map[string]any{"water_box_mode": float64(200)}
	if got := cleanupModeFromStatus(dry, 102); got != CleanupModeDryCleaning {
		t.Errorf("cleanupModeFromStatus(dry) = %v, want %v", got, CleanupModeDryCleaning)
	}

	wet := map[string]any{"water_box_mode": float64(208)}
	if got := cleanupModeFromStatus(wet, 105); got != CleanupModeWetCleaning {
		t.Errorf("cleanupModeFromStatus(wet) = %v, want %v", got, CleanupModeWetCleaning)
	}

	mixed := map[string]any{"water_box_mode": float64(202)}
	if got := cleanupModeFromStatus(mixed, 102); got != CleanupModeMixedCleaning {
		t.Errorf("cleanupModeFromStatus(mixed) = %v, want %v", got, CleanupModeMixedCleaning)
	}
}

func TestFirstStatusObject_UnwrapsArray(t *testing.T) {
	status := firstStatusObject([]byte(`[{"battery":80}]`))
	if getInt64(status, "battery") != 80 {
		t.Errorf("firstStatusObject(array) battery = %v, want 80", status["battery"])
	}

	status = firstStatusObject([]byte(`{"battery":55}`))
	if getInt64(status, "battery") != 55 {
		t.Errorf("firstStatusObject(object) battery = %v, want 55", status["battery"])
	}

	status = firstStatusObject([]byte(`[]`))
	if len(status) != 0 {
		t.Errorf("firstStatusObject(empty array) = %+v, want empty", status)
	}
}
