package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/voice-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/voice-gateway/internal/transport"
)

// actionWindow is how long the action path waits for responses before
// giving up on whatever is still pending.
const actionWindow = 3 * time.Second

// CapabilityRequest is one (device, capability) pair from the cloud's
// action payload.
type CapabilityRequest struct {
	DeviceID   transport.DeviceId
	Capability transport.Capability
}

// CapabilityOutcome is the per-capability result handed back to the cloud
// surface: the capability's discriminant, without its value, plus the
// result of trying to apply it.
type CapabilityOutcome struct {
	Kind     transport.CapabilityKind
	Function string
	Result   transport.ActionResult
}

// ActionRunner executes the action path (C8): bucket capabilities by
// service, coalesce vacuum starts, dispatch over MQTT, and assemble a
// per-device result.
type ActionRunner struct {
	bus    Bus
	logger *logging.Logger
}

// NewActionRunner builds an ActionRunner over the given bus.
func NewActionRunner(bus Bus, logger *logging.Logger) *ActionRunner {
	return &ActionRunner{bus: bus, logger: logger}
}

// Run buckets capabilities, dispatches the resulting actions, waits up to
// actionWindow for responses, and returns every device's outcomes grouped
// by DeviceId. A device only appears if at least one of its capabilities
// belonged to a bucketable (non-sensor) device type.
func (r *ActionRunner) Run(ctx context.Context, requestID string, requests []CapabilityRequest) (map[transport.DeviceId][]CapabilityOutcome, error) {
	outcomes := make(map[transport.DeviceId][]*capabilityOutcomeSlot)
	var actions []transport.Action
	targets := make(map[uuid.UUID][]*capabilityOutcomeSlot)

	var startRooms []transport.Room
	var startOutcomes []*capabilityOutcomeSlot
	var startActionID uuid.UUID
	haveStart := false

	for _, req := range requests {
		svc, ok := req.DeviceID.DeviceType.Service()
		if !ok {
			// temperature_sensor is read-only: no-op, no response entry.
			continue
		}

		slot := newOutcomeSlot(req.Capability)

		switch svc {
		case transport.ServiceElizabeth:
			action, supported := mapElizabethCapability(req.DeviceID, req.Capability)
			recordOutcome(outcomes, req.DeviceID, slot)
			if !supported {
				r.logUnsupported(req)
				continue
			}
			actions = append(actions, action)
			targets[action.ID] = []*capabilityOutcomeSlot{slot}

		case transport.ServiceElisa:
			if isVacuumStart(req.Capability) {
				if !haveStart {
					startActionID = uuid.New()
					haveStart = true
				}
				startRooms = append(startRooms, req.DeviceID.Room)
				recordOutcome(outcomes, req.DeviceID, slot)
				startOutcomes = append(startOutcomes, slot)
				continue
			}

			action, supported := mapVacuumCapability(req.Capability)
			recordOutcome(outcomes, req.DeviceID, slot)
			if !supported {
				r.logUnsupported(req)
				continue
			}
			actions = append(actions, action)
			targets[action.ID] = []*capabilityOutcomeSlot{slot}

		case transport.ServiceElisheba:
			action, supported := mapLightCapability(req.DeviceID, req.Capability)
			recordOutcome(outcomes, req.DeviceID, slot)
			if !supported {
				r.logUnsupported(req)
				continue
			}
			actions = append(actions, action)
			targets[action.ID] = []*capabilityOutcomeSlot{slot}
		}
	}

	if haveStart {
		start := transport.NewVacuumStart(startRooms)
		actions = append(actions, transport.Action{Service: transport.ServiceElisa, ID: startActionID, Vacuum: &start})
		targets[startActionID] = startOutcomes
	}

	if len(actions) > 0 {
		if err := r.dispatch(ctx, requestID, actions, targets); err != nil {
			return nil, err
		}
	}

	return flattenOutcomes(outcomes), nil
}

func (r *ActionRunner) logUnsupported(req CapabilityRequest) {
	if r.logger == nil {
		return
	}
	r.logger.Warn("orchestrator: unsupported capability for device class",
		"device_id", req.DeviceID.String(),
		"capability_kind", string(req.Capability.Kind))
}

// dispatch publishes the batched actions, waits for their responses, and
// fills in each target slot's Result as matching ActionResponseMessages
// arrive.
func (r *ActionRunner) dispatch(ctx context.Context, requestID string, actions []transport.Action, targets map[uuid.UUID][]*capabilityOutcomeSlot) error {
	responseTopic := transport.NewActionResponseTopic(requestID).String()

	pending := make(map[uuid.UUID]struct{}, len(targets))
	for id := range targets {
		pending[id] = struct{}{}
	}

	received := make(chan transport.ActionResponseMessage, len(targets))
	handler := func(_ string, payload []byte) error {
		var msg transport.ActionResponseMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			if r.logger != nil {
				r.logger.Warn("orchestrator: decoding action response", "error", err)
			}
			return err
		}
		select {
		case received <- msg:
		default:
		}
		return nil
	}

	if err := r.bus.Subscribe(responseTopic, 1, handler); err != nil {
		return fmt.Errorf("%w: subscribing to %s: %v", ErrBusUnavailable, responseTopic, err)
	}
	defer r.bus.Unsubscribe(responseTopic)

	payload, err := json.Marshal(transport.ActionRequest{Actions: actions, ResponseTopic: responseTopic})
	if err != nil {
		return fmt.Errorf("orchestrator: encoding action request: %w", err)
	}
	if err := r.bus.Publish(transport.ActionRequestTopic.String(), payload, 1, false); err != nil {
		return fmt.Errorf("%w: publishing action request: %v", ErrBusUnavailable, err)
	}

	deadline := time.NewTimer(actionWindow)
	defer deadline.Stop()

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline.C:
			return nil
		case msg := <-received:
			if _, ok := pending[msg.ActionID]; !ok {
				continue
			}
			delete(pending, msg.ActionID)
			result := msg.ToActionResult()
			for _, slot := range targets[msg.ActionID] {
				slot.result = result
			}
		}
	}
	return nil
}

// capabilityOutcomeSlot is the mutable cell behind a CapabilityOutcome: a
// pointer so dispatch can fill in the real result once a response arrives,
// while recordOutcome has already fixed the slot's position in the
// per-device response list.
type capabilityOutcomeSlot struct {
	kind     transport.CapabilityKind
	function string
	result   transport.ActionResult
}

func newOutcomeSlot(c transport.Capability) *capabilityOutcomeSlot {
	return &capabilityOutcomeSlot{
		kind:     c.Kind,
		function: capabilityFunctionString(c),
		result:   transport.DeviceUnreachable(),
	}
}

func capabilityFunctionString(c transport.Capability) string {
	switch c.Kind {
	case transport.CapabilityKindMode:
		return string(c.ModeFunction)
	case transport.CapabilityKindToggle:
		return string(c.ToggleFunction)
	case transport.CapabilityKindRange:
		return string(c.RangeFunction)
	default:
		return ""
	}
}

func recordOutcome(outcomes map[transport.DeviceId][]*capabilityOutcomeSlot, id transport.DeviceId, slot *capabilityOutcomeSlot) {
	outcomes[id] = append(outcomes[id], slot)
}

func flattenOutcomes(m map[transport.DeviceId][]*capabilityOutcomeSlot) map[transport.DeviceId][]CapabilityOutcome {
	out := make(map[transport.DeviceId][]CapabilityOutcome, len(m))
	for id, slots := range m {
		list := make([]CapabilityOutcome, len(slots))
		for i, s := range slots {
			list[i] = CapabilityOutcome{Kind: s.kind, Function: s.function, Result: s.result}
		}
		out[id] = list
	}
	return out
}

func isVacuumStart(c transport.Capability) bool {
	return c.Kind == transport.CapabilityKindOnOff && c.OnOffValue
}

// mapElizabethCapability translates a capability into the HVAC action it
// represents, grounded on action.rs's map_elizabeth_action: on_off maps
// directly, fan_speed becomes SetFanSpeed, and range/temperature becomes
// SetTemperature (absolute or relative per Capability.RangeRelative).
func mapElizabethCapability(id transport.DeviceId, c transport.Capability) (transport.Action, bool) {
	switch {
	case c.Kind == transport.CapabilityKindOnOff:
		return transport.NewElizabethAction(transport.NewHvacOnOff(id.Room, id.DeviceType, c.OnOffValue)), true
	case c.Kind == transport.CapabilityKindMode && c.ModeFunction == transport.ModeFunctionFanSpeed:
		return transport.NewElizabethAction(transport.NewHvacSetFanSpeed(id.Room, id.DeviceType, c.Mode)), true
	case c.Kind == transport.CapabilityKindRange && c.RangeFunction == transport.RangeFunctionTemperature:
		return transport.NewElizabethAction(transport.NewHvacSetTemperature(id.Room, id.DeviceType, c.RangeValue, c.RangeRelative)), true
	default:
		return transport.Action{}, false
	}
}

// mapVacuumCapability translates a non-start vacuum capability into its
// action, grounded on action.rs's map_elisa_action. Start capabilities
// never reach this function — they're coalesced by the caller instead.
func mapVacuumCapability(c transport.Capability) (transport.Action, bool) {
	switch {
	case c.Kind == transport.CapabilityKindOnOff && !c.OnOffValue:
		return transport.NewElisaAction(transport.NewVacuumSimple(transport.VacuumActionStop)), true
	case c.Kind == transport.CapabilityKindMode && c.ModeFunction == transport.ModeFunctionWorkSpeed:
		return transport.NewElisaAction(transport.NewVacuumSetFanSpeed(c.Mode)), true
	case c.Kind == transport.CapabilityKindMode && c.ModeFunction == transport.ModeFunctionCleanupMode:
		return transport.NewElisaAction(transport.NewVacuumSetCleanupMode(c.Mode)), true
	case c.Kind == transport.CapabilityKindToggle && c.ToggleFunction == transport.ToggleFunctionPause:
		if c.ToggleValue {
			return transport.NewElisaAction(transport.NewVacuumSimple(transport.VacuumActionPause)), true
		}
		return transport.NewElisaAction(transport.NewVacuumSimple(transport.VacuumActionResume)), true
	default:
		return transport.Action{}, false
	}
}

// mapLightCapability translates a capability into a light action. Only
// on_off exists on LightAction's closed enum.
func mapLightCapability(id transport.DeviceId, c transport.Capability) (transport.Action, bool) {
	if c.Kind == transport.CapabilityKindOnOff {
		return transport.NewElishebaAction(transport.NewLightOnOff(id.Room, c.OnOffValue)), true
	}
	return transport.Action{}, false
}
