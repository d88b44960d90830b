package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/voice-gateway/internal/orchestrator"
	"github.com/nerrad567/voice-gateway/internal/transport"
)

// actionRequestBody is the inbound shape of POST /v1.0/user/devices/action,
// grounded on alice's UpdateStateRequest.
type actionRequestBody struct {
	Payload struct {
		Devices []struct {
			ID           transport.DeviceId `json:"id"`
			Capabilities []cloudCapability  `json:"capabilities"`
		} `json:"devices"`
	} `json:"payload"`
}

type actionResponseDevice struct {
	ID           string                  `json:"id"`
	Capabilities []cloudCapabilityResult `json:"capabilities"`
}

// handleAction serves POST /v1.0/user/devices/action: it bucket-dispatches
// every requested capability through the orchestrator's action path and
// reports back a deterministic per-device result within the action window
// before answering with whatever results are in.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var body actionRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	var requests []orchestrator.CapabilityRequest
	for _, device := range body.Payload.Devices {
		for _, c := range device.Capabilities {
			capability, err := c.toTransport()
			if err != nil {
				writeBadRequest(w, err.Error())
				return
			}
			requests = append(requests, orchestrator.CapabilityRequest{DeviceID: device.ID, Capability: capability})
		}
	}

	requestID := requestIDFromContext(r.Context())

	outcomes, err := s.actionRunner.Run(r.Context(), requestID, requests)
	if err != nil {
		s.logger.Error("action request failed", "request_id", requestID, "error", err)
		writeInternalError(w, "action dispatch failed")
		return
	}

	devices := make([]actionResponseDevice, 0, len(outcomes))
	for id, caps := range outcomes {
		results := make([]cloudCapabilityResult, 0, len(caps))
		for _, c := range caps {
			results = append(results, newCloudCapabilityResult(c.Kind, c.Function, c.Result))
		}
		devices = append(devices, actionResponseDevice{ID: id.String(), Capabilities: results})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": requestID,
		"payload": map[string]any{
			"devices": devices,
		},
	})
}
