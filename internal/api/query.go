package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/voice-gateway/internal/transport"
)

// queryRequestBody is the inbound shape of POST /v1.0/user/devices/query.
type queryRequestBody struct {
	Devices []struct {
		ID transport.DeviceId `json:"id"`
	} `json:"devices"`
}

type queryResponseDevice struct {
	ID           string            `json:"id"`
	Capabilities []cloudCapability `json:"capabilities,omitempty"`
}

// handleQuery serves POST /v1.0/user/devices/query: it fans the requested
// device ids out over the orchestrator's query path and returns whatever
// state arrived within the query window, partial on timeout.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body queryRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	ids := make([]transport.DeviceId, 0, len(body.Devices))
	for _, d := range body.Devices {
		ids = append(ids, d.ID)
	}

	requestID := requestIDFromContext(r.Context())

	states, err := s.queryRunner.Run(r.Context(), requestID, ids)
	if err != nil {
		s.logger.Error("query request failed", "request_id", requestID, "error", err)
		writeInternalError(w, "query dispatch failed")
		return
	}

	devices := make([]queryResponseDevice, 0, len(states))
	for _, st := range states {
		caps := make([]cloudCapability, 0, len(st.Capabilities))
		for _, c := range st.Capabilities {
			caps = append(caps, newCloudCapability(c))
		}
		devices = append(devices, queryResponseDevice{ID: st.ID.String(), Capabilities: caps})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": requestID,
		"payload": map[string]any{
			"devices": devices,
		},
	})
}
