// Package orchestrator implements the two request/response paths that sit
// between the voice-cloud HTTP surface and the MQTT bus: the action path
// (dispatch a batch of capability changes, collect per-action results) and
// the query path (ask for current state, collect per-device snapshots).
// Both paths publish a request carrying a response topic, subscribe to that
// topic, and return whatever answers arrived inside a bounded window.
package orchestrator
