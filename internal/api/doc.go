// Package api implements the voice-cloud-facing HTTP surface:
// the device catalog, the action and query endpoints that front the
// orchestrator's action/query paths, and the middleware stack around them
// (request ID, logging, recovery, rate limiting, bearer auth).
//
// # Architecture
//
// The cloud calls this server with a bearer token obtained from its own
// OAuth2 flow, which the gateway only ever validates (internal/auth). A
// device command reaches the orchestrator's ActionRunner/QueryRunner, which
// dispatch over MQTT and wait for the per-device results; the HTTP layer
// itself never talks MQTT directly.
package api
