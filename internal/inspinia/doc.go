// Package inspinia implements the Astrum/Inspinia smart-home hub client
// used by the HVAC adapter: the skyplatform.io WebSocket session (register,
// keep-alive, state update/push), the per-site SQLite "template" that maps
// rooms to thermostat and recuperator ports, and the on-disk template cache.
package inspinia
