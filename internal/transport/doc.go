// Package transport holds the vocabulary shared by every other package in
// the gateway: the closed Room/DeviceType/Service enums, the DeviceId
// handle, the Capability/Property tagged unions, the per-service Action and
// ActionResult types, and the wire message envelopes carried over MQTT.
//
// Every value here round-trips through JSON in snake_case. Unknown wire
// variants are rejected at deserialization rather than silently coerced.
package transport
