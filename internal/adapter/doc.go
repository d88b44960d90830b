// Package adapter provides the reconnect supervisor shared by every
// service-adapter binary (vacuum, switch, hvac).
//
// Each adapter owns exactly one protocol client and one MQTT connection.
// The two reconnect independently: a protocol-side
// disconnect must not tear down the MQTT subscription, and vice versa.
// Supervisor only concerns itself with the protocol side — the MQTT
// client already reconnects on its own (internal/infrastructure/mqtt).
package adapter
