// Package store holds the gateway's in-memory view of device state: one
// record per (room, device_type), each tracking a list of capabilities or
// properties and a modified flag per facet. Adapters fold a stream of
// single-facet events into these records with Apply/ApplyProperty, and
// periodically drain only the facets that changed with PrepareUpdates
// before calling ResetModified.
package store
