package sonoff

import "errors"

var (
	// ErrDisconnected is returned when the discovery socket is used after Close.
	ErrDisconnected = errors.New("sonoff: disconnected")

	// ErrUnknownDevice is returned when a control request names a device id
	// that discovery has not resolved.
	ErrUnknownDevice = errors.New("sonoff: unknown device")

	// ErrMissingHostname is returned when an mDNS answer has no PTR-derived
	// hostname to key the response to.
	ErrMissingHostname = errors.New("sonoff: missing hostname in mDNS answer")

	// ErrMissingService is returned when an mDNS PTR answer has no SRV target.
	ErrMissingService = errors.New("sonoff: missing service in mDNS answer")

	// ErrMissingAddr is returned when an mDNS answer never resolves to an A record.
	ErrMissingAddr = errors.New("sonoff: missing address in mDNS answer")

	// ErrMissingInfo is returned when a resolved host has no TXT record.
	ErrMissingInfo = errors.New("sonoff: missing TXT info for host")

	// ErrMissingKey is returned when ParseMeta needs a device key that the
	// caller did not provide (an encrypted TXT record with no matching config key).
	ErrMissingKey = errors.New("sonoff: missing device key")

	// ErrNoResponse is returned when a control POST gets a non-2xx response.
	ErrNoResponse = errors.New("sonoff: device did not acknowledge command")
)

// ErrMissingInfoField is returned when a TXT record is missing a field
// ParseMeta requires (the "iv" field of an encrypted record).
type ErrMissingInfoField struct {
	Field string
}

func (e *ErrMissingInfoField) Error() string {
	return "sonoff: missing TXT field " + e.Field
}
