package roborock

import "errors"

// Domain-specific errors for the local Roborock protocol.
// Use errors.Is() to check for these errors in calling code.
var (
	ErrFrameTooShort       = errors.New("roborock: frame too short")
	ErrPayloadLenMismatch  = errors.New("roborock: payload length mismatch")
	ErrPayloadCRCMissing   = errors.New("roborock: payload crc missing")
	ErrCRCMismatch         = errors.New("roborock: crc mismatch")
	ErrPayloadLenMissing   = errors.New("roborock: payload length missing")
	ErrUnknownProtocol     = errors.New("roborock: unknown message protocol")
	ErrUnknownVersion      = errors.New("roborock: unknown protocol version")
	ErrMissingAckNonce     = errors.New("roborock: missing ack nonce")
	ErrMissingDps          = errors.New("roborock: missing dps field")
	ErrMissingResponse     = errors.New("roborock: missing response")

	ErrUnknownMethod     = errors.New("roborock: unknown method")
	ErrUnexpectedResult  = errors.New("roborock: unexpected result")
	ErrInvalidResultType = errors.New("roborock: invalid result type")
	ErrMissingResult     = errors.New("roborock: missing result")
	ErrDeviceError       = errors.New("roborock: device reported an error")

	ErrConnectionClosed = errors.New("roborock: connection closed")
)
