package auth

import "errors"

// Sentinel errors for bearer-token validation.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)
