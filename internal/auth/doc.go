// Package auth validates the bearer token the voice cloud presents on every
// call to the gateway's HTTP surface. Token issuance (the OAuth2 endpoint
// and its login form) is an external collaborator out of scope here, so
// this package only ever parses and verifies, never mints.
package auth
