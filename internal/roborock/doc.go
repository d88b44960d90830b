// Package roborock implements the local binary protocol spoken by Roborock
// vacuum cleaners over the LAN (protocol version "L01"): frame codec, the
// AES-256-GCM payload cipher, the hello handshake, and the JSON-RPC dialect
// carried inside it.
package roborock
