// Package sonoff implements the eWeLink/Sonoff LAN protocol used to discover
// and control DIY-mode switches on the local network: mDNS discovery over
// the "_ewelink._tcp.local" service, the AES-128-CBC TXT-record cipher the
// devices use to hide their state, and the HTTP control path used to flip
// them.
package sonoff
