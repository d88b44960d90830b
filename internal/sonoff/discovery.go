package sonoff

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"
)

const (
	mdnsAddress = "224.0.0.251:5353"
	serviceName = "_ewelink._tcp.local."

	requeryInterval = 2 * time.Second
	readPollTimeout = 250 * time.Millisecond
)

// pending is the in-progress state for one service instance while discovery
// assembles its SRV/TXT/A answers into a usable Device.
type pending struct {
	instance  string
	target    string
	hasTarget bool
	port      uint16
	hasPort   bool
	addr      netip.Addr
	hasAddr   bool
	info      map[string]string
	lastQuery time.Time
}

func (p *pending) ready() bool {
	return p.hasTarget && p.hasPort && p.hasAddr && p.info != nil
}

// Client discovers Sonoff switches on the LAN via mDNS and tracks the
// devices found so far.
type Client struct {
	manager *deviceManager
}

// NewClient returns a Client with an empty discovery cache.
func NewClient() *Client {
	return &Client{manager: newDeviceManager()}
}

// Known returns the devices discovered so far without re-running discovery.
func (c *Client) Known() []Device {
	return c.manager.all()
}

// Discover runs mDNS discovery for the given device ids (the TXT "id"
// field), blocking until every id is resolved, ctx is done, or timeout
// elapses. It mirrors the batch discover-with-retry loop used by the
// reference client: an unresolved service instance is re-queried every
// requeryInterval until it answers.
func (c *Client) Discover(ctx context.Context, ids []string, timeout time.Duration) ([]Device, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := c.manager.get(id); ok {
			continue
		}
		want[id] = true
	}
	if len(want) == 0 {
		return c.resolveAll(ids), nil
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("sonoff: opening discovery socket: %w", err)
	}
	defer conn.Close()

	mcastAddr, err := net.ResolveUDPAddr("udp4", mdnsAddress)
	if err != nil {
		return nil, fmt.Errorf("sonoff: resolving mDNS multicast address: %w", err)
	}

	deadline := time.Now().Add(timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	if err := c.sendQuery(conn, mcastAddr, serviceName); err != nil {
		return nil, err
	}

	pendingByInstance := make(map[string]*pending)
	lastDiscoveryQuery := time.Now()

	buf := make([]byte, 8192)
	for len(want) > 0 {
		select {
		case <-ctx.Done():
			return c.resolveAll(ids), ctx.Err()
		default:
		}

		if time.Since(lastDiscoveryQuery) > requeryInterval {
			if err := c.sendQuery(conn, mcastAddr, serviceName); err != nil {
				return nil, err
			}
			lastDiscoveryQuery = time.Now()
		}

		_ = conn.SetReadDeadline(time.Now().Add(readPollTimeout))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.requeryStale(conn, mcastAddr, pendingByInstance)
				continue
			}
			return nil, fmt.Errorf("sonoff: reading mDNS response: %w", err)
		}

		packet, err := parsePacket(buf[:n])
		if err != nil {
			continue
		}

		if packet.service != "" {
			if _, ok := pendingByInstance[packet.service]; !ok {
				pendingByInstance[packet.service] = &pending{instance: packet.service}
			}
		}
		if packet.instance != "" {
			p, ok := pendingByInstance[packet.instance]
			if !ok {
				p = &pending{instance: packet.instance}
				pendingByInstance[packet.instance] = p
			}
			if packet.target != "" {
				p.target = packet.target
				p.hasTarget = true
				p.port = packet.port
				p.hasPort = true
			}
			if packet.info != nil {
				p.info = packet.info
			}
		}
		if packet.host != "" && packet.addr.IsValid() {
			for _, p := range pendingByInstance {
				if p.hasTarget && p.target == packet.host {
					p.addr = packet.addr
					p.hasAddr = true
				}
			}
		}

		for _, p := range pendingByInstance {
			if !p.ready() {
				continue
			}
			id, ok := p.info["id"]
			if !ok || !want[id] {
				continue
			}
			device := Device{
				ID:   id,
				Addr: netip.AddrPortFrom(p.addr, p.port),
				Meta: make(map[string]any, len(p.info)),
			}
			for k, v := range p.info {
				device.Meta[k] = v
			}
			c.manager.put(device)
			delete(want, id)
		}
	}

	return c.resolveAll(ids), nil
}

func (c *Client) resolveAll(ids []string) []Device {
	out := make([]Device, 0, len(ids))
	for _, id := range ids {
		if d, ok := c.manager.get(id); ok {
			out = append(out, d)
		}
	}
	return out
}

// requeryStale re-sends a multicast query for any pending instance that is
// not yet ready and hasn't been queried within requeryInterval.
func (c *Client) requeryStale(conn *net.UDPConn, mcastAddr *net.UDPAddr, pendingByInstance map[string]*pending) {
	now := time.Now()
	for _, p := range pendingByInstance {
		if p.ready() {
			continue
		}
		if now.Sub(p.lastQuery) < requeryInterval {
			continue
		}
		p.lastQuery = now
		_ = c.sendQuery(conn, mcastAddr, p.instance+".")
	}
}

func (c *Client) sendQuery(conn *net.UDPConn, addr *net.UDPAddr, name string) error {
	packet, err := buildQueryPacket(uint16(time.Now().UnixNano()), name)
	if err != nil {
		return fmt.Errorf("sonoff: building mDNS query: %w", err)
	}
	_, err = conn.WriteToUDP(packet, addr)
	return err
}
